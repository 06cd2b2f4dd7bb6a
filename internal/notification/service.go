// Package notification delivers invoice and report emails through SMTP,
// SendGrid or Resend.
package notification

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/bher20/copierbill/internal/storage"
	"go.uber.org/zap"
)

// ErrEmailDisabled is returned when no enabled email configuration exists.
var ErrEmailDisabled = errors.New("email not configured or disabled")

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outbound email.
type Message struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Service struct {
	storage  storage.Storage
	fallback *storage.EmailConfig
	log      *zap.Logger

	httpClient *http.Client
	resendURL  string
}

// NewService returns a notification service. fallback, when non-nil, is
// used until an email configuration has been saved through the API.
func NewService(s storage.Storage, fallback *storage.EmailConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		storage:    s,
		fallback:   fallback,
		log:        log,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		resendURL:  "https://api.resend.com/emails",
	}
}

// GetConfig returns the active email configuration, or nil when none is set.
func (s *Service) GetConfig(ctx context.Context) (*storage.EmailConfig, error) {
	cfg, err := s.storage.GetEmailConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	if s.fallback != nil && s.fallback.Provider != "" {
		c := *s.fallback
		return &c, nil
	}
	return nil, nil
}

func (s *Service) SaveConfig(ctx context.Context, cfg storage.EmailConfig) error {
	cfg.ID = storage.EmailConfigID
	if cfg.Enabled {
		if err := validateConfig(cfg); err != nil {
			return err
		}
	}
	return s.storage.SaveEmailConfig(ctx, cfg)
}

// Send delivers msg with the active configuration.
func (s *Service) Send(ctx context.Context, msg Message) error {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return ErrEmailDisabled
	}
	return s.deliver(ctx, cfg, msg)
}

// Enabled reports whether Send would attempt delivery.
func (s *Service) Enabled(ctx context.Context) bool {
	cfg, err := s.GetConfig(ctx)
	return err == nil && cfg != nil && cfg.Enabled
}

// TestConfig sends a short message using cfg without saving it.
func (s *Service) TestConfig(ctx context.Context, cfg storage.EmailConfig, to string) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	return s.deliver(ctx, &cfg, Message{
		To:      to,
		Subject: "Test Email",
		HTML:    "<p>This is a test email from Copier Billing.</p>",
		Text:    "This is a test email from Copier Billing.",
	})
}

func (s *Service) deliver(ctx context.Context, cfg *storage.EmailConfig, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("recipient address is required")
	}

	var err error
	switch cfg.Provider {
	case "smtp", "gmail":
		err = s.sendSMTP(cfg, msg)
	case "sendgrid":
		err = s.sendSendgrid(ctx, cfg, msg)
	case "resend":
		err = s.sendResend(ctx, cfg, msg)
	default:
		err = fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if err != nil {
		s.log.Warn("email delivery failed",
			zap.String("provider", cfg.Provider),
			zap.String("to", msg.To),
			zap.Error(err))
		return err
	}
	s.log.Info("email sent",
		zap.String("provider", cfg.Provider),
		zap.String("to", msg.To),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

func validateConfig(cfg storage.EmailConfig) error {
	switch cfg.Provider {
	case "smtp", "gmail":
		if cfg.Host == "" || cfg.Port == 0 {
			return errors.New("smtp host and port are required")
		}
	case "sendgrid", "resend":
		if cfg.APIKey == "" {
			return fmt.Errorf("%s api key is required", cfg.Provider)
		}
	default:
		return fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if cfg.FromAddress == "" {
		return errors.New("from address is required")
	}
	return nil
}

func fromHeader(cfg *storage.EmailConfig) string {
	if cfg.FromName == "" {
		return cfg.FromAddress
	}
	return fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
}

// SendInvoice emails an issued invoice with its PDF attached.
func (s *Service) SendInvoice(ctx context.Context, to string, inv storage.Invoice, pdf []byte) error {
	period := strings.TrimSpace(inv.Month + " " + inv.Year)
	subject := fmt.Sprintf("Invoice %s", inv.ID)
	if period != "" {
		subject += " for " + period
	}
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Please find attached invoice %s for %s.</p><p>Total due: <strong>$%s</strong></p>",
		html.EscapeString(inv.CustomerName), html.EscapeString(inv.ID), html.EscapeString(period), html.EscapeString(inv.TotalDue))

	return s.Send(ctx, Message{
		To:      to,
		Subject: subject,
		HTML:    body,
		Text:    fmt.Sprintf("Invoice %s for %s. Total due: $%s", inv.ID, period, inv.TotalDue),
		Attachments: []Attachment{{
			Filename:    fmt.Sprintf("invoice-%s.pdf", inv.ID),
			ContentType: "application/pdf",
			Data:        pdf,
		}},
	})
}

// SendReport emails a spreadsheet export.
func (s *Service) SendReport(ctx context.Context, to, subject, filename string, xlsx []byte) error {
	return s.Send(ctx, Message{
		To:      to,
		Subject: subject,
		HTML:    "<p>The invoice report is attached.</p>",
		Text:    "The invoice report is attached.",
		Attachments: []Attachment{{
			Filename:    filename,
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        xlsx,
		}},
	})
}
