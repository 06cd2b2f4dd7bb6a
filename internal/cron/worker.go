// Package cron runs the scheduled monthly invoice report.
package cron

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bher20/copierbill/internal/alerting"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/metrics"
	"github.com/bher20/copierbill/internal/report"
	"github.com/bher20/copierbill/internal/storage"
)

const (
	reportJobName       = "monthly_report"
	reportLockKey int64 = 42
)

// InvoiceLister is the part of the invoice service the report job reads.
type InvoiceLister interface {
	List(ctx context.Context, f invoice.Filter) ([]storage.Invoice, error)
}

// ReportMailer delivers the exported workbook.
type ReportMailer interface {
	SendReport(ctx context.Context, to, subject, filename string, xlsx []byte) error
}

// ReportJob exports the previous month's invoices and emails them.
type ReportJob struct {
	Invoices  InvoiceLister
	Mailer    ReportMailer
	Recipient string
	// Locker, when set, keeps replicas from sending the report twice.
	Locker  storage.Locker
	Alerter *alerting.Alerter
	Log     *zap.Logger

	now func() time.Time
}

// Run executes one report cycle. A run skipped because another replica
// holds the lock returns nil.
func (j *ReportJob) Run(ctx context.Context) error {
	log := j.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	started := now()

	if j.Locker != nil {
		ok, err := j.Locker.AcquireAdvisoryLock(ctx, reportLockKey)
		if err != nil {
			log.Error("acquire advisory lock failed", zap.String("job", reportJobName), zap.Error(err))
			metrics.UpdateJobMetrics(reportJobName, started, err)
			return err
		}
		if !ok {
			log.Info("advisory lock held by another worker, skipping run", zap.String("job", reportJobName))
			return nil
		}
		defer func() {
			if _, err := j.Locker.ReleaseAdvisoryLock(ctx, reportLockKey); err != nil {
				log.Warn("release advisory lock failed", zap.Error(err))
			}
		}()
	}

	month, year := report.PreviousPeriod(started)
	runErr := j.send(ctx, month, year)
	metrics.UpdateJobMetrics(reportJobName, started, runErr)

	dur := now().Sub(started)
	if runErr != nil {
		log.Error("job completed with error",
			zap.String("job", reportJobName),
			zap.Duration("duration", dur),
			zap.Error(runErr))
		if j.Alerter != nil {
			alert := alerting.JobAlert{
				JobName:   reportJobName,
				Error:     runErr.Error(),
				Duration:  dur,
				Timestamp: now(),
			}
			if err := j.Alerter.SendJobAlert(ctx, alert); err != nil {
				log.Warn("send alert failed", zap.Error(err))
			}
		}
		return runErr
	}

	log.Info("job completed successfully",
		zap.String("job", reportJobName),
		zap.String("period", month+" "+year),
		zap.Duration("duration", dur))
	return nil
}

func (j *ReportJob) send(ctx context.Context, month, year string) error {
	invoices, err := j.Invoices.List(ctx, invoice.Filter{Month: month, Year: year})
	if err != nil {
		return fmt.Errorf("list invoices: %w", err)
	}

	var buf bytes.Buffer
	if err := report.WriteInvoices(&buf, invoices); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	subject := fmt.Sprintf("Invoice report for %s %s (%d invoices)", month, year, len(invoices))
	err = j.Mailer.SendReport(ctx, j.Recipient, subject, report.Filename(month, year), buf.Bytes())
	metrics.ObserveEmail("report", err)
	if err != nil {
		return fmt.Errorf("email report: %w", err)
	}
	return nil
}

// Scheduler runs ReportJob on a standard cron schedule.
type Scheduler struct {
	c   *cron.Cron
	log *zap.Logger
}

// NewScheduler validates schedule and registers job. schedule uses the
// five-field cron syntax, e.g. "0 6 1 * *" for 06:00 on the first of the
// month.
func NewScheduler(schedule string, job *ReportJob, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		_ = job.Run(ctx)
	}); err != nil {
		return nil, err
	}
	log.Info("report scheduler configured", zap.String("schedule", schedule), zap.String("recipient", job.Recipient))
	return &Scheduler{c: c, log: log}, nil
}

// Next reports when the job runs next. It is zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop waits for a running job to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.c.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("report job still running at shutdown")
	}
}
