package cron

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bher20/copierbill/internal/alerting"
	"github.com/bher20/copierbill/internal/invoice"
	"github.com/bher20/copierbill/internal/storage"
)

type stubLister struct {
	filter   invoice.Filter
	invoices []storage.Invoice
	err      error
}

func (s *stubLister) List(ctx context.Context, f invoice.Filter) ([]storage.Invoice, error) {
	s.filter = f
	return s.invoices, s.err
}

type stubMailer struct {
	calls    int
	to       string
	subject  string
	filename string
	size     int
	err      error
}

func (m *stubMailer) SendReport(ctx context.Context, to, subject, filename string, xlsx []byte) error {
	m.calls++
	m.to, m.subject, m.filename, m.size = to, subject, filename, len(xlsx)
	return m.err
}

type stubLocker struct {
	held     bool
	released bool
}

func (l *stubLocker) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return !l.held, nil
}

func (l *stubLocker) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	l.released = true
	return true, nil
}

func fixedNow() time.Time { return time.Date(2026, 4, 1, 6, 0, 0, 0, time.UTC) }

func TestReportJob_SendsPreviousMonth(t *testing.T) {
	lister := &stubLister{invoices: []storage.Invoice{{ID: "1", Month: "March", Year: "2026", TotalDue: "90.00"}}}
	mailer := &stubMailer{}
	locker := &stubLocker{}
	job := &ReportJob{Invoices: lister, Mailer: mailer, Recipient: "owner@copiers.test", Locker: locker, now: fixedNow}

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, invoice.Filter{Month: "March", Year: "2026"}, lister.filter)
	assert.Equal(t, 1, mailer.calls)
	assert.Equal(t, "owner@copiers.test", mailer.to)
	assert.Equal(t, "invoices_2026_March.xlsx", mailer.filename)
	assert.Contains(t, mailer.subject, "March 2026")
	assert.Greater(t, mailer.size, 0)
	assert.True(t, locker.released)
}

func TestReportJob_SkipsWhenLockHeld(t *testing.T) {
	mailer := &stubMailer{}
	job := &ReportJob{Invoices: &stubLister{}, Mailer: mailer, Locker: &stubLocker{held: true}, now: fixedNow}
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, mailer.calls)
}

func TestReportJob_FailureRaisesAlert(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	job := &ReportJob{
		Invoices: &stubLister{},
		Mailer:   &stubMailer{err: errors.New("email not configured or disabled")},
		Alerter:  alerting.NewAlerter(alerting.NewAlertConfig(srv.URL, "generic"), nil),
		now:      fixedNow,
	}
	err := job.Run(context.Background())
	assert.ErrorContains(t, err, "email report")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestReportJob_ListError(t *testing.T) {
	job := &ReportJob{Invoices: &stubLister{err: errors.New("db gone")}, Mailer: &stubMailer{}, now: fixedNow}
	assert.ErrorContains(t, job.Run(context.Background()), "list invoices")
}

func TestNewScheduler(t *testing.T) {
	job := &ReportJob{Invoices: &stubLister{}, Mailer: &stubMailer{}}

	_, err := NewScheduler("not a schedule", job, nil)
	assert.Error(t, err)

	s, err := NewScheduler("0 6 1 * *", job, nil)
	require.NoError(t, err)
	s.Start()
	next := s.Next()
	assert.Equal(t, 1, next.Day())
	assert.Equal(t, 6, next.Hour())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
