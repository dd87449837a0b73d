package history

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tierpay/internal/sessions"
	"github.com/angelmondragon/tierpay/pkg/enums"
)

type stubSessions struct {
	list  []sessions.PurchaseSessionDTO
	err   error
	start time.Time
	end   time.Time
}

func (s *stubSessions) CreateCheckoutSession(ctx context.Context, input sessions.CreateSessionInput) (*sessions.CheckoutRedirectDTO, error) {
	return nil, nil
}

func (s *stubSessions) GetCheckoutSession(ctx context.Context, sessionID string) (*sessions.PurchaseSessionDTO, error) {
	return nil, nil
}

func (s *stubSessions) ListAllSessions(ctx context.Context) ([]sessions.PurchaseSessionDTO, error) {
	return s.list, s.err
}

func (s *stubSessions) ListSessionsByCustomer(ctx context.Context, customerEmail string) ([]sessions.PurchaseSessionDTO, error) {
	return s.list, s.err
}

func (s *stubSessions) ListSessionsByDateRange(ctx context.Context, start, end time.Time) ([]sessions.PurchaseSessionDTO, error) {
	s.start = start
	s.end = end
	return s.list, s.err
}

func TestSummarizeCountsPaidRevenueOnly(t *testing.T) {
	stats := Summarize([]sessions.PurchaseSessionDTO{
		{AmountTotal: 1000, PaymentStatus: enums.PaymentStatusPaid},
		{AmountTotal: 500, PaymentStatus: enums.PaymentStatusUnpaid},
		{AmountTotal: 750, PaymentStatus: enums.PaymentStatusNoPaymentRequired},
	})

	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 1, stats.PaidSessions)
	assert.Equal(t, int64(1000), stats.RevenueCents)
	assert.Equal(t, "10.00", stats.Revenue().StringFixed(2))
}

func TestWriteCSVFormatsRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []sessions.PurchaseSessionDTO{
		{
			Created:       1700000000,
			CustomerEmail: "a@b.com",
			AmountTotal:   2500,
			Currency:      "usd",
			Status:        enums.SessionStatusComplete,
			PaymentStatus: enums.PaymentStatusPaid,
		},
	}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Customer Email,Amount,Currency,Status,Payment Status", lines[0])
	assert.Contains(t, lines[1], "a@b.com,25.00,USD,complete,paid")
	assert.Contains(t, lines[1], "Nov 14, 2023")
}

func TestExportByDateRangeUsesDayBounds(t *testing.T) {
	stub := &stubSessions{
		list: []sessions.PurchaseSessionDTO{
			{Created: 1700000000, CustomerEmail: "a@b.com", AmountTotal: 2500, Currency: "usd", Status: enums.SessionStatusComplete, PaymentStatus: enums.PaymentStatusPaid},
		},
	}
	svc, err := NewService(ServiceParams{Sessions: stub})
	require.NoError(t, err)

	var buf bytes.Buffer
	stats, err := svc.ExportByDateRange(context.Background(), &buf, "2023-11-01", "2023-11-30")
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, int64(2500), stats.RevenueCents)
	assert.Equal(t, time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), stub.start)
	assert.Equal(t, time.Date(2023, 11, 30, 23, 59, 59, 0, time.UTC), stub.end)
	assert.Contains(t, buf.String(), "a@b.com")
}

func TestExportByDateRangeRejectsGarbage(t *testing.T) {
	svc, err := NewService(ServiceParams{Sessions: &stubSessions{}})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = svc.ExportByDateRange(context.Background(), &buf, "yesterday", "2023-11-30")
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}
