package history

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tierpay/internal/sessions"
	"github.com/angelmondragon/tierpay/pkg/enums"
	"github.com/angelmondragon/tierpay/pkg/logger"
)

// Stats summarizes a slice of purchase sessions. Revenue counts paid
// sessions only; abandoned and unpaid sessions contribute to the total count
// but not the money.
type Stats struct {
	TotalSessions int
	PaidSessions  int
	RevenueCents  int64
}

// Revenue returns the paid revenue in major units.
func (s Stats) Revenue() decimal.Decimal {
	return decimal.NewFromInt(s.RevenueCents).Div(decimal.NewFromInt(100))
}

// Service produces admin views over the purchase history.
type Service interface {
	ExportByDateRange(ctx context.Context, w io.Writer, startDate, endDate string) (Stats, error)
}

// ServiceParams carries dependencies for NewService.
type ServiceParams struct {
	Sessions sessions.Service
	Logger   *logger.Logger
}

type service struct {
	sessions sessions.Service
	logg     *logger.Logger
}

// NewService wires the history service.
func NewService(params ServiceParams) (Service, error) {
	if params.Sessions == nil {
		return nil, errors.New("sessions service is required")
	}
	return &service{sessions: params.Sessions, logg: params.Logger}, nil
}

// Summarize folds a session list into totals.
func Summarize(list []sessions.PurchaseSessionDTO) Stats {
	stats := Stats{TotalSessions: len(list)}
	for _, session := range list {
		if session.PaymentStatus != enums.PaymentStatusPaid {
			continue
		}
		stats.PaidSessions++
		stats.RevenueCents += session.AmountTotal
	}
	return stats
}

var csvHeader = []string{"Date", "Customer Email", "Amount", "Currency", "Status", "Payment Status"}

// WriteCSV renders the session list as a spreadsheet-friendly export.
func WriteCSV(w io.Writer, list []sessions.PurchaseSessionDTO) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, session := range list {
		record := []string{
			formatDate(session.Created),
			session.CustomerEmail,
			formatAmount(session.AmountTotal),
			strings.ToUpper(session.Currency),
			session.Status.String(),
			session.PaymentStatus.String(),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportByDateRange fetches the sessions for the window, writes the CSV and
// returns the summary for the same rows.
func (s *service) ExportByDateRange(ctx context.Context, w io.Writer, startDate, endDate string) (Stats, error) {
	start, end, err := sessions.ParseDateRange(startDate, endDate)
	if err != nil {
		return Stats{}, err
	}
	list, err := s.sessions.ListSessionsByDateRange(ctx, start, end)
	if err != nil {
		return Stats{}, err
	}
	if err := WriteCSV(w, list); err != nil {
		return Stats{}, err
	}
	stats := Summarize(list)
	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"sessions": stats.TotalSessions,
			"paid":     stats.PaidSessions,
		})
		s.logg.Info(lctx, "history.export_complete")
	}
	return stats, nil
}

func formatDate(created int64) string {
	return time.Unix(created, 0).UTC().Format("Jan 2, 2006")
}

func formatAmount(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
