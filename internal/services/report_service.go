package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/report"
)

// ReportQuery selects the transactions a report covers. Both bounds are
// inclusive and required.
type ReportQuery struct {
	From     time.Time
	To       time.Time
	Currency string
}

func (q ReportQuery) validate() error {
	if q.From.IsZero() || q.To.IsZero() {
		return core.Validation("startDate and endDate are required", nil)
	}
	if q.To.Before(q.From) {
		return core.Validation("endDate must not be before startDate", nil)
	}
	return nil
}

// ReportService loads a user's transactions for a range and aggregates
// them. Conversion is an enrichment: when it fails the report is served
// in the base currency with Converted unset.
type ReportService struct {
	txns           ports.TransactionStore
	converter      ports.Converter
	sink           ports.ReportSink
	baseCurrency   string
	convertTimeout time.Duration
	now            func() time.Time
	logger         *slog.Logger
}

type ReportServiceConfig struct {
	BaseCurrency   string
	ConvertTimeout time.Duration
}

// NewReportService wires the aggregator. sink may be nil when no
// spreadsheet is configured.
func NewReportService(txns ports.TransactionStore, converter ports.Converter, sink ports.ReportSink, cfg ReportServiceConfig, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "USD"
	}
	if cfg.ConvertTimeout <= 0 {
		cfg.ConvertTimeout = 5 * time.Second
	}
	return &ReportService{
		txns:           txns,
		converter:      converter,
		sink:           sink,
		baseCurrency:   strings.ToUpper(cfg.BaseCurrency),
		convertTimeout: cfg.ConvertTimeout,
		now:            time.Now,
		logger:         logger.With(log.FieldComponent, log.ComponentReport),
	}
}

// SheetsEnabled reports whether WriteToSheets has somewhere to write.
func (s *ReportService) SheetsEnabled() bool { return s.sink != nil }

// Generate builds the report for q.
func (s *ReportService) Generate(ctx context.Context, userID string, q ReportQuery) (report.Report, error) {
	r, _, err := s.build(ctx, userID, q)
	return r, err
}

// Export writes the zip bundle for q to w.
func (s *ReportService) Export(ctx context.Context, userID string, q ReportQuery, w io.Writer) error {
	r, txns, err := s.build(ctx, userID, q)
	if err != nil {
		return err
	}
	meta := report.ExportMeta{From: q.From, To: q.To, GeneratedAt: s.now(), BaseCurrency: s.baseCurrency}
	if err := report.WriteArchive(w, txns, r, meta); err != nil {
		return core.Internal("write report archive", err)
	}
	s.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldUserID, userID,
		"transactions", len(txns))
	return nil
}

// WriteToSheets sends the monthly table for q to the configured spreadsheet.
func (s *ReportService) WriteToSheets(ctx context.Context, userID string, q ReportQuery) error {
	if s.sink == nil {
		return core.BadRequest("google sheets export is not configured", nil)
	}
	r, _, err := s.build(ctx, userID, q)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("Report %s to %s (%s)", q.From.Format("2006-01-02"), q.To.Format("2006-01-02"), r.Currency)
	if err := s.sink.WriteReport(ctx, title, r.Rows()); err != nil {
		return core.Internal("write report to sheets", err)
	}
	return nil
}

func (s *ReportService) build(ctx context.Context, userID string, q ReportQuery) (report.Report, []core.Transaction, error) {
	if err := q.validate(); err != nil {
		return report.Report{}, nil, err
	}

	txns, err := s.txns.ListTransactions(ctx, userID, core.TransactionFilter{From: q.From, To: q.To})
	if err != nil {
		return report.Report{}, nil, core.Internal("list transactions", err)
	}
	chronological(txns)

	r := report.Build(txns)
	r.Currency = s.baseCurrency
	return s.convert(ctx, r, q.Currency), txns, nil
}

func (s *ReportService) convert(ctx context.Context, r report.Report, target string) report.Report {
	if s.converter == nil || target == "" {
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, s.convertTimeout)
	defer cancel()

	converted, err := report.Convert(ctx, r, s.converter, target)
	if err != nil {
		s.logger.WarnContext(ctx, "Currency conversion failed, serving base currency",
			log.FieldOperation, log.OpConvert,
			log.FieldCurrency, strings.ToUpper(target),
			log.FieldError, err.Error())
		return r
	}
	return converted
}

// chronological sorts txns by date, then by creation, oldest first. The
// aggregator buckets by first occurrence and relies on this order.
func chronological(txns []core.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].CreatedAt.Before(txns[j].CreatedAt)
	})
}
