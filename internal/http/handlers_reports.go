package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/services"
)

// reportQuery reads startDate, endDate and the optional display currency.
func reportQuery(r *http.Request) (services.ReportQuery, error) {
	dr, err := ParseDateRange(r.URL.Query())
	if err != nil {
		return services.ReportQuery{}, err
	}
	return services.ReportQuery{
		From:     dr.From,
		To:       dr.To,
		Currency: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency"))),
	}, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	rep, err := s.deps.Reports.Generate(r.Context(), userID(r), q)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

// handleReportExport buffers the archive so that a failure part way
// through still yields a JSON error instead of a truncated zip.
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	var buf bytes.Buffer
	if err := s.deps.Reports.Export(r.Context(), userID(r), q, &buf); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	name := fmt.Sprintf("fintrack-report-%s-%s.zip", q.From.Format(dateLayout), q.To.Format(dateLayout))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleReportSheets(w http.ResponseWriter, r *http.Request) {
	q, err := reportQuery(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := s.deps.Reports.WriteToSheets(r.Context(), userID(r), q); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Message("report written to google sheets").Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
	d, err := s.deps.Dashboard.Get(r.Context(), userID(r), currency)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(d).Write(w)
}

type conversion struct {
	Amount    core.Money `json:"amount"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Converted core.Money `json:"converted"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
	if from == "" || to == "" {
		writeError(w, r, s.logger, core.Validation("from and to are required", nil))
		return
	}
	cents, err := core.ParseDecimalToCents(q.Get("amount"))
	if err != nil {
		writeError(w, r, s.logger, core.Validation("amount must be a positive number", err))
		return
	}
	if s.deps.Converter == nil {
		writeError(w, r, s.logger, core.BadRequest("currency conversion is not configured", nil))
		return
	}

	amount := core.Cents(cents)
	out, err := s.deps.Converter.Convert(r.Context(), amount, from, to)
	if err != nil {
		if errors.Is(err, currency.ErrUnknownCurrency) || errors.Is(err, core.ErrInvalidAmount) {
			err = core.Validation("", err)
		} else if core.KindOf(err) == core.KindInternal {
			err = core.Internal("convert currency", err)
		}
		writeError(w, r, s.logger, err)
		return
	}
	NewJSONResponse().Data(conversion{Amount: amount, From: from, To: to, Converted: out}).Write(w)
}
