// Package http exposes the finance services as a JSON API.
//
// This file holds the helpers that turn query strings and bodies into
// service inputs.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

// DateRange holds the inclusive bounds from startDate and endDate.
// A bound left empty in the query stays zero.
type DateRange struct {
	From time.Time
	To   time.Time
}

// parseDate accepts a calendar date or an RFC3339 timestamp.
func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, false, nil
}

// ParseDateRange reads startDate and endDate. A plain endDate covers the
// whole day.
func ParseDateRange(query url.Values) (DateRange, error) {
	var dr DateRange

	from, _, err := parseDate(query.Get("startDate"))
	if err != nil {
		return dr, core.BadRequest("startDate: "+err.Error(), nil)
	}
	to, dayOnly, err := parseDate(query.Get("endDate"))
	if err != nil {
		return dr, core.BadRequest("endDate: "+err.Error(), nil)
	}
	if dayOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	dr.From, dr.To = from, to
	return dr, nil
}

// ParseTransactionFilter reads the list filters of GET /api/transactions.
func ParseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	dr, err := ParseDateRange(query)
	if err != nil {
		return core.TransactionFilter{}, err
	}
	f := core.TransactionFilter{
		From:     dr.From,
		To:       dr.To,
		Category: sanitizeInput(query.Get("category")),
	}
	if v := strings.TrimSpace(query.Get("type")); v != "" {
		f.Type = core.TransactionType(strings.ToLower(v))
		if !f.Type.Valid() {
			return core.TransactionFilter{}, core.BadRequest(core.ErrInvalidType.Error(), nil)
		}
	}
	return f, nil
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.BadRequest("request body is empty", nil)
		case errors.As(err, &maxErr):
			return core.BadRequest("request body too large", nil)
		case errors.Is(err, core.ErrInvalidAmount):
			return core.Validation("", err)
		default:
			return core.BadRequest("malformed JSON body", err)
		}
	}
	if dec.More() {
		return core.BadRequest("request body must contain a single JSON object", nil)
	}
	return nil
}

// transactionRequest is the wire form of a transaction write; date may be
// a calendar date or a timestamp.
type transactionRequest struct {
	Amount      core.Money           `json:"amount"`
	Type        core.TransactionType `json:"type"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory"`
	Account     string               `json:"account"`
	Date        string               `json:"date"`
	Description string               `json:"description"`
}

func (req transactionRequest) input() (services.TransactionInput, error) {
	date, _, err := parseDate(req.Date)
	if err != nil {
		return services.TransactionInput{}, core.Validation("date: "+err.Error(), nil)
	}
	return services.TransactionInput{
		Amount:      req.Amount,
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(string(req.Type)))),
		Category:    sanitizeInput(req.Category),
		Subcategory: sanitizeInput(req.Subcategory),
		Account:     sanitizeInput(req.Account),
		Date:        date,
		Description: sanitizeInput(req.Description),
	}, nil
}

// sanitizeInput trims surrounding space and drops control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\t') || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
