package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/core"
)

var csvHeader = []string{"Date", "Type", "Category", "Subcategory", "Amount", "Account", "Description"}

// CSVDateLayout renders dates the way a US-locale date string does.
const CSVDateLayout = "1/2/2006"

// WriteCSV writes one row per transaction with expenses as negative amounts.
func WriteCSV(w io.Writer, txns []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txns {
		row := []string{
			t.Date.Format(CSVDateLayout),
			strings.ToUpper(string(t.Type)),
			t.Category,
			t.Subcategory,
			core.Money{Cents: t.SignedCents()}.String(),
			t.Account,
			t.Description,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
