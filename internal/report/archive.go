package report

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"fintrack/internal/core"
)

// Archive entry names.
const (
	TransactionsCSV      = "transactions.csv"
	IncomeVsExpensesPNG  = "income_vs_expenses.png"
	ExpenseCategoriesPNG = "expense_categories.png"
	NetIncomeTrendPNG    = "net_income_trend.png"
	ReadmeTXT            = "README.txt"
)

// ExportMeta describes the request an archive was built for.
type ExportMeta struct {
	From        time.Time
	To          time.Time
	GeneratedAt time.Time
	// BaseCurrency is the stored currency of the raw transactions in the
	// CSV. Empty means the report's own currency.
	BaseCurrency string
}

// WriteArchive bundles the CSV, the three charts and a README into a zip.
func WriteArchive(w io.Writer, txns []core.Transaction, r Report, meta ExportMeta) error {
	zw := zip.NewWriter(w)

	entries := []struct {
		name   string
		render func(io.Writer) error
	}{
		{TransactionsCSV, func(w io.Writer) error { return WriteCSV(w, txns) }},
		{IncomeVsExpensesPNG, func(w io.Writer) error { return RenderIncomeVsExpenses(w, r) }},
		{ExpenseCategoriesPNG, func(w io.Writer) error { return RenderExpenseCategories(w, r) }},
		{NetIncomeTrendPNG, func(w io.Writer) error { return RenderNetIncomeTrend(w, r) }},
		{ReadmeTXT, func(w io.Writer) error { return writeReadme(w, len(txns), r, meta) }},
	}
	for _, e := range entries {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: meta.GeneratedAt,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", e.name, err)
		}
		if err := e.render(f); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	return nil
}

func writeReadme(w io.Writer, n int, r Report, meta ExportMeta) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Financial report %s to %s\n", meta.From.Format("2006-01-02"), meta.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "Generated %s\n\n", meta.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Currency:       %s\n", r.Currency)
	fmt.Fprintf(&b, "Transactions:   %d\n", n)
	fmt.Fprintf(&b, "Total income:   %s\n", r.TotalIncome)
	fmt.Fprintf(&b, "Total expenses: %s\n", r.TotalExpenses)
	fmt.Fprintf(&b, "Net income:     %s\n\n", r.NetIncome())
	csvCurrency := meta.BaseCurrency
	if csvCurrency == "" {
		csvCurrency = r.Currency
	}
	fmt.Fprintf(&b, "Files:\n")
	fmt.Fprintf(&b, "  %s  every transaction in %s; expenses are negative\n", TransactionsCSV, csvCurrency)
	fmt.Fprintf(&b, "  %s  monthly income and expense bars\n", IncomeVsExpensesPNG)
	fmt.Fprintf(&b, "  %s  expenses by category\n", ExpenseCategoriesPNG)
	fmt.Fprintf(&b, "  %s  net income per month\n", NetIncomeTrendPNG)
	switch {
	case r.Converted:
		fmt.Fprintf(&b, "\nTotals and charts are converted to %s; %s keeps the stored %s amounts.\n", r.Currency, TransactionsCSV, csvCurrency)
	case r.Currency != "":
		fmt.Fprintf(&b, "\nAmounts are in the base currency %s.\n", r.Currency)
	}
	_, err := w.Write(b.Bytes())
	return err
}
