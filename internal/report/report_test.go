package report

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func tx(date string, typ core.TransactionType, cents int64, category string) core.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{Date: d, Type: typ, Amount: core.Cents(cents), Category: category, Account: "Main"}
}

func TestBuild_MonthlyBuckets(t *testing.T) {
	txns := []core.Transaction{
		tx("2024-01-03", core.Income, 50000, "Salary"),
		tx("2024-01-20", core.Expense, 20000, "Food"),
		tx("2024-02-01", core.Income, 30000, "Salary"),
	}

	r := Build(txns)

	require.Len(t, r.Months, 2)
	assert.Equal(t, Month{Key: "2024-01", Label: "Jan 2024", Income: core.Cents(50000), Expenses: core.Cents(20000)}, r.Months[0])
	assert.Equal(t, Month{Key: "2024-02", Label: "Feb 2024", Income: core.Cents(30000), Expenses: core.Cents(0)}, r.Months[1])
	assert.Equal(t, int64(80000), r.TotalIncome.Cents)
	assert.Equal(t, int64(20000), r.TotalExpenses.Cents)

	assert.Equal(t, []string{"Jan 2024", "Feb 2024"}, r.IncomeVsExpenses.Labels)
	assert.Equal(t, []core.Money{core.Cents(50000), core.Cents(30000)}, r.IncomeVsExpenses.Income)
	assert.Equal(t, []core.Money{core.Cents(30000), core.Cents(30000)}, r.NetIncomeTrend.Values)
	assert.Equal(t, []string{"Food"}, r.ExpenseCategories.Labels)
}

func TestBuild_IdempotentAndNetMatchesTotals(t *testing.T) {
	txns := []core.Transaction{
		tx("2023-11-05", core.Expense, 1999, "Food"),
		tx("2023-12-24", core.Income, 100000, "Salary"),
		tx("2023-12-25", core.Expense, 45050, "Gifts"),
		tx("2024-01-02", core.Expense, 120000, "Rent"),
		tx("2024-01-15", core.Income, 250, "Interest"),
	}

	first := Build(txns)
	second := Build(txns)
	assert.Equal(t, first, second)

	var net int64
	for _, v := range first.NetIncomeTrend.Values {
		net += v.Cents
	}
	assert.Equal(t, first.TotalIncome.Cents-first.TotalExpenses.Cents, net)
	assert.Equal(t, first.NetIncome().Cents, net)
}

func TestBuild_BucketsFollowInsertionOrder(t *testing.T) {
	txns := []core.Transaction{
		tx("2024-03-01", core.Expense, 100, "Food"),
		tx("2024-01-01", core.Expense, 100, "Food"),
	}
	r := Build(txns)
	assert.Equal(t, []string{"Mar 2024", "Jan 2024"}, r.IncomeVsExpenses.Labels)
}

func TestBuild_Categories(t *testing.T) {
	txns := []core.Transaction{
		tx("2024-01-01", core.Expense, 100, ""),
		tx("2024-02-01", core.Expense, 300, "Food"),
		tx("2024-03-01", core.Expense, 200, "  "),
		tx("2024-03-02", core.Income, 999, "Salary"),
	}
	r := Build(txns)
	assert.Equal(t, []string{UncategorizedLabel, "Food"}, r.ExpenseCategories.Labels)
	assert.Equal(t, []core.Money{core.Cents(300), core.Cents(300)}, r.ExpenseCategories.Values)
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil)
	assert.Empty(t, r.Months)
	assert.NotNil(t, r.IncomeVsExpenses.Labels)
	assert.NotNil(t, r.ExpenseCategories.Labels)
	assert.Zero(t, r.TotalIncome.Cents)
}

type rateConverter struct {
	rate  int64
	fail  bool
	calls int
}

func (c *rateConverter) Convert(_ context.Context, m core.Money, from, to string) (core.Money, error) {
	c.calls++
	if c.fail {
		return core.Money{}, errors.New("rates unavailable")
	}
	return core.Money{Cents: m.Cents * c.rate}, nil
}

func TestConvert(t *testing.T) {
	r := Build([]core.Transaction{
		tx("2024-01-01", core.Income, 1000, "Salary"),
		tx("2024-01-02", core.Expense, 400, "Food"),
	})
	r.Currency = "USD"

	conv := &rateConverter{rate: 2}
	out, err := Convert(context.Background(), r, conv, "eur")
	require.NoError(t, err)
	assert.True(t, out.Converted)
	assert.Equal(t, "EUR", out.Currency)
	assert.Equal(t, int64(2000), out.TotalIncome.Cents)
	assert.Equal(t, int64(800), out.TotalExpenses.Cents)
	assert.Equal(t, int64(1200), out.NetIncomeTrend.Values[0].Cents)
	assert.Equal(t, int64(800), out.Months[0].Expenses.Cents)
	assert.Equal(t, int64(1000), r.TotalIncome.Cents, "input must not be mutated")

	same, err := Convert(context.Background(), r, conv, "usd")
	require.NoError(t, err)
	assert.False(t, same.Converted)

	_, err = Convert(context.Background(), r, &rateConverter{fail: true}, "EUR")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	txns := []core.Transaction{
		{Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Type: core.Expense, Amount: core.Cents(1250), Category: "Food", Subcategory: "Groceries", Account: "Card", Description: "weekly, shop"},
		{Date: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), Type: core.Income, Amount: core.Cents(100000), Category: "Salary", Account: "Bank"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txns))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Date", "Type", "Category", "Subcategory", "Amount", "Account", "Description"}, rows[0])
	assert.Equal(t, []string{"1/5/2024", "EXPENSE", "Food", "Groceries", "-12.50", "Card", "weekly, shop"}, rows[1])
	assert.Equal(t, []string{"12/25/2024", "INCOME", "Salary", "", "1000.00", "Bank", ""}, rows[2])
}

func TestWriteArchive(t *testing.T) {
	txns := []core.Transaction{
		tx("2024-01-03", core.Income, 50000, "Salary"),
		tx("2024-01-20", core.Expense, 20000, "Food"),
		tx("2024-02-01", core.Expense, 7000, "Transport"),
	}
	r := Build(txns)
	r.Currency = "USD"

	var buf bytes.Buffer
	meta := ExportMeta{
		From:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, WriteArchive(&buf, txns, r, meta))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = b
	}

	require.Len(t, files, 5)
	pngMagic := []byte("\x89PNG")
	for _, name := range []string{IncomeVsExpensesPNG, ExpenseCategoriesPNG, NetIncomeTrendPNG} {
		assert.True(t, bytes.HasPrefix(files[name], pngMagic), "%s is not a PNG", name)
	}
	assert.Contains(t, string(files[ReadmeTXT]), "Total income:   500.00")
	assert.Contains(t, string(files[ReadmeTXT]), "2024-01-01 to 2024-02-29")
	assert.Contains(t, string(files[TransactionsCSV]), "EXPENSE")
}

func readArchive(t *testing.T, b []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)

	files := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = data
	}
	return files
}

func TestWriteArchive_SingleMonthAndEmpty(t *testing.T) {
	meta := ExportMeta{
		From:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		name string
		txns []core.Transaction
	}{
		{"single month", []core.Transaction{
			tx("2024-01-03", core.Income, 50000, "Salary"),
			tx("2024-01-20", core.Expense, 20000, "Food"),
		}},
		{"no transactions", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Build(tt.txns)
			r.Currency = "USD"

			var buf bytes.Buffer
			require.NoError(t, WriteArchive(&buf, tt.txns, r, meta))
			files := readArchive(t, buf.Bytes())
			require.Len(t, files, 5)
			assert.True(t, bytes.HasPrefix(files[NetIncomeTrendPNG], []byte("\x89PNG")))
		})
	}
}

func TestWriteArchive_ReadmeNamesCSVCurrency(t *testing.T) {
	txns := []core.Transaction{tx("2024-01-03", core.Expense, 1000, "Food")}
	r, err := Convert(context.Background(), func() Report {
		r := Build(txns)
		r.Currency = "USD"
		return r
	}(), &rateConverter{rate: 2}, "EUR")
	require.NoError(t, err)

	var buf bytes.Buffer
	meta := ExportMeta{
		From:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		BaseCurrency: "USD",
	}
	require.NoError(t, WriteArchive(&buf, txns, r, meta))

	readme := string(readArchive(t, buf.Bytes())[ReadmeTXT])
	assert.Contains(t, readme, "Currency:       EUR")
	assert.Contains(t, readme, TransactionsCSV+"  every transaction in USD")
	assert.Contains(t, readme, "converted to EUR")
}

func TestCharts_SingleMonth(t *testing.T) {
	r := Build([]core.Transaction{tx("2024-01-03", core.Income, 1050, "Salary")})
	var buf bytes.Buffer
	require.NoError(t, RenderNetIncomeTrend(&buf, r))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestCharts_EmptyReport(t *testing.T) {
	r := Build(nil)
	for name, render := range map[string]func(io.Writer, Report) error{
		"bar":  RenderIncomeVsExpenses,
		"pie":  RenderExpenseCategories,
		"line": RenderNetIncomeTrend,
	} {
		var buf bytes.Buffer
		assert.NoError(t, render(&buf, r), name)
	}
}

func TestRows(t *testing.T) {
	r := Build([]core.Transaction{tx("2024-01-03", core.Income, 1050, "Salary")})
	rows := r.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []any{"Jan 2024", 10.5, 0.0, 10.5}, rows[1])
	assert.Equal(t, "Total", rows[2][0])
}
