package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parse errors
var (
	ErrEmptyStatement  = errors.New("statement file is empty")
	ErrColumnsNotFound = errors.New("could not detect date and balance columns in header")
	ErrMalformedCSV    = errors.New("statement is not valid CSV")
)

// Header aliases the column sniffer recognizes, lowercased. Banks disagree on
// naming; the sniffer matches the first alias found per concern.
var (
	dateAliases = []string{
		"date", "transaction date", "value date", "booking date",
		"data", "data valor", "datum", "fecha",
	}
	descriptionAliases = []string{
		"description", "details", "memo", "narrative", "name",
		"descricao", "descrição", "concepto",
	}
	amountAliases = []string{
		"amount", "value", "transaction amount", "debit/credit",
		"valor", "montante", "importe",
	}
	balanceAliases = []string{
		"balance", "running balance", "balance after", "closing balance",
		"saldo", "saldo final",
	}
)

// Date layouts tried in order when parsing statement dates.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"02.01.2006",
	"2 Jan 2006",
}

// Row is one successfully parsed statement line.
type Row struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Balance     decimal.Decimal
	Line        int
}

// RowError records a line that could not be parsed. Parsing continues past
// bad lines so one typo does not reject a whole statement.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

type columns struct {
	date        int
	description int
	amount      int
	balance     int
}

// Parse reads a bank-exported CSV statement. The header row is sniffed for
// date/description/amount/balance columns; the delimiter is detected from the
// header line. Rows come back in file order, which the importer preserves as
// arrival order.
func Parse(r io.Reader) ([]Row, []RowError, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read statement: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil, ErrEmptyStatement
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = detectDelimiter(string(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}

	cols, err := sniffColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var rows []Row
	var rowErrs []RowError
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}

		row, err := parseRecord(record, cols, line)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		rows = append(rows, row)
	}

	return rows, rowErrs, nil
}

// detectDelimiter picks the separator that appears most in the header line.
func detectDelimiter(raw string) rune {
	firstLine := raw
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		firstLine = raw[:idx]
	}

	best, bestCount := ',', strings.Count(firstLine, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := strings.Count(firstLine, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

// sniffColumns matches header cells against the known aliases. Date and
// balance are required; description and amount are optional extras.
func sniffColumns(header []string) (columns, error) {
	cols := columns{date: -1, description: -1, amount: -1, balance: -1}

	for i, cell := range header {
		name := normalizeHeader(cell)
		switch {
		case cols.date == -1 && matchesAlias(name, dateAliases):
			cols.date = i
		case cols.balance == -1 && matchesAlias(name, balanceAliases):
			cols.balance = i
		case cols.amount == -1 && matchesAlias(name, amountAliases):
			cols.amount = i
		case cols.description == -1 && matchesAlias(name, descriptionAliases):
			cols.description = i
		}
	}

	if cols.date == -1 || cols.balance == -1 {
		return cols, ErrColumnsNotFound
	}
	return cols, nil
}

func normalizeHeader(cell string) string {
	name := strings.TrimSpace(strings.ToLower(cell))
	return strings.TrimPrefix(name, "\ufeff")
}

func matchesAlias(name string, aliases []string) bool {
	for _, alias := range aliases {
		if name == alias {
			return true
		}
	}
	return false
}

func parseRecord(record []string, cols columns, line int) (Row, error) {
	row := Row{Line: line}

	if cols.date >= len(record) || cols.balance >= len(record) {
		return row, fmt.Errorf("too few fields (%d)", len(record))
	}

	date, err := parseDate(record[cols.date])
	if err != nil {
		return row, err
	}
	row.Date = date

	balance, err := parseDecimal(record[cols.balance])
	if err != nil {
		return row, fmt.Errorf("bad balance: %w", err)
	}
	row.Balance = balance

	if cols.amount != -1 && cols.amount < len(record) && strings.TrimSpace(record[cols.amount]) != "" {
		amount, err := parseDecimal(record[cols.amount])
		if err != nil {
			return row, fmt.Errorf("bad amount: %w", err)
		}
		row.Amount = amount
	}

	if cols.description != -1 && cols.description < len(record) {
		row.Description = strings.TrimSpace(record[cols.description])
	}

	return row, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseDecimal handles both decimal-comma ("1.234,56") and decimal-point
// ("1,234.56") locales. When both separators appear, the last one wins as the
// decimal mark.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")

	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		// 1234,56
		s = strings.Replace(s, ",", ".", 1)
	}

	return decimal.NewFromString(s)
}
