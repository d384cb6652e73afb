package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pivolan/go_utils"
)

var (
	ErrMissingColumn = errors.New("required column missing")
	ErrInvalidValue  = errors.New("invalid value")
	ErrMalformed     = errors.New("malformed file")
)

// ParseError points at the file, line and column that could not be read.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value %q", e.Value)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DerivedDate builds Column as the first day of Year/Month.
type DerivedDate struct {
	Column string
	Year   string
	Month  string
}

// Options controls how a delimited file is read. Column names refer to normalised headers.
type Options struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// SkipRows lines are discarded before the header; SkipFooter records are dropped at the end.
	SkipRows   int
	SkipFooter int
	// Types maps a column to its kind; unlisted columns stay strings.
	Types map[string]Kind
	// DateLayouts overrides the "2006-01-02" layout per date column.
	DateLayouts map[string]string
	// NullValues are sentinels read as null. Empty fields are always null.
	NullValues []string
	// TraceValues maps a numeric column to markers read as a trace amount (0, Trace=true).
	TraceValues  map[string][]string
	Required     []string
	DerivedDates []DerivedDate
}

// Load reads path (or a compressed sibling of it) into a Table.
func Load(path string, opts Options) (*Table, error) {
	rc, source, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := Read(rc, opts)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = source
		}
		return nil, err
	}
	t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return t, nil
}

type rawRow struct {
	line   int
	fields []string
}

// Read parses delimited text from r.
func Read(r io.Reader, opts Options) (*Table, error) {
	br := bufio.NewReader(r)
	for i := 0; i < opts.SkipRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, &ParseError{Line: i + 1, Err: fmt.Errorf("%w: expected %d leading rows to skip", ErrMalformed, opts.SkipRows)}
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = ','
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.LazyQuotes = true

	headerRow, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: opts.SkipRows + 1, Err: fmt.Errorf("%w: no header row", ErrMalformed)}
		}
		return nil, csvError(err, opts.SkipRows)
	}
	headers := NormalizeHeaders(headerRow)
	cr.FieldsPerRecord = len(headerRow)

	for _, name := range opts.Required {
		if !go_utils.InArray(name, headers) {
			return nil, &ParseError{Line: opts.SkipRows + 1, Column: name, Err: ErrMissingColumn}
		}
	}

	var rows []rawRow
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err, opts.SkipRows)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, rawRow{line: opts.SkipRows + line, fields: fields})
	}
	if opts.SkipFooter > 0 {
		if opts.SkipFooter >= len(rows) {
			rows = nil
		} else {
			rows = rows[:len(rows)-opts.SkipFooter]
		}
	}

	t := &Table{Columns: headers, Records: make([]Record, 0, len(rows))}
	for _, row := range rows {
		rec := make(Record, len(headers))
		for i, name := range headers {
			v, err := parseField(name, row.fields[i], opts)
			if err != nil {
				return nil, &ParseError{Line: row.line, Column: name, Value: row.fields[i], Err: err}
			}
			rec[name] = v
		}
		for _, d := range opts.DerivedDates {
			v, err := deriveDate(rec, d)
			if err != nil {
				return nil, &ParseError{Line: row.line, Column: d.Column, Err: err}
			}
			rec[d.Column] = v
		}
		t.Records = append(t.Records, rec)
	}
	for _, d := range opts.DerivedDates {
		if !t.HasColumn(d.Column) {
			t.Columns = append(t.Columns, d.Column)
		}
	}
	return t, nil
}

func csvError(err error, skipped int) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &ParseError{Line: skipped + ce.Line, Err: fmt.Errorf("%w: %v", ErrMalformed, ce.Err)}
	}
	return &ParseError{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
}

func parseField(column, raw string, opts Options) (Value, error) {
	kind := opts.Types[column]
	field := strings.TrimSpace(raw)
	if field == "" || go_utils.InArray(field, opts.NullValues) {
		return NullValue(kind, raw), nil
	}

	switch kind {
	case KindNumber:
		if go_utils.InArray(field, opts.TraceValues[column]) {
			return Value{Kind: KindNumber, Num: 0, Trace: true, Raw: raw}, nil
		}
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: not a number", ErrInvalidValue)
		}
		if math.IsNaN(f) {
			return NullValue(kind, raw), nil
		}
		if math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("%w: infinite", ErrInvalidValue)
		}
		return Value{Kind: KindNumber, Num: f, Raw: raw}, nil
	case KindDate:
		layout := dateLayout
		if l, ok := opts.DateLayouts[column]; ok {
			layout = l
		}
		ts, err := time.Parse(layout, field)
		if err != nil {
			return Value{}, fmt.Errorf("%w: not a date in layout %s", ErrInvalidValue, layout)
		}
		return Value{Kind: KindDate, Time: ts, Raw: raw}, nil
	default:
		return Value{Kind: KindString, Str: field, Raw: raw}, nil
	}
}

func deriveDate(rec Record, d DerivedDate) (Value, error) {
	year, month := rec[d.Year], rec[d.Month]
	if year.Null || month.Null {
		return NullValue(KindDate, ""), nil
	}
	if year.Kind != KindNumber || month.Kind != KindNumber {
		return Value{}, fmt.Errorf("%w: %s and %s must be numeric", ErrInvalidValue, d.Year, d.Month)
	}
	if year.Num != math.Trunc(year.Num) || month.Num != math.Trunc(month.Num) {
		return Value{}, fmt.Errorf("%w: year %v month %v not whole numbers", ErrInvalidValue, year.Num, month.Num)
	}
	if month.Num < 1 || month.Num > 12 {
		return Value{}, fmt.Errorf("%w: month %v outside 1-12", ErrInvalidValue, month.Num)
	}
	return DateValue(time.Date(int(year.Num), time.Month(int(month.Num)), 1, 0, 0, 0, 0, time.UTC)), nil
}
