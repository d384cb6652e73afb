package dataset

import (
	"strconv"
	"time"
)

// Kind is the type a column is parsed into.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Value is a single parsed field.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
	// Null is set for sentinel or empty fields. Trace is set for a numeric field recorded as
	// a trace amount: it carries Num == 0 but is not null.
	Null  bool
	Trace bool
	// Raw is the field as it appeared in the file.
	Raw string
}

func StringValue(s string) Value {
	return Value{Kind: KindString, Str: s, Raw: s}
}

func NumberValue(f float64) Value {
	return Value{Kind: KindNumber, Num: f, Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Time: t, Raw: t.Format(dateLayout)}
}

func NullValue(kind Kind, raw string) Value {
	return Value{Kind: kind, Null: true, Raw: raw}
}

const dateLayout = "2006-01-02"

// Key is the canonical grouping key of the value.
// Numbers drop trailing zeros so 1 and 1.0 collide; nulls share the empty key.
func (v Value) Key() string {
	if v.Null {
		return ""
	}
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindDate:
		return v.Time.Format(dateLayout)
	default:
		return v.Str
	}
}

// Less orders values of the same kind; nulls sort last.
func (v Value) Less(o Value) bool {
	if v.Null != o.Null {
		return !v.Null
	}
	if v.Kind != o.Kind {
		return v.Kind < o.Kind
	}
	switch v.Kind {
	case KindNumber:
		return v.Num < o.Num
	case KindDate:
		return v.Time.Before(o.Time)
	default:
		return v.Str < o.Str
	}
}

// Record is one row: column name to value.
type Record map[string]Value

// Table is an ordered set of records sharing Columns.
type Table struct {
	Name    string
	Columns []string
	Records []Record
}

func (t *Table) Len() int {
	return len(t.Records)
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column returns every value of one column in record order.
func (t *Table) Column(name string) []Value {
	out := make([]Value, len(t.Records))
	for i, r := range t.Records {
		out[i] = r[name]
	}
	return out
}
