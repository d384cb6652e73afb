package reshape

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pivolan/climate_charts/dataset"
	"github.com/pivolan/climate_charts/domain/models"
)

var (
	ErrOutsideAxis    = errors.New("key outside axis domain")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrNotNumeric     = errors.New("column is not numeric")
)

func requireColumns(op string, t *dataset.Table, names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return fmt.Errorf("%s: %w: %s", op, dataset.ErrMissingColumn, name)
		}
	}
	return nil
}

type group struct {
	keys   []dataset.Value
	values []float64
}

// GroupBy groups records by the composite of keys and reduces valueCol with agg (Mean when nil).
// The result has one record per group, ordered by key. Null values do not contribute; a group
// without any contributing value gets a null aggregate.
func GroupBy(t *dataset.Table, keys []string, valueCol string, agg AggFunc) (*dataset.Table, error) {
	if agg == nil {
		agg = Mean
	}
	if err := requireColumns("group by", t, append(append([]string{}, keys...), valueCol)...); err != nil {
		return nil, err
	}

	index := make(map[string]*group)
	var groups []*group
	for _, rec := range t.Records {
		kv := make([]dataset.Value, len(keys))
		parts := make([]string, len(keys))
		skip := false
		for i, k := range keys {
			kv[i] = rec[k]
			if kv[i].Null {
				skip = true
				break
			}
			parts[i] = kv[i].Key()
		}
		if skip {
			continue
		}
		composite := strings.Join(parts, "\x1f")
		g, ok := index[composite]
		if !ok {
			g = &group{keys: kv}
			index[composite] = g
			groups = append(groups, g)
		}
		v := rec[valueCol]
		if v.Null {
			continue
		}
		if v.Kind != dataset.KindNumber {
			return nil, fmt.Errorf("group by: %w: %s", ErrNotNumeric, valueCol)
		}
		g.values = append(g.values, v.Num)
	}
	if len(groups) == 0 {
		return nil, &EmptyResultError{Op: "group by", Detail: fmt.Sprintf("no rows with non-null %s", strings.Join(keys, ", "))}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].keys, groups[j].keys
		for n := range a {
			if a[n].Less(b[n]) {
				return true
			}
			if b[n].Less(a[n]) {
				return false
			}
		}
		return false
	})

	out := &dataset.Table{
		Name:    t.Name,
		Columns: append(append([]string{}, keys...), valueCol),
		Records: make([]dataset.Record, 0, len(groups)),
	}
	for _, g := range groups {
		rec := make(dataset.Record, len(keys)+1)
		for i, k := range keys {
			rec[k] = g.keys[i]
		}
		rec[valueCol] = aggregateValue(agg, g.values)
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func aggregateValue(agg AggFunc, values []float64) dataset.Value {
	v, ok := agg(values)
	if !ok {
		return dataset.NullValue(dataset.KindNumber, "")
	}
	cell := models.NewCell(v)
	if !cell.Valid {
		return dataset.NullValue(dataset.KindNumber, "")
	}
	return dataset.NumberValue(cell.Value)
}

// AxisFromColumn collects the distinct non-null values of col in ascending order.
func AxisFromColumn(t *dataset.Table, col string) models.Axis {
	seen := make(map[string]bool)
	var values []dataset.Value
	for _, rec := range t.Records {
		v := rec[col]
		if v.Null || seen[v.Key()] {
			continue
		}
		seen[v.Key()] = true
		values = append(values, v)
	}
	sort.SliceStable(values, func(i, j int) bool { return values[i].Less(values[j]) })
	keys := make([]string, len(values))
	for i, v := range values {
		keys[i] = v.Key()
	}
	return models.NewAxis(col, keys)
}

// Pivot places each long-format record into the rows x cols matrix. Pairs without a record
// stay null. Keys missing from an axis and repeated pairs are errors.
func Pivot(long *dataset.Table, rowCol, colCol, valueCol string, rows, cols models.Axis) (*models.Matrix, error) {
	if err := requireColumns("pivot", long, rowCol, colCol, valueCol); err != nil {
		return nil, err
	}
	m := models.NewMatrix(long.Name, rows, cols)
	filled := make([][]bool, rows.Len())
	for i := range filled {
		filled[i] = make([]bool, cols.Len())
	}

	for _, rec := range long.Records {
		rv, cv := rec[rowCol], rec[colCol]
		if rv.Null || cv.Null {
			continue
		}
		i, ok := rows.Index(rv.Key())
		if !ok {
			return nil, fmt.Errorf("pivot: %w: %s=%s", ErrOutsideAxis, rowCol, rv.Key())
		}
		j, ok := cols.Index(cv.Key())
		if !ok {
			return nil, fmt.Errorf("pivot: %w: %s=%s", ErrOutsideAxis, colCol, cv.Key())
		}
		if filled[i][j] {
			return nil, fmt.Errorf("pivot: %w: %s=%s, %s=%s", ErrDuplicateEntry, rowCol, rv.Key(), colCol, cv.Key())
		}
		filled[i][j] = true

		v := rec[valueCol]
		if v.Null {
			continue
		}
		if v.Kind != dataset.KindNumber {
			return nil, fmt.Errorf("pivot: %w: %s", ErrNotNumeric, valueCol)
		}
		m.Set(i, j, models.NewCell(v.Num))
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if _, _, ok := m.Range(); !ok {
		return nil, &EmptyResultError{Op: "pivot", Detail: fmt.Sprintf("every %s x %s cell of %s is null", rowCol, colCol, valueCol)}
	}
	return m, nil
}

// Melt unpivots valueCols into (idCol, varName, valueName) records, one per source record and column.
func Melt(t *dataset.Table, idCol string, valueCols []string, varName, valueName string) (*dataset.Table, error) {
	if err := requireColumns("melt", t, append([]string{idCol}, valueCols...)...); err != nil {
		return nil, err
	}
	out := &dataset.Table{
		Name:    t.Name,
		Columns: []string{idCol, varName, valueName},
		Records: make([]dataset.Record, 0, len(t.Records)*len(valueCols)),
	}
	for _, col := range valueCols {
		for _, rec := range t.Records {
			out.Records = append(out.Records, dataset.Record{
				idCol:     rec[idCol],
				varName:   dataset.StringValue(col),
				valueName: rec[col],
			})
		}
	}
	return out, nil
}

// Recode returns a copy of t with fn applied to every non-null value of col.
func Recode(t *dataset.Table, col string, fn func(dataset.Value) (dataset.Value, error)) (*dataset.Table, error) {
	if err := requireColumns("recode", t, col); err != nil {
		return nil, err
	}
	out := &dataset.Table{
		Name:    t.Name,
		Columns: append([]string{}, t.Columns...),
		Records: make([]dataset.Record, len(t.Records)),
	}
	for i, rec := range t.Records {
		cp := make(dataset.Record, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		if v := rec[col]; !v.Null {
			nv, err := fn(v)
			if err != nil {
				return nil, fmt.Errorf("recode %s: %w", col, err)
			}
			cp[col] = nv
		}
		out.Records[i] = cp
	}
	return out, nil
}

// MonthNameToNumber recodes "jan".."dec" (any case, full names too) into 1..12.
func MonthNameToNumber(v dataset.Value) (dataset.Value, error) {
	n, ok := models.MonthNumber(v.Str)
	if !ok {
		return dataset.Value{}, fmt.Errorf("%w: %q is not a month", dataset.ErrInvalidValue, v.Str)
	}
	return dataset.NumberValue(float64(n)), nil
}
