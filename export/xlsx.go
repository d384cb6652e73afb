package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pivolan/climate_charts/domain/models"
	"github.com/pivolan/climate_charts/plot"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

var ErrNoMatrices = errors.New("no matrices to export")

// sheetName makes a matrix name acceptable to Excel: no []:*?/\ and at most 31 characters.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "matrix"
	}
	clean = truncateRunes(clean, maxSheetName)
	candidate := clean
	for i := 1; used[strings.ToLower(candidate)]; i++ {
		suffix := "_" + strconv.Itoa(i)
		candidate = truncateRunes(clean, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

// truncateRunes cuts s to at most n characters without splitting a multi-byte rune.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// cellKey writes numeric axis keys as numbers so spreadsheets sort them numerically.
func cellKey(key string) interface{} {
	if f, err := strconv.ParseFloat(key, 64); err == nil {
		return f
	}
	return key
}

// MatrixWorkbook lays out each matrix on its own sheet: column labels across row 1, row keys
// down column A, null cells left empty.
func MatrixWorkbook(matrices ...*models.Matrix) ([]byte, error) {
	if len(matrices) == 0 {
		return nil, ErrNoMatrices
	}
	f := excelize.NewFile()
	defer f.Close()

	used := make(map[string]bool)
	for i, m := range matrices {
		name := sheetName(m.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
		if err := writeMatrix(f, name, m); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMatrix(f *excelize.File, sheet string, m *models.Matrix) error {
	header := make([]interface{}, 0, m.Cols.Len()+1)
	header = append(header, m.Rows.Name)
	for j := 0; j < m.Cols.Len(); j++ {
		header = append(header, m.Cols.Label(j))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i := 0; i < m.Rows.Len(); i++ {
		if err := setCell(f, sheet, 1, i+2, cellKey(m.Rows.Keys[i])); err != nil {
			return err
		}
		for j := 0; j < m.Cols.Len(); j++ {
			c := m.At(i, j)
			if !c.Valid {
				continue
			}
			if err := setCell(f, sheet, j+2, i+2, c.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, value)
}

// WriteMatrices writes the workbook to path atomically.
func WriteMatrices(path string, matrices ...*models.Matrix) error {
	data, err := MatrixWorkbook(matrices...)
	if err != nil {
		return err
	}
	return plot.WriteFile(path, data)
}
