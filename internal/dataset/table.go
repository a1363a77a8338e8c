// Package dataset turns the raw report tables into typed records and applies
// the overlay, remap, and join steps that produce the donation table.
package dataset

import "fmt"

// columns indexes a header row by column name.
type columns map[string]int

func indexColumns(header []string) columns {
	c := make(columns, len(header))
	for i, name := range header {
		if _, ok := c[name]; !ok {
			c[name] = i
		}
	}
	return c
}

// cell returns the named column's value in row, or "" when the column is
// absent or the row is short.
func (c columns) cell(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// require returns an error naming the first missing column.
func (c columns) require(names ...string) error {
	for _, name := range names {
		if _, ok := c[name]; !ok {
			return fmt.Errorf("dataset: missing column %q", name)
		}
	}
	return nil
}
