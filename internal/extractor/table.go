package extractor

import (
	"context"
	"errors"
	"fmt"

	"webscrape/internal/driver"
	"webscrape/internal/session"
)

// TableRows holds cell text, outer index row, inner index column.
type TableRows [][]string

// MalformedTableError reports a th/td cell met before any tr.
type MalformedTableError struct {
	Index int
	Tag   string
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("extractor: %s cell at position %d precedes any tr", e.Tag, e.Index)
}

// CarveTable walks elements in order: each tr opens a new row, each th or td
// appends its text to the latest row, anything else is skipped. A cell
// before the first tr fails with *MalformedTableError and no rows.
func (e *Extractor) CarveTable(ctx context.Context, elements []*session.Element) (TableRows, error) {
	rows := TableRows{}
	for i, el := range elements {
		tag, err := el.TagName(ctx)
		if err != nil {
			return nil, fmt.Errorf("table tag: %w", err)
		}
		switch tag {
		case "tr":
			rows = append(rows, []string{})
		case "th", "td":
			if len(rows) == 0 {
				return nil, &MalformedTableError{Index: i, Tag: tag}
			}
			text, err := el.Text(ctx)
			if err != nil {
				return nil, fmt.Errorf("table cell: %w", err)
			}
			last := len(rows) - 1
			rows[last] = append(rows[last], text)
		}
	}
	return rows, nil
}

// Table carves every descendant of parent. A parent whose subtree cannot be
// listed yields no rows.
func (e *Extractor) Table(ctx context.Context, parent *session.Element) (TableRows, error) {
	children, err := parent.FindAll(ctx, descendants)
	if err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			return TableRows{}, nil
		}
		return nil, fmt.Errorf("table children: %w", err)
	}
	return e.CarveTable(ctx, children)
}
