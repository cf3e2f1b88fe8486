package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apierrors "github.com/yukikurage/ai-todo/internal/errors"
)

const (
	csvDateLayout = "2006-01-02"
	csvTimeLayout = "15:04:05"
	csvZoneLayout = "Z07:00"
)

// csvTable is a parsed CSV file whose columns are addressed by header name.
type csvTable struct {
	columns map[string]int
	rows    [][]string
}

// has reports whether the header named column exists.
func (t csvTable) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// get returns the trimmed value of column in row, or "" when the column is
// missing from the header or the row is short.
func (t csvTable) get(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// raw is like get but keeps surrounding whitespace, for free text columns.
func (t csvTable) raw(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (t csvTable) require(path string, columns ...string) error {
	for _, c := range columns {
		if !t.has(c) {
			return fmt.Errorf("%w: %s: missing required column %q", apierrors.ErrPersistence, path, c)
		}
	}
	return nil
}

// readCSVTable loads path. A missing or blank file yields an empty table.
func readCSVTable(path string) (csvTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return csvTable{}, nil
		}
		return csvTable{}, fmt.Errorf("%w: read %s: %v", apierrors.ErrPersistence, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return csvTable{}, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return csvTable{}, nil
		}
		return csvTable{}, fmt.Errorf("%w: parse %s: %v", apierrors.ErrPersistence, path, err)
	}

	table := csvTable{columns: make(map[string]int, len(header))}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		table.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return csvTable{}, fmt.Errorf("%w: parse %s: %v", apierrors.ErrPersistence, path, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		table.rows = append(table.rows, row)
	}

	return table, nil
}

// writeCSVTable always rewrites the full file, header included.
func writeCSVTable(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: encode %s: %v", apierrors.ErrPersistence, path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: encode %s: %v", apierrors.ErrPersistence, path, err)
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("%w: write %s: %v", apierrors.ErrPersistence, path, err)
	}
	return nil
}

// writeFileAtomic writes to a sibling temp file, syncs it and renames it over
// path, so a concurrent reader sees either the old or the new content.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return syncDir(dir)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// formatDue splits t into ISO date, HH:MM:SS time and UTC offset columns.
func formatDue(t *time.Time) (string, string, string) {
	if t == nil {
		return "", "", ""
	}
	return t.Format(csvDateLayout), t.Format(csvTimeLayout), t.Format(csvZoneLayout)
}

// parseDue rebuilds a due time from its columns. A missing time means
// midnight; a missing zone means the local time zone.
func parseDue(date, clock, zone string) (*time.Time, error) {
	if date == "" {
		return nil, nil
	}
	if clock == "" {
		clock = "00:00:00"
	}

	var (
		t   time.Time
		err error
	)
	if zone == "" {
		t, err = time.ParseInLocation(csvDateLayout+" "+csvTimeLayout, date+" "+clock, time.Local)
	} else {
		t, err = time.Parse(time.RFC3339, date+"T"+clock+zone)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
