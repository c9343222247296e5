package series

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// accepted timestamp layouts, most specific first
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ReadCSV loads a two-column (time,value) series from path. A header row
// is detected and skipped; the series name defaults to the file basename
// without extension.
func ReadCSV(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s, err := ParseCSV(name, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.ToSlash(path), err)
	}
	return s, nil
}

// ParseCSV reads a two-column (time,value) series from r.
func ParseCSV(name string, r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	var (
		ts   []time.Time
		vs   []float64
		line int
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: want 2 columns, got %d", line, len(rec))
		}
		t, err := parseTime(rec[0])
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad value %q", line, rec[1])
		}
		ts = append(ts, t)
		vs = append(vs, v)
	}
	return New(name, ts, vs)
}

// WriteCSV saves the series as (time,value) rows with a header.
func WriteCSV(s *Series, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", s.Name}); err != nil {
		return err
	}
	for i := range s.T {
		rec := []string{
			s.T[i].UTC().Format(time.RFC3339),
			strconv.FormatFloat(s.V[i], 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
}
