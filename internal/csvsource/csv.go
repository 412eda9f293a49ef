// Package csvsource reads and writes cached job tables as CSV, so an
// expensive history query can be replayed offline.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/iross/chtc-memory-analyzer/internal/jobs"
)

// Source reads job tables from CSV files.
type Source struct {
	// columnMapping renames CSV headers to classad attribute names,
	// e.g. "cluster_id" -> "ClusterId". Empty means headers are used
	// as-is.
	columnMapping map[string]string
}

// New returns a CSV source. mappingPath may name a YAML file containing a
// flat header-to-attribute mapping; empty means no remapping.
func New(mappingPath string) (*Source, error) {
	s := &Source{}
	if mappingPath == "" {
		return s, nil
	}

	raw, err := os.ReadFile(mappingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read column mapping %s: %w", mappingPath, err)
	}
	if err := yaml.Unmarshal(raw, &s.columnMapping); err != nil {
		return nil, fmt.Errorf("failed to parse column mapping %s: %w", mappingPath, err)
	}
	log.Debug().
		Str("path", mappingPath).
		Int("columns", len(s.columnMapping)).
		Msg("loaded CSV column mapping")
	return s, nil
}

// FetchJobs reads the CSV file into a job table. The header row defines
// the columns; cells are parsed as int, then float, then bool, falling
// back to string. An empty cell means the attribute is absent for that
// record.
func (s *Source) FetchJobs(path string) (*jobs.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer f.Close()

	tbl, err := s.read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("records", len(tbl.Records)).
		Int("columns", len(tbl.Columns)).
		Msg("read job data from CSV")
	return tbl, nil
}

func (s *Source) read(r io.Reader) (*jobs.Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if mapped, ok := s.columnMapping[h]; ok {
			columns[i] = mapped
		} else {
			columns[i] = h
		}
	}

	tbl := &jobs.Table{Columns: columns}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(jobs.Record, len(columns))
		for i, cell := range row {
			if i >= len(columns) || cell == "" {
				continue
			}
			rec[columns[i]] = parseCell(cell)
		}
		tbl.Records = append(tbl.Records, rec)
	}
	return tbl, nil
}

// parseCell picks the narrowest type a cell fits in.
func parseCell(cell string) any {
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(cell); err == nil {
		return b
	}
	return cell
}

// WriteJobs caches a job table to a CSV file. Absent attributes become
// empty cells, so a round trip preserves them as absent.
func WriteJobs(path string, tbl *jobs.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(tbl.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	row := make([]string, len(tbl.Columns))
	for _, rec := range tbl.Records {
		for i, col := range tbl.Columns {
			if v, ok := rec[col]; ok && v != nil {
				row[i] = fmt.Sprint(v)
			} else {
				row[i] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	log.Info().
		Str("path", path).
		Int("records", len(tbl.Records)).
		Int("columns", len(tbl.Columns)).
		Msg("cached job data to CSV")
	return nil
}
