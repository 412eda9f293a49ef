// Package jobs holds the tabular job-record model shared by the data
// sources and the analysis layer. Records keep the HTCondor classad
// attribute names so a cached CSV and a live history query look the same
// to the analyzer.
package jobs

import (
	"fmt"
	"sort"
)

// Well-known classad attribute names used by the memory analysis.
const (
	AttrClusterID     = "ClusterId"
	AttrProcID        = "ProcId"
	AttrOwner         = "Owner"
	AttrRequestMemory = "RequestMemory"
	AttrMemoryUsage   = "MemoryUsage"
	AttrJobStatus     = "JobStatus"
)

// DefaultProjection is the attribute set fetched when the caller does not
// ask for specific attributes. Memory values are in MB.
var DefaultProjection = []string{
	AttrClusterID,
	AttrProcID,
	AttrOwner,
	AttrRequestMemory,
	AttrMemoryUsage,
	AttrJobStatus,
}

// Record is a single job ad. Values are int64, float64, string or bool;
// an attribute the schedd did not report is simply not present.
type Record map[string]any

// Table is a bounded, fully materialized collection of job records plus
// the set of columns the source reported.
type Table struct {
	Columns []string
	Records []Record
}

// HasColumns reports whether every named column is present in the table.
func (t *Table) HasColumns(names ...string) bool {
	return len(t.MissingColumns(names...)) == 0
}

// MissingColumns returns the subset of names not present in the table,
// sorted for stable error messages.
func (t *Table) MissingColumns(names ...string) []string {
	present := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = struct{}{}
	}
	var missing []string
	for _, n := range names {
		if _, ok := present[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}

// Float returns the named attribute coerced to float64. The second return
// is false when the attribute is absent. A present value that is not
// numeric is an error; callers decide whether that aborts the run.
func (r Record) Float(name string) (float64, bool, error) {
	v, ok := r[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int64:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	default:
		return 0, false, fmt.Errorf("attribute %s: cannot convert %T value %v to number", name, v, v)
	}
}

// Int returns the named attribute coerced to int64, with the same
// absent/error contract as Float.
func (r Record) Int(name string) (int64, bool, error) {
	v, ok := r[name]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int64:
		return n, true, nil
	case int:
		return int64(n), true, nil
	case float64:
		return int64(n), true, nil
	default:
		return 0, false, fmt.Errorf("attribute %s: cannot convert %T value %v to integer", name, v, v)
	}
}

// String returns the named attribute as a string, or "" when absent.
func (r Record) String(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
