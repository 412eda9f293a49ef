// Package analysis groups job records into clusters, summarizes memory
// request vs. usage per cluster and per user, and flags clusters that
// systematically over-request memory. It is pure computation over a
// materialized job table: no I/O, no logging, no retries.
package analysis

import (
	"sort"

	"github.com/iross/chtc-memory-analyzer/internal/jobs"
)

// DefaultOverAllocationThreshold marks clusters using less than half of
// their requested memory, on average.
const DefaultOverAllocationThreshold = 0.5

// MemoryStats holds the three per-cluster memory summaries.
type MemoryStats struct {
	Requested Stats
	Used      Stats
	Ratios    Stats
}

// ClusterAnalysis is the per-cluster result. RawUsedMemory keeps the
// individual used-memory samples (MB) for downstream histogramming.
type ClusterAnalysis struct {
	ClusterID     int64
	JobCount      int
	Owner         string
	Memory        MemoryStats
	RawUsedMemory []float64
}

// UserTotals rolls cluster analyses up per owner. The memory totals are
// reconstructed as mean*count per cluster because the rollup only sees
// already-aggregated stats, not raw per-job values; the small loss of
// precision versus summing raw values is accepted.
type UserTotals struct {
	Clusters             []int64
	TotalJobs            int
	TotalRequestedMemory float64
	TotalUsedMemory      float64
	MemoryRatios         []float64
}

// OverAllocation identifies one cluster whose mean usage ratio fell below
// the detection threshold.
type OverAllocation struct {
	ClusterID int64
	Owner     string
	Ratio     float64
}

// Result is the combined output of one Analyze call.
type Result struct {
	Clusters       []ClusterAnalysis
	Users          map[string]*UserTotals
	OverAllocators []OverAllocation
}

// Analyzer runs the memory over-allocation analysis over a job table.
type Analyzer struct {
	minJobs   int
	threshold float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithThreshold overrides the over-allocation detection threshold.
func WithThreshold(t float64) Option {
	return func(a *Analyzer) { a.threshold = t }
}

// New returns an Analyzer that ignores clusters with fewer than minJobs
// jobs.
func New(minJobs int, opts ...Option) *Analyzer {
	a := &Analyzer{
		minJobs:   minJobs,
		threshold: DefaultOverAllocationThreshold,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze validates the table schema, aggregates per cluster, rolls up
// per user and detects over-allocators. Either all three results are
// produced or an error is returned and none are.
func (a *Analyzer) Analyze(tbl *jobs.Table) (*Result, error) {
	required := []string{
		jobs.AttrClusterID,
		jobs.AttrOwner,
		jobs.AttrRequestMemory,
		jobs.AttrMemoryUsage,
	}
	if missing := tbl.MissingColumns(required...); len(missing) > 0 {
		return nil, NewSchemaError(missing, tbl.Columns)
	}

	clusters, err := a.analyzeByCluster(tbl)
	if err != nil {
		return nil, err
	}

	return &Result{
		Clusters:       clusters,
		Users:          analyzeByUser(clusters),
		OverAllocators: findOverAllocators(clusters, a.threshold),
	}, nil
}

// analyzeByCluster groups records by ClusterId, drops clusters below the
// job-count threshold and summarizes the survivors.
func (a *Analyzer) analyzeByCluster(tbl *jobs.Table) ([]ClusterAnalysis, error) {
	groups := make(map[int64][]jobs.Record)
	for _, rec := range tbl.Records {
		id, ok, err := rec.Int(jobs.AttrClusterID)
		if err != nil {
			return nil, NewConversionError(0, err.Error())
		}
		if !ok {
			// A row without a cluster id belongs to no cluster.
			continue
		}
		groups[id] = append(groups[id], rec)
	}

	analyses := make([]ClusterAnalysis, 0, len(groups))
	for id, group := range groups {
		if len(group) < a.minJobs {
			continue
		}

		owner := group[0].String(jobs.AttrOwner)
		if owner == "" {
			owner = "unknown"
		}

		var (
			requested []float64
			used      []float64
			ratios    []float64
			rawUsed   []float64
		)
		for _, rec := range group {
			req, reqOK, err := rec.Float(jobs.AttrRequestMemory)
			if err != nil {
				return nil, NewConversionError(id, err.Error())
			}
			use, useOK, err := rec.Float(jobs.AttrMemoryUsage)
			if err != nil {
				return nil, NewConversionError(id, err.Error())
			}
			if reqOK {
				requested = append(requested, req)
			}
			if useOK {
				used = append(used, use)
				rawUsed = append(rawUsed, use)
			}
			// A ratio needs a positive request and a reported usage;
			// an absent usage does not count as a ratio of 0.
			if reqOK && req > 0 && useOK {
				ratios = append(ratios, use/req)
			}
		}

		analyses = append(analyses, ClusterAnalysis{
			ClusterID: id,
			JobCount:  len(group),
			Owner:     owner,
			Memory: MemoryStats{
				Requested: Summarize(requested),
				Used:      Summarize(used),
				Ratios:    Summarize(ratios),
			},
			RawUsedMemory: rawUsed,
		})
	}

	sort.Slice(analyses, func(i, j int) bool {
		return analyses[i].ClusterID < analyses[j].ClusterID
	})
	return analyses, nil
}

// analyzeByUser aggregates cluster analyses per owner.
func analyzeByUser(clusters []ClusterAnalysis) map[string]*UserTotals {
	users := make(map[string]*UserTotals)
	for _, c := range clusters {
		totals, ok := users[c.Owner]
		if !ok {
			totals = &UserTotals{}
			users[c.Owner] = totals
		}
		totals.Clusters = append(totals.Clusters, c.ClusterID)
		totals.TotalJobs += c.JobCount

		if c.Memory.Requested.Count > 0 {
			totals.TotalRequestedMemory += c.Memory.Requested.Mean * float64(c.Memory.Requested.Count)
		}
		if c.Memory.Used.Count > 0 {
			totals.TotalUsedMemory += c.Memory.Used.Mean * float64(c.Memory.Used.Count)
		}
		if c.Memory.Ratios.Count > 0 {
			totals.MemoryRatios = append(totals.MemoryRatios, c.Memory.Ratios.Mean)
		}
	}
	return users
}

// findOverAllocators selects clusters whose mean usage ratio sits in
// (0, threshold), worst offenders first. A mean of exactly 0 means the
// ratio stats had no data and is excluded.
func findOverAllocators(clusters []ClusterAnalysis, threshold float64) []OverAllocation {
	var over []OverAllocation
	for _, c := range clusters {
		ratio := c.Memory.Ratios.Mean
		if ratio > 0 && ratio < threshold {
			over = append(over, OverAllocation{
				ClusterID: c.ClusterID,
				Owner:     c.Owner,
				Ratio:     ratio,
			})
		}
	}
	sort.Slice(over, func(i, j int) bool {
		return over[i].Ratio < over[j].Ratio
	})
	return over
}
