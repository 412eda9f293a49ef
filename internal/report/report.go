// Package report renders analysis results as plain-text reports with
// ASCII histograms. It only consumes aggregate results; it knows nothing
// about where the job data came from.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/iross/chtc-memory-analyzer/internal/analysis"
)

const rule = "================================================================================"

const mb = 1024 * 1024

// topOverAllocators caps how many over-allocating clusters the summary
// lists.
const topOverAllocators = 10

// Writer builds text reports from analysis results.
type Writer struct {
	bins  int
	width int
}

// NewWriter returns a report writer with the given histogram geometry.
// Non-positive values fall back to the defaults.
func NewWriter(bins, width int) *Writer {
	if bins <= 0 {
		bins = DefaultBins
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return &Writer{bins: bins, width: width}
}

// ClusterReport formats one cluster analysis for display.
func (w *Writer) ClusterReport(c analysis.ClusterAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "Cluster: %d | Owner: %s | Jobs: %d\n", c.ClusterID, c.Owner, c.JobCount)
	b.WriteString(rule + "\n")

	req := c.Memory.Requested
	fmt.Fprintf(&b, "\nMEMORY REQUEST (MB):\n")
	fmt.Fprintf(&b, "    Mean: %.2f | Median: %.2f | Std Dev: %.2f\n", req.Mean, req.Median, req.Stdev)
	fmt.Fprintf(&b, "    Min: %.2f | Max: %.2f\n", req.Min, req.Max)

	used := c.Memory.Used
	b.WriteString("\nMEMORY USAGE:\n")
	b.WriteString(strings.Repeat("-", 80) + "\n")
	b.WriteString("  Used Memory (MB):\n")
	fmt.Fprintf(&b, "    Mean: %.2f | Median: %.2f | Std Dev: %.2f\n", used.Mean, used.Median, used.Stdev)
	fmt.Fprintf(&b, "    Min: %.2f | Max: %.2f\n", used.Min, used.Max)

	if ratios := c.Memory.Ratios; ratios.Count > 0 {
		b.WriteString("\n  Usage Ratio (Used/Requested):\n")
		fmt.Fprintf(&b, "    Mean: %.2f%% | Median: %.2f%%\n", ratios.Mean*100, ratios.Median*100)
	}

	if len(c.RawUsedMemory) > 0 {
		b.WriteString("\n  Memory Usage Histogram (MB):\n")
		b.WriteString(Histogram(c.RawUsedMemory, w.bins, w.width))
		b.WriteString("\n")
	}

	return b.String()
}

// SummaryReport formats the overall summary: an all-cluster usage
// histogram, per-user totals and the worst over-allocators.
func (w *Writer) SummaryReport(result *analysis.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n\n%s\nSUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total clusters analyzed: %d\n", len(result.Clusters))

	var allUsed []float64
	for _, c := range result.Clusters {
		allUsed = append(allUsed, c.RawUsedMemory...)
	}
	if len(allUsed) > 0 {
		fmt.Fprintf(&b, "\n%s\nMEMORY USAGE HISTOGRAM - ALL CLUSTERS\n%s\n", rule, rule)
		fmt.Fprintf(&b, "Total jobs with memory data: %d\n", len(allUsed))
		s := analysis.Summarize(allUsed)
		fmt.Fprintf(&b, "Mean: %.2f MB | Median: %.2f MB | Std Dev: %.2f MB\n", s.Mean, s.Median, s.Stdev)
		fmt.Fprintf(&b, "Min: %.2f MB | Max: %.2f MB\n", s.Min, s.Max)
		b.WriteString("\nHistogram:\n")
		b.WriteString(Histogram(allUsed, w.bins, w.width))
		b.WriteString("\n")
	}

	if len(result.Users) > 0 {
		fmt.Fprintf(&b, "\n%s\nPER-USER TOTALS ACROSS ALL CLUSTERS\n%s\n", rule, rule)
		for _, owner := range usersByTotalJobs(result.Users) {
			totals := result.Users[owner]
			fmt.Fprintf(&b, "\nUser: %s\n", owner)
			fmt.Fprintf(&b, "  Clusters: %d (IDs: %s)\n", len(totals.Clusters), joinClusterIDs(totals.Clusters))
			fmt.Fprintf(&b, "  Total Jobs: %d\n", totals.TotalJobs)
			fmt.Fprintf(&b, "  Total Requested Memory: %s\n", humanize.IBytes(uint64(totals.TotalRequestedMemory*mb)))
			fmt.Fprintf(&b, "  Total Used Memory: %s\n", humanize.IBytes(uint64(totals.TotalUsedMemory*mb)))

			if len(totals.MemoryRatios) > 0 {
				avg := analysis.Summarize(totals.MemoryRatios).Mean
				fmt.Fprintf(&b, "  Average Memory Usage Ratio: %.2f%%\n", avg*100)
				if totals.TotalRequestedMemory > 0 {
					overall := totals.TotalUsedMemory / totals.TotalRequestedMemory
					fmt.Fprintf(&b, "  Overall Memory Usage Ratio: %.2f%%\n", overall*100)
				}
			}
		}
	}

	if len(result.OverAllocators) > 0 {
		fmt.Fprintf(&b, "\n%s\nTop Memory Over-Allocators (using <50%% of requested):\n%s\n", rule, rule)
		top := result.OverAllocators
		if len(top) > topOverAllocators {
			top = top[:topOverAllocators]
		}
		for _, o := range top {
			fmt.Fprintf(&b, "  Cluster %d (%s): %.1f%% average usage\n", o.ClusterID, o.Owner, o.Ratio*100)
		}
	}

	return b.String()
}

// usersByTotalJobs orders owners by total jobs descending, name ascending
// on ties so the report is stable.
func usersByTotalJobs(users map[string]*analysis.UserTotals) []string {
	owners := make([]string, 0, len(users))
	for owner := range users {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		a, b := users[owners[i]], users[owners[j]]
		if a.TotalJobs != b.TotalJobs {
			return a.TotalJobs > b.TotalJobs
		}
		return owners[i] < owners[j]
	})
	return owners
}

func joinClusterIDs(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
