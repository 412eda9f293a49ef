// Command chtc-memory-analyzer queries HTCondor job history (or a cached
// CSV) for memory request-vs-usage patterns, flags clusters that
// over-request memory, and prints text reports with ASCII histograms.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/iross/chtc-memory-analyzer/config"
	"github.com/iross/chtc-memory-analyzer/internal/analysis"
	"github.com/iross/chtc-memory-analyzer/internal/condor"
	"github.com/iross/chtc-memory-analyzer/internal/csvsource"
	"github.com/iross/chtc-memory-analyzer/internal/jobs"
	"github.com/iross/chtc-memory-analyzer/internal/logger"
	"github.com/iross/chtc-memory-analyzer/internal/metrics"
	"github.com/iross/chtc-memory-analyzer/internal/report"
)

type cliOptions struct {
	configPath string
	csvPath    string
	cacheCSV   string
	columnMap  string
	condorURL  string
	schedd     string
	constraint string
	attributes string
	fetchAll   bool
	minJobs    int
	threshold  float64
	limit      int
	serve      bool
	logLevel   string
	logFormat  string
}

func main() {
	var opts cliOptions

	app := kingpin.New(filepath.Base(os.Args[0]), "Analyze HTCondor job history for memory over-allocation.")
	app.HelpFlag.Short('h')
	app.Flag("config", "Config file path (YAML).").PlaceHolder("PATH").StringVar(&opts.configPath)
	app.Flag("csv", "Read job data from a cached CSV instead of querying HTCondor.").PlaceHolder("FILE").StringVar(&opts.csvPath)
	app.Flag("cache-csv", "Cache fetched job data to a CSV file.").PlaceHolder("FILE").StringVar(&opts.cacheCSV)
	app.Flag("column-map", "YAML file mapping CSV headers to classad attribute names.").PlaceHolder("FILE").StringVar(&opts.columnMap)
	app.Flag("condor.url", "Base URL of the condor REST bridge.").StringVar(&opts.condorURL)
	app.Flag("schedd", "Schedd name to query (default: local schedd).").StringVar(&opts.schedd)
	app.Flag("constraint", "Additional constraint for the history query.").StringVar(&opts.constraint)
	app.Flag("attributes", "Comma-separated list of attributes to fetch (e.g. ClusterId,Owner,RequestMemory).").StringVar(&opts.attributes)
	app.Flag("fetch-all", "Fetch all available job attributes (exploratory mode, overrides --attributes).").BoolVar(&opts.fetchAll)
	app.Flag("min-jobs", "Minimum number of jobs in a cluster to analyze.").Default("0").IntVar(&opts.minJobs)
	app.Flag("threshold", "Usage-ratio threshold below which a cluster is an over-allocator.").Default("0").Float64Var(&opts.threshold)
	app.Flag("limit", "Maximum number of per-cluster reports to print.").Default("0").IntVar(&opts.limit)
	app.Flag("serve", "Run the analysis on a cron schedule and export Prometheus metrics.").BoolVar(&opts.serve)
	app.Flag("log.level", "Log level, one of [trace, debug, info, warn, error].").Default("info").EnumVar(&opts.logLevel, "trace", "debug", "info", "warn", "error")
	app.Flag("log.format", "Log format, one of [console, json].").Default("console").EnumVar(&opts.logFormat, "console", "json")
	app.Version(version.Print("chtc-memory-analyzer"))

	if _, err := app.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to parse commandline arguments: %w", err))
		app.Usage(os.Args[1:])
		os.Exit(2)
	}

	logger.Init(opts.logLevel, opts.logFormat)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	mergeFlags(cfg, &opts)
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if opts.serve {
		runServe(cfg, &opts)
		return
	}
	if err := runOnce(cfg, &opts, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}

// mergeFlags lets explicit command-line values override the config file.
func mergeFlags(cfg *config.Config, opts *cliOptions) {
	if opts.condorURL != "" {
		cfg.Condor.Endpoint = opts.condorURL
	}
	if opts.schedd != "" {
		cfg.Condor.Schedd = opts.schedd
	}
	if opts.constraint != "" {
		cfg.Condor.Constraint = opts.constraint
	}
	if opts.minJobs > 0 {
		cfg.Analysis.MinJobs = opts.minJobs
	}
	if opts.threshold > 0 {
		cfg.Analysis.Threshold = opts.threshold
	}
	if opts.limit > 0 {
		cfg.Report.Limit = opts.limit
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
}

// fetchTable acquires the job table from whichever source the flags
// selected.
func fetchTable(cfg *config.Config, opts *cliOptions) (*jobs.Table, error) {
	if opts.csvPath != "" {
		src, err := csvsource.New(opts.columnMap)
		if err != nil {
			return nil, err
		}
		return src.FetchJobs(opts.csvPath)
	}

	client, err := condor.New(cfg.Condor.Endpoint, http.DefaultClient, cfg.Condor.QueryTimeout)
	if err != nil {
		return nil, err
	}

	var projection []string
	if opts.attributes != "" {
		for _, a := range strings.Split(opts.attributes, ",") {
			if a = strings.TrimSpace(a); a != "" {
				projection = append(projection, a)
			}
		}
	}

	log.Info().Msg("fetching job history from HTCondor (this may take a while)")
	tbl, err := client.FetchJobs(condor.QueryOptions{
		Schedd:     cfg.Condor.Schedd,
		Constraint: cfg.Condor.Constraint,
		Projection: projection,
		FetchAll:   opts.fetchAll,
		MatchLimit: cfg.Condor.MatchLimit,
	})
	if err != nil {
		return nil, err
	}

	if opts.cacheCSV != "" {
		if err := csvsource.WriteJobs(opts.cacheCSV, tbl); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

// runOnce fetches, analyzes and prints one report.
func runOnce(cfg *config.Config, opts *cliOptions, out io.Writer) error {
	tbl, err := fetchTable(cfg, opts)
	if err != nil {
		return err
	}

	if opts.fetchAll {
		// Exploratory mode: surface the schema and stop.
		fmt.Fprintf(out, "Fetched %d jobs with %d attributes\n", len(tbl.Records), len(tbl.Columns))
		fmt.Fprintf(out, "Available columns: %s\n", strings.Join(tbl.Columns, ", "))
		return nil
	}

	analyzer := analysis.New(cfg.Analysis.MinJobs, analysis.WithThreshold(cfg.Analysis.Threshold))
	result, err := analyzer.Analyze(tbl)
	if err != nil {
		return err
	}

	log.Info().
		Int("clusters", len(result.Clusters)).
		Int("min_jobs", cfg.Analysis.MinJobs).
		Msg("analysis complete")

	if len(result.Clusters) == 0 {
		fmt.Fprintln(out, "No clusters found matching criteria.")
		return nil
	}

	w := report.NewWriter(cfg.Report.HistogramBins, cfg.Report.HistogramWidth)
	shown := result.Clusters
	if len(shown) > cfg.Report.Limit {
		shown = shown[:cfg.Report.Limit]
	}
	for _, c := range shown {
		fmt.Fprint(out, w.ClusterReport(c))
	}
	fmt.Fprintln(out, w.SummaryReport(result))
	return nil
}

// runServe runs the analysis on a cron schedule and exposes the results
// as Prometheus metrics until interrupted.
func runServe(cfg *config.Config, opts *cliOptions) {
	location, err := time.LoadLocation(cfg.Serve.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Serve.TimeZone).Msg("failed to load time zone")
	}

	var runMutex sync.Mutex
	runAnalysis := func() {
		runMutex.Lock()
		defer runMutex.Unlock()

		tbl, err := fetchTable(cfg, opts)
		if err != nil {
			log.Error().Err(err).Msg("scheduled fetch failed")
			metrics.RecordRun(false)
			return
		}
		analyzer := analysis.New(cfg.Analysis.MinJobs, analysis.WithThreshold(cfg.Analysis.Threshold))
		result, err := analyzer.Analyze(tbl)
		if err != nil {
			log.Error().Err(err).Msg("scheduled analysis failed")
			metrics.RecordRun(false)
			return
		}
		metrics.RecordResult(result)
		metrics.RecordRun(true)
		log.Info().
			Int("clusters", len(result.Clusters)).
			Int("over_allocators", len(result.OverAllocators)).
			Msg("scheduled analysis complete")
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		addr := ":" + cfg.Serve.MetricsPort
		log.Info().Str("addr", addr).Msg("starting metrics server")
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()

	scheduler := cron.New(cron.WithLocation(location))
	if _, err := scheduler.AddFunc(cfg.Serve.Cron, runAnalysis); err != nil {
		log.Fatal().Err(err).Str("cron", cfg.Serve.Cron).Msg("invalid cron schedule")
	}
	scheduler.Start()
	log.Info().Str("cron", cfg.Serve.Cron).Msg("scheduler started")

	// First run right away so metrics are populated before the first
	// scheduled tick.
	runAnalysis()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	scheduler.Stop()
	log.Info().Msg("shutdown complete")
}
