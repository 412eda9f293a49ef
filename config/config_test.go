package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Analysis.MinJobs != 20 {
		t.Errorf("MinJobs = %d, want 20", cfg.Analysis.MinJobs)
	}
	if cfg.Analysis.Threshold != 0.5 {
		t.Errorf("Threshold = %v, want 0.5", cfg.Analysis.Threshold)
	}
	if cfg.Condor.Constraint != "JobStatus == 4" {
		t.Errorf("Constraint = %q, want \"JobStatus == 4\"", cfg.Condor.Constraint)
	}
	if cfg.Condor.QueryTimeout != 30*time.Second {
		t.Errorf("QueryTimeout = %v, want 30s", cfg.Condor.QueryTimeout)
	}
	if cfg.Report.Limit != 100 {
		t.Errorf("Report.Limit = %d, want 100", cfg.Report.Limit)
	}
}

func TestLoadFile(t *testing.T) {
	content := `condor:
  endpoint: http://schedd.chtc.wisc.edu:9680
  query_timeout: 45s
analysis:
  min_jobs: 50
log:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Condor.Endpoint != "http://schedd.chtc.wisc.edu:9680" {
		t.Errorf("Endpoint = %q", cfg.Condor.Endpoint)
	}
	if cfg.Condor.QueryTimeout != 45*time.Second {
		t.Errorf("QueryTimeout = %v, want 45s", cfg.Condor.QueryTimeout)
	}
	if cfg.Analysis.MinJobs != 50 {
		t.Errorf("MinJobs = %d, want 50", cfg.Analysis.MinJobs)
	}
	// Unset fields still get defaults.
	if cfg.Analysis.Threshold != 0.5 {
		t.Errorf("Threshold = %v, want default 0.5", cfg.Analysis.Threshold)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}
