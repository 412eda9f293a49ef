// Package condor fetches job history from an HTCondor schedd through the
// condor REST bridge. One endpoint matters here: /v1/history, which
// returns completed job ads as a JSON array.
package condor

import (
	"net/http"
	"time"

	"github.com/iross/chtc-memory-analyzer/internal/jobs"
)

// DefaultConstraint selects completed jobs only (JobStatus 4).
const DefaultConstraint = "JobStatus == 4"

// DefaultMatchLimit caps how many history records one query returns.
const DefaultMatchLimit = 10000

// HistorySource is the capability the CLI needs from a job-history
// backend: one fetch of a bounded job table.
type HistorySource interface {
	FetchJobs(opts QueryOptions) (*jobs.Table, error)
}

// Doer abstracts http.Client.Do so tests can stub the transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// QueryOptions shapes one history query.
type QueryOptions struct {
	// Schedd narrows the query to one schedd; empty means the bridge's
	// local schedd.
	Schedd string
	// Constraint is a classad expression; empty falls back to
	// DefaultConstraint.
	Constraint string
	// Projection lists the attributes to fetch. Empty with FetchAll
	// unset means jobs.DefaultProjection.
	Projection []string
	// FetchAll requests every attribute the schedd has (exploratory
	// mode); it overrides Projection.
	FetchAll bool
	// MatchLimit caps returned records; 0 means DefaultMatchLimit.
	MatchLimit int
}

// Client queries the condor REST bridge.
type Client struct {
	baseURL      string
	client       Doer
	queryTimeout time.Duration
}

// New returns a history client for the bridge at baseURL.
func New(baseURL string, client Doer, queryTimeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, errEmptyEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		client:       client,
		queryTimeout: queryTimeout,
	}, nil
}

// String returns a loggable description of the client.
func (c *Client) String() string {
	return "condor.Client{url: " + c.baseURL + ", timeout: " + c.queryTimeout.String() + "}"
}
