package condor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/iross/chtc-memory-analyzer/internal/jobs"
)

var errEmptyEndpoint = errors.New("condor endpoint cannot be empty")

// FetchJobs queries the schedd history and returns the ads as a job
// table. Transient failures are retried with exponential backoff.
func (c *Client) FetchJobs(opts QueryOptions) (*jobs.Table, error) {
	u, err := c.historyURL(opts)
	if err != nil {
		return nil, err
	}

	log.Trace().Str("url", u).Msg("querying condor history")

	var ads []map[string]any
	operation := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), c.queryTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to build history request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("history request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			err := fmt.Errorf("unexpected status code %d from condor REST bridge", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		ads = nil
		if err := json.NewDecoder(resp.Body).Decode(&ads); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode history response: %w", err))
		}
		return nil
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 1 * time.Second
	expBackoff.MaxElapsedTime = 5 * time.Minute

	startTime := time.Now()
	err = backoff.RetryNotify(
		operation,
		expBackoff,
		func(err error, duration time.Duration) {
			log.Warn().Err(err).Dur("retry_in", duration).Msg("history query failed, will retry")
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query condor history after retries: %w", err)
	}
	log.Trace().Dur("duration", time.Since(startTime)).Msg("history query completed")

	tbl := adsToTable(ads, opts)
	log.Info().
		Int("records", len(tbl.Records)).
		Int("columns", len(tbl.Columns)).
		Msg("fetched job history from condor")
	return tbl, nil
}

// historyURL builds the /v1/history request URL from the options.
func (c *Client) historyURL(opts QueryOptions) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid condor endpoint %s: %w", c.baseURL, err)
	}
	u = u.JoinPath("v1", "history")

	q := u.Query()
	constraint := opts.Constraint
	if constraint == "" {
		constraint = DefaultConstraint
	}
	q.Set("constraint", constraint)

	limit := opts.MatchLimit
	if limit <= 0 {
		limit = DefaultMatchLimit
	}
	q.Set("limit", strconv.Itoa(limit))

	if opts.Schedd != "" {
		q.Set("schedd", opts.Schedd)
	}
	if !opts.FetchAll {
		projection := opts.Projection
		if len(projection) == 0 {
			projection = jobs.DefaultProjection
		}
		for _, attr := range projection {
			if attr != "" {
				q.Add("projection", attr)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// adsToTable normalizes decoded ads into a job table. JSON numbers come
// back as float64; integral values for the id and status attributes are
// narrowed to int64 so downstream grouping keys stay integers.
func adsToTable(ads []map[string]any, opts QueryOptions) *jobs.Table {
	columns := map[string]struct{}{}
	tbl := &jobs.Table{}
	for _, ad := range ads {
		rec := make(jobs.Record, len(ad))
		for key, value := range ad {
			columns[key] = struct{}{}
			rec[key] = normalize(key, value)
		}
		tbl.Records = append(tbl.Records, rec)
	}

	if !opts.FetchAll && len(opts.Projection) == 0 && len(columns) == 0 {
		// An empty result set still has a known schema.
		tbl.Columns = append(tbl.Columns, jobs.DefaultProjection...)
		return tbl
	}
	for col := range columns {
		tbl.Columns = append(tbl.Columns, col)
	}
	sort.Strings(tbl.Columns)
	return tbl
}

var integerAttrs = map[string]struct{}{
	jobs.AttrClusterID: {},
	jobs.AttrProcID:    {},
	jobs.AttrJobStatus: {},
}

func normalize(key string, value any) any {
	f, ok := value.(float64)
	if !ok {
		return value
	}
	if _, integral := integerAttrs[key]; integral && f == float64(int64(f)) {
		return int64(f)
	}
	return f
}
