// Package fitbit implements the telemetry provider adapter against the
// Fitbit Web API.
package fitbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"

	shared "github.com/dbop14/FitApp-sub000/pkg"
	"github.com/dbop14/FitApp-sub000/pkg/domain/daykey"
	httputil "github.com/dbop14/FitApp-sub000/pkg/infrastructure/http"
	"github.com/dbop14/FitApp-sub000/pkg/infrastructure/oauth"
	"github.com/dbop14/FitApp-sub000/pkg/types"
)

const baseURL = "https://api.fitbit.com/1/user/-"

// APIError is an explicit provider failure. Auth and rate-limit failures
// must surface loudly so the backfill job skips the user instead of writing
// silent zeros into the ledger.
type APIError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration // from Retry-After on 429s, zero otherwise
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fitbit api error %d: %s", e.StatusCode, e.Body)
}

// AuthExpired reports whether the user needs to re-connect Fitbit.
func (e *APIError) AuthExpired() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// RateLimited reports whether Fitbit throttled us.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client is an API client for the Fitbit Web API.
type Client struct {
	tokens oauth.TokenSource
	client *http.Client
}

// NewClient creates a Fitbit client that authenticates through tokens.
func NewClient(tokens oauth.TokenSource) *Client {
	return &Client{
		tokens: tokens,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewForUser wires a client for one user's stored connection.
func NewForUser(db shared.Database, userID string) *Client {
	return NewClient(oauth.NewFitbitTokenSource(db, userID))
}

type stepsSeries struct {
	ActivitiesSteps []struct {
		DateTime string `json:"dateTime"`
		Value    string `json:"value"`
	} `json:"activities-steps"`
}

type weightLog struct {
	Weight []struct {
		Date   string  `json:"date"`
		Weight float64 `json:"weight"`
		Source string  `json:"source"`
	} `json:"weight"`
}

// doRequest performs an authenticated GET, retrying transient server faults
// with backoff. 401/403/429 are terminal for this run: they come back as
// *APIError for the caller to classify.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fitbit auth: %w", err)
	}

	var body []byte
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Accept", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("execute request: %w", err)
			}
			defer resp.Body.Close()

			if herr := httputil.ParseErrorResponse(resp); herr != nil {
				var httpErr *httputil.HTTPError
				if errors.As(herr, &httpErr) {
					apiErr := &APIError{StatusCode: httpErr.StatusCode, Body: httpErr.Body, RetryAfter: httpErr.RetryAfter}
					if httpErr.StatusCode >= 500 {
						return apiErr // transient, retry
					}
					return retry.Unrecoverable(apiErr)
				}
				return retry.Unrecoverable(herr)
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// FetchDailyHistory returns one sample per day in [from, to], in the user's
// timezone as Fitbit reports local dates. Days with no recorded steps come
// back as explicit zeros; weight is attached only to days with a weigh-in.
// The concatenated raw payloads are returned for archival.
func (c *Client) FetchDailyHistory(ctx context.Context, user *types.UserRecord, from, to daykey.Key) ([]shared.DailySample, []byte, error) {
	stepsBody, err := c.doRequest(ctx, fmt.Sprintf("/activities/steps/date/%s/%s.json", from, to))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch steps series: %w", err)
	}

	weightBody, err := c.doRequest(ctx, fmt.Sprintf("/body/log/weight/date/%s/%s.json", from, to))
	if err != nil {
		return nil, nil, fmt.Errorf("fetch weight log: %w", err)
	}

	var steps stepsSeries
	if err := json.Unmarshal(stepsBody, &steps); err != nil {
		return nil, nil, fmt.Errorf("decode steps series: %w", err)
	}
	var weights weightLog
	if err := json.Unmarshal(weightBody, &weights); err != nil {
		return nil, nil, fmt.Errorf("decode weight log: %w", err)
	}

	weightByDay := make(map[daykey.Key]float64, len(weights.Weight))
	for _, w := range weights.Weight {
		if w.Weight > 0 {
			weightByDay[daykey.Key(w.Date)] = w.Weight
		}
	}

	stepsByDay := make(map[daykey.Key]int, len(steps.ActivitiesSteps))
	for _, s := range steps.ActivitiesSteps {
		n, err := strconv.Atoi(s.Value)
		if err != nil {
			continue // Fitbit steps values are decimal strings
		}
		stepsByDay[daykey.Key(s.DateTime)] = n
	}

	// Emit every day in the window explicitly so "confirmed zero steps"
	// stays distinguishable from "no ledger entry".
	var samples []shared.DailySample
	for _, day := range daykey.Range(from, to) {
		sample := shared.DailySample{Day: day, Steps: stepsByDay[day]}
		if w, ok := weightByDay[day]; ok {
			weight := w
			sample.Weight = &weight
		}
		samples = append(samples, sample)
	}

	raw, _ := json.Marshal(map[string]json.RawMessage{
		"steps":  stepsBody,
		"weight": weightBody,
	})
	return samples, raw, nil
}
