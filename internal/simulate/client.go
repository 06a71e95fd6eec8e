package simulate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/netrisk/pkg/json"
)

// Client talks to the evaluation API.
type Client struct {
	base string
	http *http.Client
}

// NewClient returns a Client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: baseURL, http: &http.Client{Timeout: timeout}}
}

// Outcome classifies a submission.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeDuplicate
	OutcomeFailed
)

// WaitReady polls /readyz until it answers 200 or attempts run out.
func (c *Client) WaitReady(ctx context.Context) error {
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), readyMaxAttempts), ctx)
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/readyz", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("readyz returned %d", resp.StatusCode)
		}
		return nil
	}, b)
}

// Evaluate posts tx and decodes the result.
func (c *Client) Evaluate(ctx context.Context, tx Transaction) (Result, Outcome, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return Result{}, OutcomeFailed, fmt.Errorf("marshal transaction: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return Result{}, OutcomeFailed, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, OutcomeFailed, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res Result
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return Result{}, OutcomeFailed, fmt.Errorf("decode result: %w", err)
		}
		return res, OutcomeOK, nil
	case http.StatusConflict:
		return Result{}, OutcomeDuplicate, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, OutcomeFailed, fmt.Errorf("evaluate returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
}

// AuditEntry is the part of an audit record verification reads.
type AuditEntry struct {
	ID          string `json:"id"`
	Sequence    int64  `json:"sequence"`
	Transaction struct {
		ID string `json:"id"`
	} `json:"transaction"`
	Breakdown struct {
		WeightedScore  float64 `json:"weighted_score"`
		ConditionScore float64 `json:"condition_score"`
		FinalScore     float64 `json:"final_score"`
		Decision       string  `json:"decision"`
	} `json:"breakdown"`
}

// History fetches up to limit audit records for identifier.
func (c *Client) History(ctx context.Context, identifier string, limit int) ([]AuditEntry, error) {
	u := c.base + "/v1/audit/" + url.PathEscape(identifier) + "?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audit %s returned %d", identifier, resp.StatusCode)
	}

	var out struct {
		Records []AuditEntry `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode audit %s: %w", identifier, err)
	}
	return out.Records, nil
}
