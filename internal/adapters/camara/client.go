// Package camara is a thin client for the CAMARA network APIs exposed
// through the RapidAPI Network as Code gateway. It only moves bytes and
// decodes the native reply shapes; mapping to domain signals happens in the
// provider adapters.
package camara

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/netrisk/pkg/json"
)

// Endpoint paths.
const (
	PathSimSwap      = "/passthrough/camara/v1/sim-swap/sim-swap/v0/check"
	PathLocation     = "/location-retrieval/v0/retrieve"
	PathRoaming      = "/device-status/v0/roaming"
	PathConnectivity = "/device-status/v0/connectivity"
)

const maxErrorBody = 200

// Client issues single POST calls to the gateway. It never retries.
type Client struct {
	baseURL string
	apiHost string
	apiKey  string
	http    *http.Client
}

// NewClient creates a client. Timeouts are enforced by the caller's context.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiHost: DefaultAPIHost,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool { return c.apiKey != "" }

// Device addresses a subscriber by phone number.
type Device struct {
	PhoneNumber string `json:"phoneNumber"`
}

type simSwapRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	MaxAge      int    `json:"maxAge"`
}

type deviceRequest struct {
	Device Device `json:"device"`
	MaxAge int    `json:"maxAge,omitempty"`
}

// SimSwapReply is the sim-swap check response.
type SimSwapReply struct {
	Swapped *bool `json:"swapped"`
}

// LocationReply is the location-retrieval response.
type LocationReply struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

// RoamingReply is the device-status roaming response.
type RoamingReply struct {
	Roaming     *bool    `json:"roaming"`
	CountryCode int      `json:"countryCode"`
	CountryName []string `json:"countryName"`
}

// ConnectivityReply is the device-status connectivity response.
type ConnectivityReply struct {
	ConnectivityStatus string `json:"connectivityStatus"`
	LastStatusTime     string `json:"lastStatusTime"`
}

// CheckSimSwap asks whether the SIM changed within maxAgeHours.
func (c *Client) CheckSimSwap(ctx context.Context, phone string, maxAgeHours int) (SimSwapReply, error) {
	var out SimSwapReply
	if err := c.post(ctx, PathSimSwap, simSwapRequest{PhoneNumber: phone, MaxAge: maxAgeHours}, &out); err != nil {
		return out, err
	}
	if out.Swapped == nil {
		return out, fmt.Errorf("%w: %s: missing swapped", ErrMalformedReply, PathSimSwap)
	}
	return out, nil
}

// RetrieveLocation fetches the device position.
func (c *Client) RetrieveLocation(ctx context.Context, phone string, maxAgeSeconds int) (LocationReply, error) {
	var out LocationReply
	if err := c.post(ctx, PathLocation, deviceRequest{Device: Device{PhoneNumber: phone}, MaxAge: maxAgeSeconds}, &out); err != nil {
		return out, err
	}
	if out.Latitude == nil || out.Longitude == nil {
		return out, fmt.Errorf("%w: %s: missing coordinates", ErrMalformedReply, PathLocation)
	}
	return out, nil
}

// Roaming fetches the roaming status.
func (c *Client) Roaming(ctx context.Context, phone string) (RoamingReply, error) {
	var out RoamingReply
	if err := c.post(ctx, PathRoaming, deviceRequest{Device: Device{PhoneNumber: phone}}, &out); err != nil {
		return out, err
	}
	if out.Roaming == nil {
		return out, fmt.Errorf("%w: %s: missing roaming", ErrMalformedReply, PathRoaming)
	}
	return out, nil
}

// Connectivity fetches the reachability status.
func (c *Client) Connectivity(ctx context.Context, phone string) (ConnectivityReply, error) {
	var out ConnectivityReply
	if err := c.post(ctx, PathConnectivity, deviceRequest{Device: Device{PhoneNumber: phone}}, &out); err != nil {
		return out, err
	}
	if out.ConnectivityStatus == "" {
		return out, fmt.Errorf("%w: %s: missing connectivityStatus", ErrMalformedReply, PathConnectivity)
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	if !c.HasCredentials() {
		return ErrMissingCredentials
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.apiHost)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", path, ctx.Err())
		}
		return fmt.Errorf("%w: %s: %v", ErrTransport, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Endpoint: path, Code: resp.StatusCode, Body: string(snippet)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", path, ctx.Err())
		}
		return fmt.Errorf("%w: %s: %v", ErrMalformedReply, path, err)
	}
	return nil
}
