package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"

	"github.com/ruvasqm/rate-tray/common"
	"github.com/ruvasqm/rate-tray/config"
)

var log = logger.GetOrCreate("fetcher")

const apiKeyHeader = "X-Api-Key"

type httpFetcher struct {
	cfg    config.SourceConfig
	apiKey string
	client *http.Client
}

// NewHTTPFetcher creates a new HTTP-based fetcher with the configured timeout.
// The apiKey is optional and sent as the X-Api-Key header when not empty.
func NewHTTPFetcher(cfg config.SourceConfig, apiKey string) *httpFetcher {
	return &httpFetcher{
		cfg:    cfg,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutInSeconds) * time.Second,
		},
	}
}

// Fetch performs a single HTTP GET against the configured source and extracts
// the value (and optional timestamp) at the configured JSON paths. It makes
// exactly one attempt; retrying is the scheduler's responsibility.
func (f *httpFetcher) Fetch(ctx context.Context) (common.Reading, error) {
	body, err := f.getBody(ctx)
	if err != nil {
		return common.Reading{}, err
	}

	if !gjson.ValidBytes(body) {
		return common.Reading{}, fmt.Errorf("%w: body is not valid JSON", ErrParse)
	}

	result := gjson.GetBytes(body, f.cfg.ValuePath)
	if !result.Exists() {
		return common.Reading{}, fmt.Errorf("%w: JSON path not found: %s", ErrParse, f.cfg.ValuePath)
	}
	if result.Type != gjson.Number {
		return common.Reading{}, fmt.Errorf("%w: value at %s is not numeric", ErrParse, f.cfg.ValuePath)
	}

	value := result.Float()
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return common.Reading{}, fmt.Errorf("%w: %v", ErrInvalidValue, value)
	}

	reading := common.Reading{
		Value:      value,
		ObservedAt: f.extractTimestamp(body),
	}

	log.Debug("fetched reading", "value", reading.Value, "observedAt", reading.ObservedAt)

	return reading, nil
}

func (f *httpFetcher) getBody(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if len(f.apiKey) > 0 {
		req.Header.Set(apiKeyHeader, f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: non-2xx HTTP status code: %s", ErrNetwork, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	return body, nil
}

// extractTimestamp reads the optional server-side timestamp, accepting RFC3339
// strings or unix seconds, falling back to the local receipt time
func (f *httpFetcher) extractTimestamp(body []byte) time.Time {
	if len(f.cfg.TimestampPath) == 0 {
		return time.Now()
	}

	result := gjson.GetBytes(body, f.cfg.TimestampPath)
	switch {
	case result.Type == gjson.String:
		ts, err := time.Parse(time.RFC3339, result.String())
		if err == nil {
			return ts
		}
	case result.Type == gjson.Number:
		return time.Unix(result.Int(), 0)
	}

	log.Debug("timestamp path missing or unparsable, using local time", "path", f.cfg.TimestampPath)

	return time.Now()
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// IsInterfaceNil returns true if the value under the interface is nil
func (f *httpFetcher) IsInterfaceNil() bool {
	return f == nil
}
