package ai

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/juju/ratelimit"
	"golang.org/x/sync/singleflight"

	"github.com/giygas/slim-api/entities"
	"github.com/giygas/slim-api/logging"
	"github.com/giygas/slim-api/metrics"
)

const (
	DefaultBaseURL   = "https://profile-prediction-api.onrender.com"
	DefaultTimeout   = 30 * time.Second
	DefaultCacheSize = 256

	predictPath = "/predict"
	maxBodySize = 1 << 20
)

// ErrUnavailable is returned when the classifier cannot be reached.
var ErrUnavailable = errors.New("AI service is not responding. Please try again later.")

// UpstreamError is a response from the classifier that is not a prediction.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI service error: %d - %s", e.Status, e.Detail)
}

// ProbePayload is the fixed patient sent by health probes.
var ProbePayload = Payload{
	FieldSexe:   "M",
	FieldAge:    30.0,
	FieldTaille: 175.0,
	FieldP0:     70.0,
	FieldTSH:    2.5,
}

// Options configures a Client. Zero values pick the defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	CacheSize int // negative disables the cache
	// Outbound throttle: RatePerSecond tokens refill a bucket of Burst.
	// A call waits at most MaxWait for a token.
	RatePerSecond float64
	Burst         int64
	MaxWait       time.Duration
	HTTPClient    *http.Client
}

// Client proxies prediction requests to the classifier.
type Client struct {
	baseURL string
	http    *http.Client
	bucket  *ratelimit.Bucket
	maxWait time.Duration
	cache   *lru.Cache[string, []entities.Prediction]
	group   singleflight.Group
}

// NewClient builds a classifier client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = 2 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	c := &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		bucket:  ratelimit.NewBucketWithRate(opts.RatePerSecond, opts.Burst),
		maxWait: opts.MaxWait,
	}
	if opts.CacheSize > 0 {
		c.cache, _ = lru.New[string, []entities.Prediction](opts.CacheSize)
	}
	return c
}

// Endpoint returns the prediction URL.
func (c *Client) Endpoint() string {
	return c.baseURL + predictPath
}

// Predict scores a payload. Results are sorted by probability, highest first.
// Identical payloads share one in-flight request and successful results are
// cached.
func (c *Client) Predict(ctx context.Context, p Payload) ([]entities.Prediction, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode AI payload: %w", err)
	}
	key := cacheKey(body)

	if c.cache != nil {
		if preds, ok := c.cache.Get(key); ok {
			metrics.AIPredictionsTotal.WithLabelValues("cached").Inc()
			return clonePredictions(preds), nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// Shared by every waiter, so the first caller's cancellation must not abort it.
		preds, err := c.post(context.WithoutCancel(ctx), body)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			c.cache.Add(key, preds)
		}
		return preds, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return clonePredictions(res.Val.([]entities.Prediction)), nil
	}
}

// Probe sends the fixed probe payload, bypassing the cache, and returns the
// round trip time.
func (c *Client) Probe(ctx context.Context) (time.Duration, error) {
	body, err := json.Marshal(ProbePayload)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	if _, err := c.post(ctx, body); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

type predictResponse struct {
	Predictions []entities.Prediction `json:"predictions"`
	Error       string                `json:"error"`
}

func (c *Client) post(ctx context.Context, body []byte) ([]entities.Prediction, error) {
	if !c.bucket.WaitMaxDuration(1, c.maxWait) {
		metrics.AIPredictionsTotal.WithLabelValues("throttled").Inc()
		return nil, fmt.Errorf("%w: outbound rate limit reached", ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build AI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.AIPredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AIPredictionsTotal.WithLabelValues("unavailable").Inc()
		logging.Error("AI service request failed", "url", c.Endpoint(), "error", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		metrics.AIPredictionsTotal.WithLabelValues("unavailable").Inc()
		return nil, ErrUnavailable
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.AIPredictionsTotal.WithLabelValues("upstream_error").Inc()
		upErr := &UpstreamError{Status: resp.StatusCode, Detail: upstreamDetail(raw, resp)}
		logging.Warn("AI service returned an error", "status", resp.StatusCode, "detail", upErr.Detail)
		return nil, upErr
	}

	var out predictResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		metrics.AIPredictionsTotal.WithLabelValues("upstream_error").Inc()
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: "invalid response body"}
	}
	if out.Error != "" {
		metrics.AIPredictionsTotal.WithLabelValues("upstream_error").Inc()
		logging.Warn("AI service could not score payload", "detail", out.Error)
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: out.Error}
	}

	metrics.AIPredictionsTotal.WithLabelValues("ok").Inc()
	return SortPredictions(out.Predictions), nil
}

// upstreamDetail prefers FastAPI's "detail" string, then the status text.
func upstreamDetail(raw []byte, resp *http.Response) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 && string(body.Detail) != "null" {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil && s != "" {
			return s
		}
		// validation errors come back as a list
		return string(body.Detail)
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

// SortPredictions orders predictions by probability, highest first, and
// fills missing percentage labels.
func SortPredictions(preds []entities.Prediction) []entities.Prediction {
	out := clonePredictions(preds)
	for i := range out {
		if out[i].Percentage == "" {
			out[i].Percentage = fmt.Sprintf("%.1f%%", out[i].Probability*100)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Probability > out[j].Probability
	})
	return out
}

func clonePredictions(preds []entities.Prediction) []entities.Prediction {
	out := make([]entities.Prediction, len(preds))
	copy(out, preds)
	return out
}

// cacheKey hashes the encoded payload. encoding/json sorts map keys, so
// equal payloads always encode the same way.
func cacheKey(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
