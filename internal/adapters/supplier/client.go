package supplier

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tourbook/internal/adapters/observability"
	"tourbook/internal/domain"
)

const maxAttempts = 4

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var segments = map[domain.Resource]string{
	domain.ResourceHotel:     "hotels",
	domain.ResourceActivity:  "activities",
	domain.ResourceCarRental: "car-rentals",
	domain.ResourceVisa:      "visas",
}

func (c *Client) path(res domain.Resource) (string, error) {
	seg, ok := segments[res]
	if !ok {
		return "", domain.ErrUnsupportedResource
	}
	return c.base + "/" + seg, nil
}

func (c *Client) GetPackage(ctx context.Context, res domain.Resource, id int64) (map[string]any, error) {
	p, err := c.path(res)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	return out, c.getFirst(ctx, "package", []string{
		fmt.Sprintf("%s/packages/%d", p, id),
		fmt.Sprintf("%s/package/%d", p, id), // legacy
	}, &out)
}

func (c *Client) GetTranslation(ctx context.Context, res domain.Resource, id int64, lang string) (map[string]any, error) {
	p, err := c.path(res)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	return out, c.getFirst(ctx, "translation", []string{
		fmt.Sprintf("%s/packages/%d/translations/%s", p, id, lang),
		fmt.Sprintf("%s/packages/%d/lang/%s", p, id, lang), // legacy
	}, &out)
}

func (c *Client) GetPrices(ctx context.Context, res domain.Resource, id int64) ([]map[string]any, error) {
	p, err := c.path(res)
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	return out, c.getFirst(ctx, "prices", []string{
		fmt.Sprintf("%s/packages/%d/prices", p, id),
		fmt.Sprintf("%s/packages/%d/price-periods", p, id), // legacy
	}, &out)
}

var (
	ErrNotFound     = fmt.Errorf("supplier: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("supplier: unauthorized: %w", domain.ErrAccessDenied)
	ErrForbidden    = fmt.Errorf("supplier: forbidden: %w", domain.ErrAccessDenied)
)

// StatusOf maps a client error to the HTTP status recorded for ingest misses; 0 when unknown.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	}
	return 0
}

// getFirst tries each URL in order; only a 404 moves on to the next candidate.
func (c *Client) getFirst(ctx context.Context, endpoint string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		err := c.get(ctx, endpoint, u, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		last = err
	}
	return last
}

// get performs a rate limited GET and decodes JSON into out.
// 429 and transient 5xx are retried, honoring Retry-After.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-Key", c.key)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "tourbook-ingestor/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("supplier", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("supplier", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("supplier: remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("supplier: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After as seconds or an HTTP date; 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	return base + time.Duration(0.5*float64(b[0])/255.0*float64(base))
}
