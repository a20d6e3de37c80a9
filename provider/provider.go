// Package provider implements the ordered fallback chain shared by the voice
// and image generation stages: a priority list of providers tried in order,
// each with enforced inter-request pacing and bounded retry on rate limits.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"story-video-pipeline/types"
)

// Request describes one asset to produce. Reference and Seed are only
// meaningful to image providers and are ignored by the rest.
type Request struct {
	Scene     types.Scene
	Title     string
	OutPath   string
	Reference string
	Strength  float64
	Seed      int
}

// Provider produces a single asset file at req.OutPath.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) error
}

// RateLimitError signals a throttled request. RetryAfter carries the wait
// the provider suggested, zero when it suggested none.
type RateLimitError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rate limited: %v", e.Err)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// ErrUnavailable marks a provider that cannot serve at all (missing
// credential, missing binary). The chain escalates immediately, no retry.
var ErrUnavailable = errors.New("provider unavailable")

// ExhaustedError is returned when every provider in the chain failed.
type ExhaustedError struct {
	Kind string
	Errs []error
}

func (e *ExhaustedError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %s providers exhausted: %s", e.Kind, strings.Join(msgs, "; "))
}

// Entry configures one provider in a chain. MinDelay is the minimum gap
// between consecutive requests to this provider; MaxAttempts bounds retries
// on rate-limit responses (default 1, i.e. no retry).
type Entry struct {
	Provider    Provider
	MinDelay    time.Duration
	MaxAttempts int
}

type chainEntry struct {
	p           Provider
	limiter     *rate.Limiter
	maxAttempts int
}

// Chain tries providers in priority order until one yields a valid
// (existing, non-empty) asset file.
type Chain struct {
	kind    string
	entries []chainEntry
}

// NewChain builds a chain. The limiter is shared across all requests through
// this chain, so pacing holds globally per provider, not per call site.
func NewChain(kind string, entries ...Entry) *Chain {
	c := &Chain{kind: kind}
	for _, e := range entries {
		limiter := rate.NewLimiter(rate.Inf, 1)
		if e.MinDelay > 0 {
			limiter = rate.NewLimiter(rate.Every(e.MinDelay), 1)
		}
		attempts := e.MaxAttempts
		if attempts < 1 {
			attempts = 1
		}
		c.entries = append(c.entries, chainEntry{p: e.Provider, limiter: limiter, maxAttempts: attempts})
	}
	return c
}

// Produce runs the chain for one request and returns the path of the asset
// that was written. It fails only when every configured provider failed.
func (c *Chain) Produce(ctx context.Context, req Request) (string, error) {
	logf := func(format string, args ...any) {
		log.Printf("["+c.kind+"] "+format, args...)
	}

	var errs []error
	for _, e := range c.entries {
		err := c.tryProvider(ctx, e, req)
		if err == nil {
			if !types.ValidAsset(req.OutPath) {
				err = fmt.Errorf("produced missing or empty asset %s", req.OutPath)
			} else {
				return req.OutPath, nil
			}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logf("scene %d: %s failed: %v — trying next provider", req.Scene.Index, e.p.Name(), err)
		errs = append(errs, fmt.Errorf("%s: %w", e.p.Name(), err))
	}
	return "", &ExhaustedError{Kind: c.kind, Errs: errs}
}

func (c *Chain) tryProvider(ctx context.Context, e chainEntry, req Request) error {
	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = e.p.Generate(ctx, req)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrUnavailable) {
			return lastErr
		}

		var rl *RateLimitError
		if !errors.As(lastErr, &rl) || attempt == e.maxAttempts {
			return lastErr
		}

		wait := rl.RetryAfter
		if wait <= 0 {
			wait = time.Duration(attempt) * 2 * time.Second
		}
		log.Printf("[%s] scene %d: %s rate limited, waiting %s (attempt %d/%d)",
			c.kind, req.Scene.Index, e.p.Name(), wait, attempt, e.maxAttempts)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
