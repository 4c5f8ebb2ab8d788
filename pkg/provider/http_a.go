// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTPA is the primary free web translation backend: always available,
// no API key, a generous RPM cap, and internal bounded-parallel
// fan-out across its own batch so one slow string doesn't stall the
// rest. Modeled on the original implementation's always-on free web
// translator.
type HTTPA struct {
	Base
	client      *http.Client
	endpoint    string
	sourceLang  string
	targetLang  string
	maxParallel int
}

const (
	httpARPM         = 50
	httpAMaxParallel = 10
	httpABudget      = 15 * time.Second
)

// NewHTTPA constructs the primary free web provider. endpoint is
// injectable for tests; production callers pass the real API base URL.
func NewHTTPA(endpoint, sourceLang, targetLang string) *HTTPA {
	return &HTTPA{
		Base:        NewBase(httpARPM),
		client:      &http.Client{Timeout: httpABudget},
		endpoint:    endpoint,
		sourceLang:  sourceLang,
		targetLang:  targetLang,
		maxParallel: httpAMaxParallel,
	}
}

func (p *HTTPA) Name() string      { return "http_a" }
func (p *HTTPA) IsAvailable() bool { return true }

// TranslateBatch fans out across up to maxParallel concurrent single-
// text requests, bounded by a semaphore, each within httpABudget. A
// failure on one text leaves a hole at its position rather than
// discarding the texts that did resolve; the chain re-tries only the
// holes on the next provider. The call as a whole only fails when
// every text in it failed.
func (p *HTTPA) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	errs := make([]error, len(texts))
	sem := make(chan struct{}, p.maxParallel)
	var wg sync.WaitGroup

	for i, text := range texts {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, text string) {
			defer wg.Done()
			defer func() { <-sem }()
			callCtx, cancel := context.WithTimeout(ctx, httpABudget)
			defer cancel()
			translated, err := p.translateOne(callCtx, text)
			out[i] = translated
			errs[i] = err
		}(i, text)
	}
	wg.Wait()

	resolved := 0
	var firstErr error
	for i, err := range errs {
		if err == nil {
			resolved++
			continue
		}
		if firstErr == nil {
			firstErr = err
		}
		out[i] = ""
	}
	if resolved == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

func (p *HTTPA) translateOne(ctx context.Context, text string) (string, error) {
	p.MarkCalled()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("http_a: build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("sl", p.sourceLang)
	q.Set("tl", p.targetLang)
	q.Set("text", text)
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http_a: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: p.Name(), StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http_a: unexpected status %d", resp.StatusCode)
	}
	return decodeSimpleTranslation(resp)
}

// RateLimitError marks a provider failure as throttling rather than a
// generic error, so the chain's cooldown bookkeeping fires correctly.
type RateLimitError struct {
	Provider   string
	StatusCode int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited (status %d)", e.Provider, e.StatusCode)
}

// IsRateLimit reports whether err (possibly wrapped) signals
// throttling, using the same substring heuristics the original
// per-provider error classifiers used, plus the explicit type for
// providers that can detect it from a status code directly.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := err.(*RateLimitError); ok {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "456") ||
		strings.Contains(msg, "rate") || strings.Contains(msg, "too many")
}
