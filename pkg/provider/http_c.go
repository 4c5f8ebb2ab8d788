// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPC is the public fallback backend: always available (no key), a
// conservative RPM cap, and strictly sequential one-text-at-a-time
// requests — no internal parallelism, since the upstream service it
// models tends to throttle aggressively under any burst. Modeled on
// the original implementation's community-run fallback translator,
// which is tried only after the two primary backends are exhausted.
type HTTPC struct {
	Base
	client   *http.Client
	endpoint string
	srcLang  string
	tgtLang  string
	email    string
}

const (
	httpCRPM    = 30
	httpCBudget = 10 * time.Second
)

// NewHTTPC constructs the public fallback provider. email is optional
// and, when set, raises the upstream service's anonymous rate limit.
func NewHTTPC(endpoint, srcLang, tgtLang, email string) *HTTPC {
	return &HTTPC{
		Base:     NewBase(httpCRPM),
		client:   &http.Client{Timeout: httpCBudget},
		endpoint: endpoint,
		srcLang:  srcLang,
		tgtLang:  tgtLang,
		email:    email,
	}
}

func (p *HTTPC) Name() string      { return "http_c" }
func (p *HTTPC) IsAvailable() bool { return true }

// TranslateBatch issues one request per text, strictly in order.
func (p *HTTPC) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		callCtx, cancel := context.WithTimeout(ctx, httpCBudget)
		translated, err := p.translateOne(callCtx, text)
		cancel()
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

func (p *HTTPC) translateOne(ctx context.Context, text string) (string, error) {
	p.MarkCalled()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("http_c: build request: %w", err)
	}
	q := url.Values{}
	q.Set("langpair", p.srcLang+"|"+p.tgtLang)
	q.Set("q", text)
	if p.email != "" {
		q.Set("de", p.email)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http_c: request failed: %w", err)
	}
	defer resp.Body.Close()

	result, status, err := decodeStatusedTranslation(resp)
	if err != nil {
		return "", err
	}
	if status == http.StatusTooManyRequests {
		return "", &RateLimitError{Provider: p.Name(), StatusCode: status}
	}
	return result, nil
}
