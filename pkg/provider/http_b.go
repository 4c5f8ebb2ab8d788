// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPB is the key-gated premium backend: unavailable without an API
// key, a lower RPM cap, and a single form POST per batch call (the
// upstream API accepts multiple "text" fields in one request).
// Modeled on the original implementation's key-gated premium
// translator, which is skipped entirely from the provider chain when
// no key is configured.
type HTTPB struct {
	Base
	client   *http.Client
	endpoint string
	apiKey   string
	srcLang  string
	tgtLang  string
}

const (
	httpBRPM    = 30
	httpBBudget = 30 * time.Second
)

// NewHTTPB constructs the key-gated premium provider. An empty apiKey
// makes IsAvailable false, matching the original's key-presence gate.
func NewHTTPB(endpoint, apiKey, srcLang, tgtLang string) *HTTPB {
	return &HTTPB{
		Base:     NewBase(httpBRPM),
		client:   &http.Client{Timeout: httpBBudget},
		endpoint: endpoint,
		apiKey:   apiKey,
		srcLang:  srcLang,
		tgtLang:  tgtLang,
	}
}

func (p *HTTPB) Name() string      { return "http_b" }
func (p *HTTPB) IsAvailable() bool { return p.apiKey != "" }

// TranslateBatch issues one form POST carrying every text in the
// batch, matching the upstream API's multi-value "text" field.
func (p *HTTPB) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	if !p.IsAvailable() {
		return nil, fmt.Errorf("http_b: no API key configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, httpBBudget)
	defer cancel()

	form := url.Values{}
	form.Set("auth_key", p.apiKey)
	form.Set("source_lang", p.srcLang)
	form.Set("target_lang", p.tgtLang)
	for _, t := range texts {
		form.Add("text", t)
	}

	p.MarkCalled()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("http_b: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http_b: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 456 {
		return nil, &RateLimitError{Provider: p.Name(), StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http_b: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("http_b: read response: %w", err)
	}
	var parsed struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("http_b: decode response: %w", err)
	}
	if len(parsed.Translations) != len(texts) {
		return nil, fmt.Errorf("http_b: got %d translations for %d inputs", len(parsed.Translations), len(texts))
	}

	out := make([]string, len(texts))
	for i, t := range parsed.Translations {
		out[i] = t.Text
	}
	return out, nil
}
