// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"log/slog"
	"strings"
)

func (c *Chain) incCacheHit() {
	if c.Metrics != nil {
		c.Metrics.cacheHits.Inc()
	}
}

func (c *Chain) incCacheMiss() {
	if c.Metrics != nil {
		c.Metrics.cacheMisses.Inc()
	}
}

func (c *Chain) incRequest(provider, outcome string) {
	if c.Metrics != nil {
		c.Metrics.requestsTotal.WithLabelValues(provider, outcome).Inc()
	}
}

func (c *Chain) incCooldown(provider string) {
	if c.Metrics != nil {
		c.Metrics.cooldownTotal.WithLabelValues(provider).Inc()
	}
}

// Cache is the subset of pkg/cache's two-level cache the Chain needs.
// Defined here, rather than imported from pkg/cache, so pkg/provider
// has no dependency on the cache package's storage details.
type Cache interface {
	Lookup(text string) (string, bool)
	Store(text, translated string)
}

// Chain walks a fixed priority order of providers, narrowing to the
// texts still unresolved after each one, exactly as the original
// implementation's engine.translate_batch does: a cache-lookup pass
// first, then one batch call per provider against whatever remains
// pending, falling back to the original text for anything no provider
// could resolve.
type Chain struct {
	Providers []Provider
	Cache     Cache
	Metrics   *Metrics
	Logger    *slog.Logger
}

// NewChain builds a Chain. logger and metrics may be nil; a nil logger
// uses slog.Default(), a nil Metrics simply skips instrumentation.
func NewChain(providers []Provider, cache Cache, metrics *Metrics, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{Providers: providers, Cache: cache, Metrics: metrics, Logger: logger}
}

// Translate resolves a single string through the chain.
func (c *Chain) Translate(ctx context.Context, text string) (string, error) {
	out, err := c.TranslateBatch(ctx, []string{text})
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// isNoOpTranslation reports whether candidate is, after trimming and
// case-folding, identical to original — the "translation" that just
// echoed its input back. The single-translate policy treats this the
// same as an outright failure: the text stays pending rather than
// being accepted and cached, matching the identity check pkg/cache
// applies before storing an entry.
func isNoOpTranslation(original, candidate string) bool {
	return strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(original))
}

// TranslateBatch resolves every text positionally. It never returns an
// error for translation failures — unresolved texts fall back to
// their original value, matching spec: per-file/per-provider failures
// are data, not raised errors. The returned error is reserved for
// caller-context cancellation.
func (c *Chain) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	result := make([]string, len(texts))
	resolved := make([]bool, len(texts))

	pending := make([]int, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			result[i] = text
			resolved[i] = true
			continue
		}
		if c.Cache != nil {
			if cached, ok := c.Cache.Lookup(text); ok {
				result[i] = cached
				resolved[i] = true
				c.incCacheHit()
				continue
			}
		}
		c.incCacheMiss()
		pending = append(pending, i)
	}

	for _, p := range c.Providers {
		if len(pending) == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if !p.IsAvailable() {
			continue
		}
		if ok, retryAfter := p.CheckRateLimit(); !ok {
			c.Logger.Debug("provider.cooldown.skip", "provider", p.Name(), "retry_after", retryAfter)
			continue
		}

		pendingTexts := make([]string, len(pending))
		for j, idx := range pending {
			pendingTexts[j] = texts[idx]
		}

		translated, err := p.TranslateBatch(ctx, pendingTexts)
		if err != nil {
			isRL := IsRateLimit(err)
			p.RecordFailure(err.Error(), isRL)
			if isRL {
				c.Logger.Info("provider.cooldown.enter", "provider", p.Name())
				c.incCooldown(p.Name())
			}
			c.incRequest(p.Name(), "failure")
			continue
		}

		// A provider call can succeed overall yet leave individual
		// positions unresolved: a hole (empty string) from a partial
		// batch failure, or a no-op response that just echoed the
		// input back. Either way that position stays pending for the
		// next provider instead of being accepted and cached.
		stillPending := pending[:0]
		resolvedAny := false
		for j, idx := range pending {
			candidate := translated[j]
			if candidate == "" || isNoOpTranslation(texts[idx], candidate) {
				stillPending = append(stillPending, idx)
				continue
			}
			result[idx] = candidate
			resolved[idx] = true
			resolvedAny = true
			if c.Cache != nil {
				c.Cache.Store(texts[idx], candidate)
			}
		}
		pending = stillPending

		if resolvedAny {
			p.RecordSuccess()
			c.incRequest(p.Name(), "success")
		} else {
			p.RecordFailure("no-op translation: provider echoed input unchanged", false)
			c.incRequest(p.Name(), "failure")
		}
	}

	if len(pending) > 0 && ctx.Err() != nil {
		return nil, ctx.Err()
	}

	for i, ok := range resolved {
		if !ok {
			result[i] = texts[i]
		}
	}
	return result, nil
}
