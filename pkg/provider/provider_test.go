// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooldownMathDoublesAndCaps(t *testing.T) {
	b := &Base{}
	want := []time.Duration{60, 120, 240, 480, 480}
	for i, w := range want {
		b.RecordFailure("throttled", true)
		ok, retryAfter := b.CheckRateLimit()
		require.False(t, ok, "iteration %d", i)
		assert.InDelta(t, w*time.Second, retryAfter, float64(time.Second), "iteration %d", i)
	}
}

func TestRecordSuccessClearsCooldown(t *testing.T) {
	b := &Base{}
	b.RecordFailure("throttled", true)
	ok, _ := b.CheckRateLimit()
	require.False(t, ok)

	b.RecordSuccess()
	ok, _ = b.CheckRateLimit()
	assert.True(t, ok)
}

func TestBasePacesByRPM(t *testing.T) {
	b := NewBase(60) // one call per second
	b.MarkCalled()
	ok, retryAfter := b.CheckRateLimit()
	assert.False(t, ok)
	assert.Greater(t, retryAfter, time.Duration(0))
}

type stubProvider struct {
	Base
	name      string
	available bool
	translate func(ctx context.Context, texts []string) ([]string, error)
}

func (s *stubProvider) Name() string      { return s.name }
func (s *stubProvider) IsAvailable() bool { return s.available }
func (s *stubProvider) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	return s.translate(ctx, texts)
}

type stubCache struct {
	store map[string]string
}

func (c *stubCache) Lookup(text string) (string, bool) {
	v, ok := c.store[text]
	return v, ok
}
func (c *stubCache) Store(text, translated string) {
	c.store[text] = translated
}

func TestChainFallsThroughProviders(t *testing.T) {
	first := &stubProvider{name: "first", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		return nil, &RateLimitError{Provider: "first", StatusCode: 429}
	}}
	second := &stubProvider{name: "second", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, t := range texts {
			out[i] = "xx-" + t
		}
		return out, nil
	}}

	chain := NewChain([]Provider{first, second}, &stubCache{store: map[string]string{}}, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"xx-a", "xx-b"}, out)
}

func TestChainSkipsUnavailableProvider(t *testing.T) {
	unavailable := &stubProvider{name: "locked", available: false, translate: func(ctx context.Context, texts []string) ([]string, error) {
		t.Fatal("must not be called")
		return nil, nil
	}}
	usable := &stubProvider{name: "ok", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		return texts, nil
	}}

	chain := NewChain([]Provider{unavailable, usable}, &stubCache{store: map[string]string{}}, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"hi"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, out)
}

func TestChainFallsBackToOriginalWhenAllProvidersFail(t *testing.T) {
	failing := &stubProvider{name: "down", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		return nil, errors.New("boom")
	}}

	chain := NewChain([]Provider{failing}, &stubCache{store: map[string]string{}}, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"keep me"})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep me"}, out)
}

func TestChainUsesCacheBeforeCallingProviders(t *testing.T) {
	called := false
	p := &stubProvider{name: "p", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		called = true
		return texts, nil
	}}
	cache := &stubCache{store: map[string]string{"hello": "olá"}}

	chain := NewChain([]Provider{p}, cache, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"olá"}, out)
	assert.False(t, called)
}

func TestChainStoresNewTranslationsInCache(t *testing.T) {
	p := &stubProvider{name: "p", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		return []string{"traduzido"}, nil
	}}
	cache := &stubCache{store: map[string]string{}}

	chain := NewChain([]Provider{p}, cache, nil, nil)
	_, err := chain.TranslateBatch(context.Background(), []string{"original"})
	require.NoError(t, err)
	v, ok := cache.Lookup("original")
	require.True(t, ok)
	assert.Equal(t, "traduzido", v)
}

func TestChainPositionalAlignmentAcrossPartialCacheHits(t *testing.T) {
	p := &stubProvider{name: "p", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, t := range texts {
			out[i] = "T:" + t
		}
		return out, nil
	}}
	cache := &stubCache{store: map[string]string{"b": "cached-b"}}

	chain := NewChain([]Provider{p}, cache, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"T:a", "cached-b", "T:c"}, out)
}

func TestChainPartitionsBatchAcrossProviders(t *testing.T) {
	// Each provider resolves the text(s) it recognizes and echoes
	// everything else back unchanged, as a no-op provider does when it
	// can't translate a given string. The chain must treat every echo
	// as still-pending and narrow down to the next provider rather
	// than accepting it, so "a" resolves on provider 1, "b" only after
	// falling through to provider 2, and "c" only after provider 3.
	first := &stubProvider{name: "first", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, t := range texts {
			if t == "a" {
				out[i] = "A1"
				continue
			}
			out[i] = t
		}
		return out, nil
	}}
	second := &stubProvider{name: "second", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, t := range texts {
			if t == "b" {
				out[i] = "B2"
				continue
			}
			out[i] = t
		}
		return out, nil
	}}
	third := &stubProvider{name: "third", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		out := make([]string, len(texts))
		for i, t := range texts {
			out[i] = "C3:" + t
		}
		return out, nil
	}}

	chain := NewChain([]Provider{first, second, third}, &stubCache{store: map[string]string{}}, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2", "C3:c"}, out)

	assert.EqualValues(t, 1, first.Snapshot().Successes)
	assert.EqualValues(t, 1, second.Snapshot().Successes)
	assert.EqualValues(t, 1, third.Snapshot().Successes)
}

func TestChainTreatsNoOpTranslationAsUnresolved(t *testing.T) {
	noop := &stubProvider{name: "noop", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		// echoes the input back, differing only by case/whitespace
		out := make([]string, len(texts))
		for i, t := range texts {
			out[i] = "  " + strings.ToUpper(t) + "  "
		}
		return out, nil
	}}

	chain := NewChain([]Provider{noop}, &stubCache{store: map[string]string{}}, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, out, "a no-op (trim+casefold-identical) response must fall back to the original text")
	assert.EqualValues(t, 1, noop.Snapshot().Failures)
	assert.EqualValues(t, 0, noop.Snapshot().Successes)
}

func TestChainSkipsEmptyAndWhitespaceInputWithoutCallingProviders(t *testing.T) {
	p := &stubProvider{name: "p", available: true, translate: func(ctx context.Context, texts []string) ([]string, error) {
		t.Fatal("must not be called for blank input")
		return nil, nil
	}}
	cache := &stubCache{store: map[string]string{}}

	chain := NewChain([]Provider{p}, cache, nil, nil)
	out, err := chain.TranslateBatch(context.Background(), []string{"", "   ", "\t\n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "   ", "\t\n"}, out)
}

func TestShellTreatsIdenticalOutputAsRateLimit(t *testing.T) {
	s := NewShell("trans", "en", "pt")
	s.lookup = func(string) (string, error) { return "/usr/bin/trans", nil }
	s.run = func(ctx context.Context, bin string, args ...string) (string, error) {
		// the wrapped CLI echoes input back verbatim when throttled.
		return args[len(args)-1], nil
	}

	_, err := s.translateOne(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, IsRateLimit(err))
}

func TestShellReturnsTranslationWhenOutputDiffers(t *testing.T) {
	s := NewShell("trans", "en", "pt")
	s.lookup = func(string) (string, error) { return "/usr/bin/trans", nil }
	s.run = func(ctx context.Context, bin string, args ...string) (string, error) {
		return "olá", nil
	}

	out, err := s.translateOne(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "olá", out)
}

func TestIsRateLimitHeuristics(t *testing.T) {
	assert.True(t, IsRateLimit(errors.New("status 429")))
	assert.True(t, IsRateLimit(errors.New("got 456 from upstream")))
	assert.True(t, IsRateLimit(errors.New("Too Many requests")))
	assert.False(t, IsRateLimit(errors.New("connection refused")))
	assert.False(t, IsRateLimit(nil))
}
