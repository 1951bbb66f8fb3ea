package nlp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
)

// scriptedClient returns a fixed response and counts invocations.
type scriptedClient struct {
	calls   int
	content string
	err     error
}

func (c *scriptedClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	c.calls++
	if c.err != nil {
		return Response{}, c.err
	}
	return Response{Content: c.content}, nil
}

func TestAnalyzeIntentCachesResult(t *testing.T) {
	client := &scriptedClient{content: `{"intent":"greeting","confidence":0.92,"entities":{},"sentiment":"positive"}`}
	c := cache.New(time.Minute)
	defer c.Close()
	analyzer := NewAnalyzer(client, c, time.Minute)

	first := analyzer.AnalyzeIntent(context.Background(), "Hello there", "en")
	second := analyzer.AnalyzeIntent(context.Background(), "Hello there", "en")

	require.Equal(t, 1, client.calls, "second call must be served from cache")
	assert.Same(t, first, second)
	assert.Equal(t, "greeting", first.Intent)
	assert.InDelta(t, 0.92, first.Confidence, 0.001)
}

func TestAnalyzeIntentSeparateCachePerLanguage(t *testing.T) {
	client := &scriptedClient{content: `{"intent":"faq","confidence":0.7,"entities":{},"sentiment":"neutral"}`}
	c := cache.New(time.Minute)
	defer c.Close()
	analyzer := NewAnalyzer(client, c, time.Minute)

	analyzer.AnalyzeIntent(context.Background(), "question", "en")
	analyzer.AnalyzeIntent(context.Background(), "question", "fr")

	assert.Equal(t, 2, client.calls)
}

func TestAnalyzeIntentFallsBackOnModelError(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	c := cache.New(time.Minute)
	defer c.Close()
	analyzer := NewAnalyzer(client, c, time.Minute)

	result := analyzer.AnalyzeIntent(context.Background(), "I need a refund please", "en")

	require.NotNil(t, result)
	assert.Equal(t, "refund_request", result.Intent)
	assert.InDelta(t, 0.6, result.Confidence, 0.001)
	assert.Equal(t, "en", result.Language)
}

func TestAnalyzeIntentDoesNotCacheFallback(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	c := cache.New(time.Minute)
	defer c.Close()
	analyzer := NewAnalyzer(client, c, time.Minute)

	analyzer.AnalyzeIntent(context.Background(), "I need a refund please", "en")
	analyzer.AnalyzeIntent(context.Background(), "I need a refund please", "en")

	assert.Equal(t, 2, client.calls, "a degraded result must not pin the cache")
}

func TestAnalyzeIntentFallsBackOnGarbageOutput(t *testing.T) {
	client := &scriptedClient{content: "Sure! Here is my analysis of the message."}
	c := cache.New(time.Minute)
	defer c.Close()
	analyzer := NewAnalyzer(client, c, time.Minute)

	result := analyzer.AnalyzeIntent(context.Background(), "bonjour", "fr")

	assert.Equal(t, "greeting", result.Intent)
}

func TestParseIntentJSON(t *testing.T) {
	t.Run("strips markdown fences", func(t *testing.T) {
		result, err := parseIntentJSON("```json\n{\"intent\":\"help\",\"confidence\":0.8,\"entities\":{},\"sentiment\":\"neutral\"}\n```")
		require.NoError(t, err)
		assert.Equal(t, "help", result.Intent)
	})

	t.Run("clamps confidence into range", func(t *testing.T) {
		result, err := parseIntentJSON(`{"intent":"help","confidence":1.7,"entities":{},"sentiment":"neutral"}`)
		require.NoError(t, err)
		assert.Equal(t, 1.0, result.Confidence)

		result, err = parseIntentJSON(`{"intent":"help","confidence":-0.2,"entities":{},"sentiment":"neutral"}`)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Confidence)
	})

	t.Run("coerces unknown intent", func(t *testing.T) {
		result, err := parseIntentJSON(`{"intent":"order_pizza","confidence":0.9,"entities":{},"sentiment":"neutral"}`)
		require.NoError(t, err)
		assert.Equal(t, "unknown", result.Intent)
	})

	t.Run("rejects missing confidence", func(t *testing.T) {
		_, err := parseIntentJSON(`{"intent":"help","entities":{},"sentiment":"neutral"}`)
		assert.Error(t, err)
	})

	t.Run("stringifies entity values", func(t *testing.T) {
		result, err := parseIntentJSON(`{"intent":"order_status","confidence":0.9,"entities":{"order_number":12345},"sentiment":"neutral"}`)
		require.NoError(t, err)
		assert.Equal(t, "12345", result.Entities["order_number"])
	})

	t.Run("defaults invalid sentiment to neutral", func(t *testing.T) {
		result, err := parseIntentJSON(`{"intent":"help","confidence":0.9,"entities":{},"sentiment":"ecstatic"}`)
		require.NoError(t, err)
		assert.Equal(t, "neutral", result.Sentiment)
	})
}

func TestKeywordFallback(t *testing.T) {
	t.Run("status check wins over ticket creation", func(t *testing.T) {
		result := keywordFallback("what is the status of my ticket", "en")
		assert.Equal(t, "check_ticket_status", result.Intent)
	})

	t.Run("single words match whole tokens only", func(t *testing.T) {
		// "hi" appears inside "this" but must not match
		result := keywordFallback("this does not work at all", "en")
		assert.NotEqual(t, "greeting", result.Intent)
	})

	t.Run("unknown language falls back to english rules", func(t *testing.T) {
		result := keywordFallback("hello", "de")
		assert.Equal(t, "greeting", result.Intent)
	})

	t.Run("no match yields unknown with low confidence", func(t *testing.T) {
		result := keywordFallback("xyzzy", "en")
		assert.Equal(t, "unknown", result.Intent)
		assert.InDelta(t, 0.1, result.Confidence, 0.001)
	})
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences(`{"a":1}`))
}
