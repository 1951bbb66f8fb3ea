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

func newTestDetector(client Client) (*Detector, *cache.Cache) {
	c := cache.New(time.Minute)
	return NewDetector(client, c, time.Minute, []string{"fr", "en"}), c
}

func TestDetectHeuristicSkipsAPI(t *testing.T) {
	client := &scriptedClient{content: "en"}
	detector, c := newTestDetector(client)
	defer c.Close()

	lang := detector.Detect(context.Background(), "bonjour je voudrais de l'aide avec ma facture")

	assert.Equal(t, "fr", lang)
	assert.Equal(t, 0, client.calls, "conclusive heuristic must not call the API")
}

func TestDetectInconclusiveUsesAPI(t *testing.T) {
	client := &scriptedClient{content: "EN"}
	detector, c := newTestDetector(client)
	defer c.Close()

	lang := detector.Detect(context.Background(), "ok")
	require.Equal(t, "en", lang)
	require.Equal(t, 1, client.calls)

	// Second lookup of the same text is served from cache
	detector.Detect(context.Background(), "ok")
	assert.Equal(t, 1, client.calls)
}

func TestDetectUnsupportedCodeReturnsEmpty(t *testing.T) {
	client := &scriptedClient{content: "de"}
	detector, c := newTestDetector(client)
	defer c.Close()

	assert.Equal(t, "", detector.Detect(context.Background(), "wie geht es dir"))
}

func TestDetectAPIFailureReturnsEmpty(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	detector, c := newTestDetector(client)
	defer c.Close()

	assert.Equal(t, "", detector.Detect(context.Background(), "ok"))
}

func TestDetectTieIsInconclusive(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	detector, c := newTestDetector(client)
	defer c.Close()

	// "merci thanks" scores one stopword per language
	assert.Equal(t, "", detector.Detect(context.Background(), "merci thanks"))
}
