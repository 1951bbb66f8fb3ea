package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/nlp"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

// scriptedClient returns a fixed response and counts invocations.
type scriptedClient struct {
	calls   int
	content string
	err     error
}

func (c *scriptedClient) Generate(ctx context.Context, messages []nlp.Message) (nlp.Response, error) {
	c.calls++
	if c.err != nil {
		return nlp.Response{}, c.err
	}
	return nlp.Response{Content: c.content}, nil
}

func seedEntry(t *testing.T, store storage.Store, question, answer, language string, keywords []string) *models.KnowledgeBase {
	t.Helper()
	entry := &models.KnowledgeBase{
		Question: question,
		Answer:   answer,
		Category: "general",
		Language: language,
		IsActive: true,
	}
	entry.SetKeywordList(keywords)
	require.NoError(t, store.CreateKnowledgeBaseEntry(entry))
	return entry
}

func newTestKnowledgeService(t *testing.T, client nlp.Client) (*KnowledgeService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)
	return NewKnowledgeService(store, client, c, time.Minute), store
}

func TestSearchEmptyStoreReturnsNil(t *testing.T) {
	client := &scriptedClient{}
	service, _ := newTestKnowledgeService(t, client)

	result, err := service.Search(context.Background(), "anything at all", "fr", 3)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Zero(t, client.calls)
}

func TestSearchKeywordShortCircuitSkipsModel(t *testing.T) {
	client := &scriptedClient{content: "[0.9]"}
	service, store := newTestKnowledgeService(t, client)
	entry := seedEntry(t, store, "horaires", "Nous sommes ouverts de 9h à 18h.", "fr", []string{"horaires"})

	result, err := service.Search(context.Background(), "horaires", "fr", 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, entry.EntryID, result.ID)
	assert.Equal(t, "keyword", result.Source)
	assert.Greater(t, result.Confidence, 0.8)
	assert.Zero(t, client.calls, "strong keyword match must skip the semantic tier")
}

func TestSearchSemanticTier(t *testing.T) {
	client := &scriptedClient{content: "[0.95]"}
	service, store := newTestKnowledgeService(t, client)
	seedEntry(t, store, "How do I reset my password?", "Click the forgot password link.", "en", []string{"password", "reset"})

	result, err := service.Search(context.Background(), "way of changing login credentials", "en", 3)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "semantic", result.Source)
	assert.InDelta(t, 0.95, result.Confidence, 0.001)
	assert.Equal(t, 1, client.calls)
}

func TestSearchModelFailureDegradesToNil(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	service, store := newTestKnowledgeService(t, client)
	seedEntry(t, store, "How do I reset my password?", "Click the forgot password link.", "en", []string{"password", "reset"})

	result, err := service.Search(context.Background(), "entirely unrelated gibberish", "en", 3)
	require.NoError(t, err, "model failure must not surface as an error")
	assert.Nil(t, result)
}

func TestSearchCachesResults(t *testing.T) {
	client := &scriptedClient{content: "[0.95]"}
	service, store := newTestKnowledgeService(t, client)
	seedEntry(t, store, "How do I reset my password?", "Click the forgot password link.", "en", []string{"password", "reset"})

	_, err := service.Search(context.Background(), "way of changing login credentials", "en", 3)
	require.NoError(t, err)
	_, err = service.Search(context.Background(), "way of changing login credentials", "en", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls, "second search must be served from cache")
}

func TestSearchScopedByLanguage(t *testing.T) {
	client := &scriptedClient{err: errors.New("model down")}
	service, store := newTestKnowledgeService(t, client)
	seedEntry(t, store, "horaires", "Nous sommes ouverts de 9h à 18h.", "fr", []string{"horaires"})

	result, err := service.Search(context.Background(), "horaires", "en", 3)
	require.NoError(t, err)
	assert.Nil(t, result, "entries of other languages must not match")
}

func TestRecordUsageIncrementsCounter(t *testing.T) {
	client := &scriptedClient{}
	service, store := newTestKnowledgeService(t, client)
	entry := seedEntry(t, store, "horaires", "Nous sommes ouverts de 9h à 18h.", "fr", []string{"horaires"})

	service.RecordUsage(entry.EntryID)

	entries, err := store.GetActiveKnowledgeBaseEntries("fr")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].UsageCount)
}
