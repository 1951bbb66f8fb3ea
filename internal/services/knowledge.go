package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/models"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/nlp"
	"github.com/Nader-Kojok/chatbot-whatsapp/internal/storage"
)

const (
	// Keyword-tier score above which the semantic tier is skipped.
	keywordShortCircuit = 0.8
	// Minimum normalized keyword score kept as a candidate.
	keywordFloor = 0.3
	// Semantic scores at or below this are discarded.
	similarityThreshold = 0.6
	// Candidate pool size handed to the semantic tier.
	semanticPoolSize = 20
)

// SearchResult is one FAQ match with its confidence and the tier that
// produced it ("keyword" or "semantic").
type SearchResult struct {
	ID         string  `json:"id"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// KnowledgeService runs the two-tier FAQ lookup: a cheap keyword match
// first, then semantic relevance scoring through the hosted model.
// Model failures degrade to keyword-only results and never propagate.
type KnowledgeService struct {
	store    storage.Store
	client   nlp.Client
	cache    *cache.Cache
	cacheTTL time.Duration
}

func NewKnowledgeService(store storage.Store, client nlp.Client, c *cache.Cache, cacheTTL time.Duration) *KnowledgeService {
	return &KnowledgeService{store: store, client: client, cache: c, cacheTTL: cacheTTL}
}

// Search returns the best FAQ match for query, or nil when nothing
// relevant exists. It never returns an error for model failures, only
// for store failures.
func (s *KnowledgeService) Search(ctx context.Context, query, language string, limit int) (*SearchResult, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return nil, nil
	}

	key := searchCacheKey(normalized, language, limit)
	if value, ok := s.cache.Get(key); ok {
		if results, ok := value.([]*SearchResult); ok {
			return firstOrNil(results), nil
		}
	}

	entries, err := s.store.GetActiveKnowledgeBaseEntries(language)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	keywordResults := keywordSearch(entries, normalized)
	if len(keywordResults) > 0 && keywordResults[0].Confidence > keywordShortCircuit {
		results := trimResults(keywordResults, limit)
		s.cache.Set(key, results, s.cacheTTL)
		return results[0], nil
	}

	pool, err := s.store.GetMostUsedKnowledgeBaseEntries(language, semanticPoolSize)
	if err != nil {
		return nil, err
	}
	semanticResults := s.semanticScore(ctx, query, pool)

	results := trimResults(mergeResults(keywordResults, semanticResults), limit)
	s.cache.Set(key, results, s.cacheTTL)
	return firstOrNil(results), nil
}

// RecordUsage bumps the usage counter of a consumed entry.
// Best-effort, not transactional with the read that produced it.
func (s *KnowledgeService) RecordUsage(entryID string) {
	if err := s.store.IncrementKnowledgeBaseUsage(entryID); err != nil {
		log.Printf("⚠️ Failed to record knowledge base usage for %s: %v", entryID, err)
	}
}

// keyword tier

func keywordSearch(entries []*models.KnowledgeBase, normalizedQuery string) []*SearchResult {
	tokens := queryTokens(normalizedQuery)

	var results []*SearchResult
	for _, entry := range entries {
		confidence := scoreEntry(entry, normalizedQuery, tokens)
		if confidence <= keywordFloor {
			continue
		}
		results = append(results, &SearchResult{
			ID:         entry.EntryID,
			Question:   entry.Question,
			Answer:     entry.Answer,
			Category:   entry.Category,
			Confidence: confidence,
			Source:     "keyword",
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results
}

// scoreEntry computes the weighted keyword score normalized by its
// theoretical maximum: exact substring 2, each matching keyword 1,
// each matching question word 0.5, plus a small usage bonus.
func scoreEntry(entry *models.KnowledgeBase, normalizedQuery string, tokens map[string]bool) float64 {
	lowerQuestion := strings.ToLower(entry.Question)
	keywords := entry.KeywordList()
	questionWords := wordsLongerThan(lowerQuestion, 2)

	score := 0.0
	if strings.Contains(lowerQuestion, normalizedQuery) {
		score += 2
	}
	for _, keyword := range keywords {
		lower := strings.ToLower(keyword)
		if strings.Contains(lower, " ") {
			if strings.Contains(normalizedQuery, lower) {
				score += 1
			}
		} else if tokens[lower] {
			score += 1
		}
	}
	for _, word := range questionWords {
		if tokens[word] {
			score += 0.5
		}
	}
	score += math.Min(0.3, float64(entry.UsageCount)*0.01)

	maxScore := 2 + float64(len(keywords)) + float64(len(questionWords))*0.5 + 0.3
	if maxScore == 0 {
		return 0
	}
	return score / maxScore
}

// semantic tier

// semanticScore asks the hosted model to rate each candidate's
// relevance to the query on a 0-1 scale. Any failure yields an empty
// result set; the error never leaves this method.
func (s *KnowledgeService) semanticScore(ctx context.Context, query string, pool []*models.KnowledgeBase) []*SearchResult {
	if len(pool) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "User query: %s\n\nFAQ entries:\n", query)
	for i, entry := range pool {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entry.Question)
	}

	resp, err := s.client.Generate(ctx, []nlp.Message{
		{Role: "system", Content: "Rate how relevant each FAQ entry is to the user query on a 0 to 1 scale (0.8-1 directly answers it, 0.6-0.8 related, below 0.6 weak or unrelated). Respond with a strict JSON array of numbers, one per entry, in order, nothing else."},
		{Role: "user", Content: b.String()},
	})
	if err != nil {
		log.Printf("⚠️ Semantic scoring failed, keeping keyword results only: %v", err)
		return nil
	}

	var scores []float64
	if err := json.Unmarshal([]byte(nlp.StripCodeFences(resp.Content)), &scores); err != nil {
		log.Printf("⚠️ Unparseable semantic scores, keeping keyword results only: %v", err)
		return nil
	}

	var results []*SearchResult
	for i, score := range scores {
		if i >= len(pool) {
			break
		}
		if score <= similarityThreshold {
			continue
		}
		if score > 1 {
			score = 1
		}
		entry := pool[i]
		results = append(results, &SearchResult{
			ID:         entry.EntryID,
			Question:   entry.Question,
			Answer:     entry.Answer,
			Category:   entry.Category,
			Confidence: score,
			Source:     "semantic",
		})
	}
	return results
}

// helpers

// mergeResults combines both tiers, keeping the higher confidence per
// entry, sorted by confidence descending.
func mergeResults(keyword, semantic []*SearchResult) []*SearchResult {
	byID := make(map[string]*SearchResult, len(keyword)+len(semantic))
	for _, r := range keyword {
		byID[r.ID] = r
	}
	for _, r := range semantic {
		if existing, ok := byID[r.ID]; !ok || r.Confidence > existing.Confidence {
			byID[r.ID] = r
		}
	}

	merged := make([]*SearchResult, 0, len(byID))
	for _, r := range byID {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})
	return merged
}

func trimResults(results []*SearchResult, limit int) []*SearchResult {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func firstOrNil(results []*SearchResult) *SearchResult {
	if len(results) == 0 {
		return nil
	}
	return results[0]
}

func queryTokens(normalizedQuery string) map[string]bool {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(normalizedQuery) {
		token = strings.Trim(token, ".,!?;:'\"")
		if len([]rune(token)) > 2 {
			tokens[token] = true
		}
	}
	return tokens
}

func wordsLongerThan(text string, minLen int) []string {
	var words []string
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,!?;:'\"«»")
		if len([]rune(word)) > minLen {
			words = append(words, word)
		}
	}
	return words
}

func searchCacheKey(normalizedQuery, language string, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d", normalizedQuery, language, limit)))
	return "kb:search:" + hex.EncodeToString(sum[:])
}
