package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
)

// Intents is the fixed intent set the classifier may return.
var Intents = []string{
	"greeting", "help", "create_ticket", "check_ticket_status", "faq",
	"contact_agent", "goodbye", "complaint", "compliment",
	"product_inquiry", "order_status", "refund_request",
	"technical_support", "billing_inquiry", "unknown",
}

var intentSet = func() map[string]bool {
	set := make(map[string]bool, len(Intents))
	for _, intent := range Intents {
		set[intent] = true
	}
	return set
}()

// IntentResult is the normalized classification outcome.
type IntentResult struct {
	Intent       string            `json:"intent"`
	Confidence   float64           `json:"confidence"`
	Entities     map[string]string `json:"entities"`
	Sentiment    string            `json:"sentiment"`
	OriginalText string            `json:"original_text"`
	Language     string            `json:"language"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Analyzer classifies user utterances through the hosted model, with a
// keyword fallback when the model fails or returns garbage.
type Analyzer struct {
	client   Client
	cache    *cache.Cache
	cacheTTL time.Duration
}

func NewAnalyzer(client Client, c *cache.Cache, cacheTTL time.Duration) *Analyzer {
	return &Analyzer{client: client, cache: c, cacheTTL: cacheTTL}
}

// AnalyzeIntent classifies text. It never fails: any model or parse
// error degrades to the keyword fallback. Model results are cached per
// (text, language); fallback results are not.
func (a *Analyzer) AnalyzeIntent(ctx context.Context, text, language string) *IntentResult {
	key := cacheKey("intent", language, text)
	if value, ok := a.cache.Get(key); ok {
		if result, ok := value.(*IntentResult); ok {
			return result
		}
	}

	result, err := a.classify(ctx, text, language)
	if err != nil {
		log.Printf("⚠️ Intent classification failed, using keyword fallback: %v", err)
		result = keywordFallback(text, language)
	}

	result.OriginalText = truncate(text, 200)
	result.Language = language
	result.Timestamp = time.Now()

	// Fallback results are degraded; leave them uncached so the model
	// is retried on the next message instead of pinned for the TTL.
	if err == nil {
		a.cache.Set(key, result, a.cacheTTL)
	}
	return result
}

func (a *Analyzer) classify(ctx context.Context, text, language string) (*IntentResult, error) {
	system := fmt.Sprintf(`You are an intent classifier for a customer support chatbot.
Classify the user message into exactly one of these intents: %s.
Respond with strict JSON only, no prose, in this shape:
{"intent": "...", "confidence": 0.0, "entities": {}, "sentiment": "positive|neutral|negative"}
The message language is %q.`, strings.Join(Intents, ", "), language)

	resp, err := a.client.Generate(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, err
	}

	return parseIntentJSON(resp.Content)
}

// parseIntentJSON treats the model output as untrusted: markdown fences
// are stripped, field shapes are validated, confidence is clamped into
// [0,1] and unknown intents are coerced to "unknown".
func parseIntentJSON(content string) (*IntentResult, error) {
	var raw struct {
		Intent     string                 `json:"intent"`
		Confidence *float64               `json:"confidence"`
		Entities   map[string]interface{} `json:"entities"`
		Sentiment  string                 `json:"sentiment"`
	}

	cleaned := StripCodeFences(content)
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("unparseable model output: %w", err)
	}
	if raw.Intent == "" || raw.Confidence == nil {
		return nil, fmt.Errorf("model output missing intent or confidence")
	}

	intent := strings.ToLower(strings.TrimSpace(raw.Intent))
	if !intentSet[intent] {
		intent = "unknown"
	}

	confidence := *raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	entities := make(map[string]string, len(raw.Entities))
	for name, value := range raw.Entities {
		entities[name] = fmt.Sprint(value)
	}

	sentiment := strings.ToLower(strings.TrimSpace(raw.Sentiment))
	switch sentiment {
	case "positive", "neutral", "negative":
	default:
		sentiment = "neutral"
	}

	return &IntentResult{
		Intent:     intent,
		Confidence: confidence,
		Entities:   entities,
		Sentiment:  sentiment,
	}, nil
}

// AnalyzeSentiment classifies the sentiment of text. Unlike intent
// analysis it has no local fallback; quota errors surface as
// ServiceUnavailable.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, text string) (string, error) {
	resp, err := a.client.Generate(ctx, []Message{
		{Role: "system", Content: "Classify the sentiment of the user message. Respond with exactly one word: positive, neutral or negative."},
		{Role: "user", Content: text},
	})
	if err != nil {
		return "", err
	}

	sentiment := strings.ToLower(strings.TrimSpace(resp.Content))
	switch sentiment {
	case "positive", "neutral", "negative":
		return sentiment, nil
	}
	return "neutral", nil
}

// ExtractEntities pulls named entities out of text. No local fallback.
func (a *Analyzer) ExtractEntities(ctx context.Context, text string) (map[string]string, error) {
	resp, err := a.client.Generate(ctx, []Message{
		{Role: "system", Content: "Extract named entities (names, dates, products, order numbers) from the user message. Respond with a strict JSON object mapping entity names to values, nothing else."},
		{Role: "user", Content: text},
	})
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(StripCodeFences(resp.Content)), &raw); err != nil {
		return nil, fmt.Errorf("unparseable entity output: %w", err)
	}

	entities := make(map[string]string, len(raw))
	for name, value := range raw {
		entities[name] = fmt.Sprint(value)
	}
	return entities, nil
}

// GenerateResponse produces a free-text answer in the given language.
// No local fallback; callers decide what to do with an error.
func (a *Analyzer) GenerateResponse(ctx context.Context, text, language string) (string, error) {
	system := fmt.Sprintf("You are a helpful customer support assistant. Answer the user briefly and politely in the language %q. If you genuinely cannot help, say so in one sentence.", language)
	resp, err := a.client.Generate(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: text},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// keyword fallback

type keywordRule struct {
	intent string
	words  []string
}

// Order matters: first match wins. Status checks are listed before
// ticket creation so "my ticket status" does not open a new ticket.
var fallbackRules = map[string][]keywordRule{
	"en": {
		{"greeting", []string{"hello", "hi", "hey", "good morning", "good evening"}},
		{"goodbye", []string{"bye", "goodbye", "see you"}},
		{"contact_agent", []string{"agent", "human", "representative", "someone real"}},
		{"check_ticket_status", []string{"status", "my tickets", "track my ticket"}},
		{"create_ticket", []string{"ticket", "problem", "issue", "broken", "not working", "bug"}},
		{"refund_request", []string{"refund", "money back", "reimburse"}},
		{"order_status", []string{"order", "delivery", "package", "shipment"}},
		{"billing_inquiry", []string{"invoice", "bill", "charge", "payment"}},
		{"technical_support", []string{"error", "crash", "password", "login"}},
		{"complaint", []string{"complaint", "unacceptable", "disappointed", "angry"}},
		{"compliment", []string{"thank", "thanks", "great", "awesome", "perfect"}},
		{"product_inquiry", []string{"price", "product", "offer", "plan"}},
		{"faq", []string{"faq", "question", "how do i", "how to"}},
		{"help", []string{"help"}},
	},
	"fr": {
		{"greeting", []string{"bonjour", "salut", "bonsoir", "coucou"}},
		{"goodbye", []string{"au revoir", "bye", "à bientôt"}},
		{"contact_agent", []string{"agent", "humain", "conseiller"}},
		{"check_ticket_status", []string{"statut", "suivi", "mes tickets"}},
		{"create_ticket", []string{"ticket", "problème", "panne", "bug", "marche pas"}},
		{"refund_request", []string{"remboursement", "rembourser"}},
		{"order_status", []string{"commande", "livraison", "colis"}},
		{"billing_inquiry", []string{"facture", "paiement", "prélèvement"}},
		{"technical_support", []string{"erreur", "connexion", "mot de passe"}},
		{"complaint", []string{"plainte", "inadmissible", "mécontent", "déçu"}},
		{"compliment", []string{"merci", "super", "génial", "parfait"}},
		{"product_inquiry", []string{"prix", "produit", "offre", "tarif"}},
		{"faq", []string{"faq", "question", "comment"}},
		{"help", []string{"aide", "aidez"}},
	},
}

// keywordFallback matches text against the per-language keyword table.
// Single words match whole tokens only, phrases match as substrings.
func keywordFallback(text, language string) *IntentResult {
	rules, ok := fallbackRules[language]
	if !ok {
		rules = fallbackRules["en"]
	}

	lower := strings.ToLower(text)
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(lower) {
		tokens[strings.Trim(token, ".,!?;:'\"")] = true
	}

	for _, rule := range rules {
		for _, word := range rule.words {
			matched := false
			if strings.Contains(word, " ") {
				matched = strings.Contains(lower, word)
			} else {
				matched = tokens[word]
			}
			if matched {
				return &IntentResult{
					Intent:     rule.intent,
					Confidence: 0.6,
					Entities:   map[string]string{},
					Sentiment:  "neutral",
				}
			}
		}
	}

	return &IntentResult{
		Intent:     "unknown",
		Confidence: 0.1,
		Entities:   map[string]string{},
		Sentiment:  "neutral",
	}
}

// helpers

// StripCodeFences removes a wrapping markdown code fence from model
// output; the model occasionally wraps JSON in one despite the prompt.
func StripCodeFences(content string) string {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}

func cacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "nlp:" + hex.EncodeToString(sum[:])
}
