package nlp

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/cache"
)

// Language-indicative stopwords used by the fast detection heuristic.
var stopwords = map[string][]string{
	"en": {
		"the", "is", "are", "and", "you", "your", "what", "how", "can",
		"my", "not", "want", "need", "help", "please", "thanks", "thank",
		"hello", "hi", "have", "with", "for",
	},
	"fr": {
		"le", "la", "les", "de", "des", "du", "un", "une", "est", "et",
		"je", "vous", "votre", "mon", "ma", "pas", "besoin", "aide",
		"comment", "quoi", "merci", "bonjour", "bonsoir", "salut",
		"voudrais", "avec", "pour", "suis",
	},
}

// Detector resolves the language of an utterance. The keyword-overlap
// heuristic runs first; the hosted API is only consulted when the
// heuristic is inconclusive. Both outcomes are cached.
type Detector struct {
	client    Client
	cache     *cache.Cache
	cacheTTL  time.Duration
	supported []string
}

func NewDetector(client Client, c *cache.Cache, cacheTTL time.Duration, supported []string) *Detector {
	return &Detector{client: client, cache: c, cacheTTL: cacheTTL, supported: supported}
}

// Detect returns the detected ISO language code, or "" when detection
// is not confident. It never overrides the caller's current language on
// its own: unsupported codes map to "".
func (d *Detector) Detect(ctx context.Context, text string) string {
	key := cacheKey("lang", text)
	if value, ok := d.cache.Get(key); ok {
		if lang, ok := value.(string); ok {
			return lang
		}
	}

	lang := d.heuristic(text)
	if lang == "" {
		lang = d.detectViaAPI(ctx, text)
	}

	d.cache.Set(key, lang, d.cacheTTL)
	return lang
}

// heuristic counts language-indicative stopwords per candidate
// language. Conclusive only when one language strictly dominates.
func (d *Detector) heuristic(text string) string {
	tokens := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[strings.Trim(token, ".,!?;:'\"")] = true
	}

	best, second := "", 0
	bestCount := 0
	for _, lang := range d.supported {
		count := 0
		for _, word := range stopwords[lang] {
			if tokens[word] {
				count++
			}
		}
		if count > bestCount {
			second = bestCount
			best, bestCount = lang, count
		} else if count > second {
			second = count
		}
	}

	if bestCount > 0 && bestCount > second {
		return best
	}
	return ""
}

func (d *Detector) detectViaAPI(ctx context.Context, text string) string {
	resp, err := d.client.Generate(ctx, []Message{
		{Role: "system", Content: "Identify the language of the user message. Respond with only the two-letter ISO 639-1 code, nothing else."},
		{Role: "user", Content: text},
	})
	if err != nil {
		log.Printf("⚠️ Language detection failed: %v", err)
		return ""
	}

	code := strings.ToLower(strings.TrimSpace(resp.Content))
	if len(code) > 2 {
		code = code[:2]
	}
	for _, lang := range d.supported {
		if code == lang {
			return code
		}
	}
	return ""
}
