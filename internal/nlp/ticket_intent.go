package nlp

import (
	"strings"
)

// Local heuristics that recognize ticket requests without the hosted
// classifier. Used as a pre-filter in free-text handling and as a
// direct path from raw button titles.

var createTicketKeywords = map[string][]string{
	"en": {
		"create a ticket", "create ticket", "open a ticket", "open ticket",
		"new ticket", "submit a ticket", "report a problem", "report an issue",
		"i want to report", "i have a problem", "i have an issue",
	},
	"fr": {
		"créer un ticket", "ouvrir un ticket", "nouveau ticket",
		"signaler un problème", "signaler un souci", "faire une réclamation",
		"j'ai un problème", "j'ai un souci",
	},
}

var checkTicketKeywords = map[string][]string{
	"en": {
		"ticket status", "status of my ticket", "check my ticket",
		"my tickets", "where is my ticket", "track my ticket",
	},
	"fr": {
		"statut de mon ticket", "suivi de mon ticket", "mes tickets",
		"où en est mon ticket", "état de mon ticket",
	},
}

var genericTicketTitle = map[string]string{
	"en": "Support Request",
	"fr": "Demande d'assistance",
}

// AnalyzeTicketIntent returns a ticket-related intent with a flat 0.8
// confidence when text matches the per-language keyword lists, or nil.
func AnalyzeTicketIntent(text, language string) *IntentResult {
	lower := strings.ToLower(text)

	if containsAny(lower, createTicketKeywords[language]) {
		return &IntentResult{
			Intent:     "create_ticket",
			Confidence: 0.8,
			Entities:   map[string]string{},
			Sentiment:  "neutral",
			Language:   language,
		}
	}
	if containsAny(lower, checkTicketKeywords[language]) {
		return &IntentResult{
			Intent:     "check_ticket_status",
			Confidence: 0.8,
			Entities:   map[string]string{},
			Sentiment:  "neutral",
			Language:   language,
		}
	}
	return nil
}

// ExtractTicketInfo splits free text into a ticket title and
// description. Trigger keywords are stripped first; then an explicit
// separator (colon, dash or newline) is honored when it yields two
// non-empty parts, otherwise a title is synthesized from the first few
// words.
func ExtractTicketInfo(text, language string) (title, description string) {
	remaining := strings.TrimSpace(stripTriggers(text, language))

	if remaining == "" {
		return genericTicketTitle[language], strings.TrimSpace(text)
	}

	for _, sep := range []string{":", "-", "\n"} {
		parts := strings.SplitN(remaining, sep, 2)
		if len(parts) == 2 {
			first := strings.TrimSpace(parts[0])
			rest := strings.TrimSpace(parts[1])
			if first != "" && rest != "" {
				return truncate(first, 100), rest
			}
		}
	}

	words := strings.Fields(remaining)
	if len(words) > 8 {
		title = strings.Join(words[:8], " ")
	} else {
		title = remaining
	}
	if len([]rune(title)) > 50 {
		title = truncate(title, 50) + "..."
	}
	return title, remaining
}

func stripTriggers(text, language string) string {
	lower := strings.ToLower(text)
	for _, trigger := range append(createTicketKeywords[language], checkTicketKeywords[language]...) {
		idx := strings.Index(lower, trigger)
		if idx < 0 {
			continue
		}
		text = text[:idx] + text[idx+len(trigger):]
		lower = lower[:idx] + lower[idx+len(trigger):]
	}
	return text
}

func containsAny(lower string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
