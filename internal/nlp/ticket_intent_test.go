package nlp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeTicketIntent(t *testing.T) {
	t.Run("recognizes creation phrases", func(t *testing.T) {
		result := AnalyzeTicketIntent("I want to report a problem with my invoice", "en")
		require.NotNil(t, result)
		assert.Equal(t, "create_ticket", result.Intent)
		assert.InDelta(t, 0.8, result.Confidence, 0.001)
	})

	t.Run("recognizes status phrases in french", func(t *testing.T) {
		result := AnalyzeTicketIntent("Où en est mon ticket ?", "fr")
		require.NotNil(t, result)
		assert.Equal(t, "check_ticket_status", result.Intent)
	})

	t.Run("returns nil for unrelated text", func(t *testing.T) {
		assert.Nil(t, AnalyzeTicketIntent("bonjour", "fr"))
		assert.Nil(t, AnalyzeTicketIntent("what time do you open", "en"))
	})
}

func TestExtractTicketInfo(t *testing.T) {
	t.Run("splits on explicit separator", func(t *testing.T) {
		title, description := ExtractTicketInfo("Login broken: cannot sign in since yesterday", "en")
		assert.Equal(t, "Login broken", title)
		assert.Equal(t, "cannot sign in since yesterday", description)
	})

	t.Run("synthesizes title from first words", func(t *testing.T) {
		text := "the app keeps freezing every time i open the settings page on my phone"
		title, description := ExtractTicketInfo(text, "en")
		assert.Equal(t, "the app keeps freezing every time i open", title)
		assert.Equal(t, text, description)
	})

	t.Run("short text becomes both title and description", func(t *testing.T) {
		title, description := ExtractTicketInfo("payment failed twice", "en")
		assert.Equal(t, "payment failed twice", title)
		assert.Equal(t, "payment failed twice", description)
	})

	t.Run("bare trigger falls back to generic title", func(t *testing.T) {
		title, description := ExtractTicketInfo("créer un ticket", "fr")
		assert.Equal(t, "Demande d'assistance", title)
		assert.Equal(t, "créer un ticket", description)
	})

	t.Run("long titles are truncated", func(t *testing.T) {
		text := "somethingverylongwithoutanyspaces" + strings.Repeat("x", 60)
		title, _ := ExtractTicketInfo(text, "en")
		assert.True(t, strings.HasSuffix(title, "..."))
		assert.LessOrEqual(t, len([]rune(title)), 53)
	})
}
