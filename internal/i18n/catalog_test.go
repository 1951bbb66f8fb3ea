package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogValidatesCompleteness(t *testing.T) {
	_, err := NewCatalog("fr", []string{"fr", "en"})
	require.NoError(t, err)

	_, err = NewCatalog("es", []string{"es"})
	assert.Error(t, err, "unknown default language must be rejected")

	_, err = NewCatalog("fr", []string{"fr", "es"})
	assert.Error(t, err, "supported language without a catalog must be rejected")
}

func TestTSubstitutesParams(t *testing.T) {
	catalog, err := NewCatalog("fr", []string{"fr", "en"})
	require.NoError(t, err)

	text := catalog.T("en", MsgTicketCreated, map[string]string{
		"id":       "TKT-1234ABCD",
		"title":    "Login broken",
		"priority": "HIGH",
	})
	assert.Contains(t, text, "TKT-1234ABCD")
	assert.Contains(t, text, "Login broken")
	assert.NotContains(t, text, "{id}")
}

func TestTFallsBackToDefaultLanguage(t *testing.T) {
	catalog, err := NewCatalog("fr", []string{"fr", "en"})
	require.NoError(t, err)

	assert.Equal(t, catalog.T("fr", MsgGoodbye, nil), catalog.T("de", MsgGoodbye, nil))
}

func TestTFallsBackToRawKey(t *testing.T) {
	catalog, err := NewCatalog("fr", []string{"fr", "en"})
	require.NoError(t, err)

	assert.Equal(t, "no_such_key", catalog.T("fr", Key("no_such_key"), nil))
}

func TestCatalogsDiffer(t *testing.T) {
	catalog, err := NewCatalog("fr", []string{"fr", "en"})
	require.NoError(t, err)

	assert.NotEqual(t, catalog.T("fr", MsgGoodbye, nil), catalog.T("en", MsgGoodbye, nil))
}
