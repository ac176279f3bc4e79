package i18n

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadLocale(t *testing.T, lang string) map[string]string {
	t.Helper()
	data, err := localeFS.ReadFile("locales/" + lang + ".json")
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestLocalesDefineTheSameKeys(t *testing.T) {
	pt := loadLocale(t, "pt_BR")
	en := loadLocale(t, "en")

	for key := range pt {
		assert.Contains(t, en, key)
	}
	for key := range en {
		assert.Contains(t, pt, key)
	}
}

func TestTranslateFallsBackToDefaultLanguage(t *testing.T) {
	require.NoError(t, Initialize())

	assert.True(t, IsSupported("en"))
	assert.False(t, IsSupported("fr"))
	assert.Equal(t, T(DefaultLanguage, KeyAuthRequired), T("fr", KeyAuthRequired))
	assert.NotEqual(t, KeyAuthRequired, T("en", KeyAuthRequired))
	assert.Equal(t, "missing.key", T("en", "missing.key"))
}
