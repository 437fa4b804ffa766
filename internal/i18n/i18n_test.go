package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHasSameKeys(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	en, ok := c.Table("en")
	require.True(t, ok)
	sv, ok := c.Table("sv")
	require.True(t, ok)

	assert.Len(t, sv, len(en))
	for key := range en {
		assert.Contains(t, sv, key)
	}
	assert.Equal(t, "Forklift Service Tracker", en["app.title"])
	assert.Equal(t, "Märke", sv["forklift.brand"])
}

func TestTableUnknownLanguage(t *testing.T) {
	c := MustLoad()

	_, ok := c.Table("de")
	assert.False(t, ok)
}

func TestTableReturnsCopy(t *testing.T) {
	c := MustLoad()

	table, _ := c.Table("en")
	table["app.title"] = "changed"

	assert.Equal(t, "Forklift Service Tracker", c.Translator("en").T("app.title"))
}

func TestNegotiate(t *testing.T) {
	c := MustLoad()

	tests := []struct {
		name   string
		lang   string
		accept string
		want   string
	}{
		{"explicit parameter wins", "sv", "en-US,en;q=0.9", "sv"},
		{"parameter is case insensitive", "SV", "", "sv"},
		{"unsupported parameter falls through to header", "de", "sv-SE,sv;q=0.9", "sv"},
		{"header match", "", "sv-SE", "sv"},
		{"header prefers english", "", "en-GB,sv;q=0.5", "en"},
		{"no match uses default", "", "ja-JP", "en"},
		{"nothing given", "", "", "en"},
		{"malformed header", "", ";;;", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Negotiate(tt.lang, tt.accept))
		})
	}
}

func TestTranslatorFallsBackToKey(t *testing.T) {
	c := MustLoad()

	tr := c.Translator("sv")
	assert.Equal(t, "sv", tr.Lang())
	assert.Equal(t, "Försenad", tr.T("service.overdue"))
	assert.Equal(t, "no.such.key", tr.T("no.such.key"))

	fallback := c.Translator("xx")
	assert.Equal(t, "en", fallback.Lang())
	assert.Equal(t, "Overdue", fallback.T("service.overdue"))
}
