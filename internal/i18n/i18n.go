// Package i18n holds the en and sv string tables shared by the API and the
// server-rendered print views.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = "en"

//go:embed locales/*.json
var localeFS embed.FS

// supported lists languages in matcher preference order. The first is the fallback.
var supported = []language.Tag{language.English, language.Swedish}

type Catalog struct {
	tables  map[string]map[string]string
	matcher language.Matcher
}

// Load reads the embedded string tables.
func Load() (*Catalog, error) {
	c := &Catalog{
		tables:  make(map[string]map[string]string, len(supported)),
		matcher: language.NewMatcher(supported),
	}
	for _, tag := range supported {
		base, _ := tag.Base()
		lang := base.String()
		data, err := localeFS.ReadFile(path.Join("locales", lang+".json"))
		if err != nil {
			return nil, fmt.Errorf("read %s strings: %w", lang, err)
		}
		table := map[string]string{}
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("parse %s strings: %w", lang, err)
		}
		c.tables[lang] = table
	}
	return c, nil
}

// MustLoad is Load for program start-up.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Table returns a copy of the string table of lang.
func (c *Catalog) Table(lang string) (map[string]string, bool) {
	table, ok := c.tables[strings.ToLower(strings.TrimSpace(lang))]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out, true
}

// Languages returns the supported language codes.
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(supported))
	for _, tag := range supported {
		base, _ := tag.Base()
		langs = append(langs, base.String())
	}
	return langs
}

// Negotiate picks the language of an explicit lang parameter when supported,
// else the best match of an Accept-Language header, else DefaultLanguage.
func (c *Catalog) Negotiate(lang, acceptLanguage string) string {
	if _, ok := c.tables[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	if acceptLanguage == "" {
		return DefaultLanguage
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// Translator returns the lookup for lang, falling back to DefaultLanguage.
func (c *Catalog) Translator(lang string) Translator {
	lang = strings.ToLower(strings.TrimSpace(lang))
	table, ok := c.tables[lang]
	if !ok {
		lang = DefaultLanguage
		table = c.tables[DefaultLanguage]
	}
	return Translator{lang: lang, table: table}
}

type Translator struct {
	lang  string
	table map[string]string
}

func (t Translator) Lang() string { return t.lang }

// T returns the string for key, or key itself when missing.
func (t Translator) T(key string) string {
	if v, ok := t.table[key]; ok {
		return v
	}
	return key
}
