// Package i18n resolves the user-facing strings the lead forms need.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

//go:embed messages/*.json
var bundled embed.FS

// Translate looks up a dotted key such as "ProductEnquire.EmailError".
// Unknown keys come back unchanged.
type Translate func(key string) string

// Catalog holds one flattened message table per locale.
type Catalog struct {
	defaultLocale string
	tables        map[string]map[string]string
	tags          []language.Tag
	locales       []string
	matcher       language.Matcher
}

// Load reads the bundled catalogs. defaultLocale must be one of them.
func Load(defaultLocale string) (*Catalog, error) {
	entries, err := bundled.ReadDir("messages")
	if err != nil {
		return nil, fmt.Errorf("i18n: read catalogs: %w", err)
	}
	raw := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := bundled.ReadFile(path.Join("messages", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		raw[strings.TrimSuffix(e.Name(), ".json")] = data
	}
	return New(defaultLocale, raw)
}

// New builds a catalog from raw JSON documents keyed by locale.
func New(defaultLocale string, raw map[string][]byte) (*Catalog, error) {
	c := &Catalog{
		defaultLocale: defaultLocale,
		tables:        make(map[string]map[string]string, len(raw)),
	}

	locales := make([]string, 0, len(raw))
	for locale := range raw {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	// The matcher falls back to its first tag, so the default goes first.
	sort.SliceStable(locales, func(i, j int) bool {
		return locales[i] == defaultLocale && locales[j] != defaultLocale
	})

	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("i18n: invalid locale %q: %w", locale, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw[locale], &doc); err != nil {
			return nil, fmt.Errorf("i18n: decode %s: %w", locale, err)
		}
		table := make(map[string]string)
		flatten("", doc, table)
		c.tables[locale] = table
		c.tags = append(c.tags, tag)
		c.locales = append(c.locales, locale)
	}
	if _, ok := c.tables[defaultLocale]; !ok {
		return nil, fmt.Errorf("i18n: default locale %q has no catalog", defaultLocale)
	}
	c.matcher = language.NewMatcher(c.tags)
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		}
	}
}

// Locales lists the available locales, default first.
func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

// Negotiate picks a supported locale. An explicit locale wins when it is
// supported; otherwise the Accept-Language header is matched.
func (c *Catalog) Negotiate(explicit, acceptLanguage string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, ok := c.tables[explicit]; ok {
			return explicit
		}
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.defaultLocale
	}
	_, idx, confidence := c.matcher.Match(tags...)
	if confidence == language.No {
		return c.defaultLocale
	}
	return c.locales[idx]
}

// Translator returns the lookup function for locale, falling back to the
// default catalog for unknown locales or missing keys.
func (c *Catalog) Translator(locale string) Translate {
	table, ok := c.tables[locale]
	if !ok {
		table = c.tables[c.defaultLocale]
	}
	fallback := c.tables[c.defaultLocale]
	return func(key string) string {
		if v, ok := table[key]; ok {
			return v
		}
		if v, ok := fallback[key]; ok {
			return v
		}
		return key
	}
}

// Namespace scopes t so callers can write t("EmailError").
func (t Translate) Namespace(ns string) Translate {
	return func(key string) string {
		full := ns + "." + key
		if v := t(full); v != full {
			return v
		}
		return key
	}
}
