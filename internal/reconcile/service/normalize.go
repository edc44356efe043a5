package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldDiacritics: "Lampe à fente" → "Lampe a fente", "Optikgeräte" → "Optikgerate".
// transform.Chain хранит состояние, поэтому собираем на каждый вызов.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeText: конвейер для сравнения наименований:
// нижний регистр, без диакритики, без пунктуации, схлопнутые пробелы.
func normalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(foldDiacritics(s))
	b := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b = append(b, r)
		case unicode.IsSpace(r):
			b = append(b, ' ')
		}
	}
	return collapseSpaces(string(b))
}

// Схлопывание пробелов
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify: "Carl Zeiss Meditec AG" → "carl-zeiss-meditec-ag".
func slugify(s string) string {
	s = strings.ToLower(foldDiacritics(s))
	s = reNonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Normalizer приводит сырое название производителя к ключу каталога.
type Normalizer struct {
	exact  map[string]string
	folded map[string]string
}

func NewNormalizer(aliases map[string]string) *Normalizer {
	n := &Normalizer{
		exact:  make(map[string]string, len(aliases)),
		folded: make(map[string]string, len(aliases)),
	}
	// порядок ключей фиксируем, чтобы при коллизии регистра побеждал один и тот же
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := aliases[k]
		n.exact[strings.TrimSpace(k)] = v
		fk := foldKey(k)
		if _, ok := n.folded[fk]; !ok {
			n.folded[fk] = v
		}
	}
	return n
}

func foldKey(s string) string {
	return strings.ToLower(collapseSpaces(s))
}

// Normalize никогда не падает: в худшем случае вернёт slug, под которым
// в каталоге ничего нет.
func (n *Normalizer) Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if v, ok := n.exact[raw]; ok {
		return v
	}
	if v, ok := n.folded[foldKey(raw)]; ok {
		return v
	}
	return slugify(raw)
}
