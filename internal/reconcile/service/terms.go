package service

import (
	"regexp"
	"sort"
	"strings"

	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/utils"
)

// модельные коды: >=2 буквы, сразу за ними (возможно через дефис) цифры,
// дальше хвост вида "-35", ".2", "/B". Обычные слова без цифр не попадают.
var reModelCode = regexp.MustCompile(`(?i)\b[a-z]{2,}-?\d+(?:[-./]?[a-z0-9]+)*\b`)

// TermExtractor достаёт из текста сравнимые токены. Без состояния, потокобезопасен.
type TermExtractor struct {
	terms     []domainTerm
	reMeasure *regexp.Regexp
}

type domainTerm struct {
	key    string // как в словаре
	folded string // без диакритики, для поиска
}

func NewTermExtractor(domainTerms, units []string) *TermExtractor {
	e := &TermExtractor{}

	seen := make(map[string]struct{}, len(domainTerms))
	for _, t := range domainTerms {
		key := strings.ToLower(collapseSpaces(t))
		if key == "" {
			continue
		}
		f := foldDiacritics(key)
		// "courbe"/"courbé": один и тот же термин
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		e.terms = append(e.terms, domainTerm{key: key, folded: f})
	}

	// длинные единицы первыми: "gauge" раньше "g", "mm" раньше "m"
	us := make([]string, 0, len(units))
	for _, u := range units {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			us = append(us, regexp.QuoteMeta(u))
		}
	}
	sort.SliceStable(us, func(i, j int) bool { return len(us[i]) > len(us[j]) })
	alt := strings.Join(us, "|")
	if alt == "" {
		e.reMeasure = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*()(°)`)
	} else {
		e.reMeasure = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:(` + alt + `)\b|(°))`)
	}
	return e
}

// Extract чистая функция, один и тот же текст даёт один и тот же набор.
func (e *TermExtractor) Extract(text string) model.KeyTermSet {
	set := model.NewKeyTermSet()
	if strings.TrimSpace(text) == "" {
		return set
	}

	lower := foldDiacritics(strings.ToLower(collapseSpaces(text)))
	for _, t := range e.terms {
		if strings.Contains(lower, t.folded) {
			set.DomainTerms[t.key] = struct{}{}
		}
	}

	for _, m := range e.reMeasure.FindAllStringSubmatch(text, -1) {
		unit := strings.ToLower(m[2])
		if unit == "" {
			unit = m[3]
		}
		set.Measurements[utils.CanonicalDecimal(m[1])+unit] = struct{}{}
	}

	for _, c := range reModelCode.FindAllString(text, -1) {
		set.ModelCodes[strings.ToUpper(c)] = struct{}{}
	}
	return set
}

// ExtractAll объединяет токены нескольких текстов (все языки записи).
func (e *TermExtractor) ExtractAll(texts ...string) model.KeyTermSet {
	set := model.NewKeyTermSet()
	for _, t := range texts {
		set.Merge(e.Extract(t))
	}
	return set
}

func sharedCount(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
