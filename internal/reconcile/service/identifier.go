package service

import (
	"strings"
	"unicode/utf8"

	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/reconcile/rules"
)

// IDTier: какой уровень сопоставления по артикулу сработал.
type IDTier int

const (
	TierNone IDTier = iota
	TierExact
	TierContained
	TierPrefix
)

func (t IDTier) Method() model.Method {
	switch t {
	case TierExact:
		return model.MethodExactID
	case TierContained:
		return model.MethodContainedID
	case TierPrefix:
		return model.MethodPrefixID
	default:
		return ""
	}
}

func (t IDTier) String() string {
	if m := t.Method(); m != "" {
		return string(m)
	}
	return "none"
}

// IdentifierMatcher ищет запись каталога только по артикулам.
type IdentifierMatcher struct {
	minLen    int
	prefixLen int
}

func NewIdentifierMatcher(s rules.Scoring) *IdentifierMatcher {
	minLen := s.MinCodeLength
	if minLen < 1 {
		minLen = 1
	}
	return &IdentifierMatcher{minLen: minLen, prefixLen: s.PrefixLength}
}

func normCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchByID: сырой артикул (может быть "A, B" или "A B") против кандидатов.
// Пустой артикул всегда даёт nil.
func (m *IdentifierMatcher) MatchByID(code string, candidates []model.CanonicalRecord) (*model.CanonicalRecord, IDTier) {
	i, tier := m.Match(model.SplitCodes(code, true), candidates)
	if i < 0 {
		return nil, TierNone
	}
	return &candidates[i], tier
}

// Match возвращает индекс кандидата или -1. Уровни проверяются строго по
// очереди по всем кодам и всем кандидатам; при равенстве: порядок кандидатов.
func (m *IdentifierMatcher) Match(codes []string, candidates []model.CanonicalRecord) (int, IDTier) {
	in := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = normCode(c); c != "" {
			in = append(in, c)
		}
	}
	if len(in) == 0 || len(candidates) == 0 {
		return -1, TierNone
	}

	cand := make([][]string, len(candidates))
	for i := range candidates {
		for _, c := range candidates[i].Codes() {
			if c = normCode(c); c != "" {
				cand[i] = append(cand[i], c)
			}
		}
	}

	// 1) точное равенство
	if i := m.scan(in, cand, func(a, b string) bool { return a == b }); i >= 0 {
		return i, TierExact
	}
	// 2) вхождение в любую сторону
	if i := m.scan(in, cand, m.contained); i >= 0 {
		return i, TierContained
	}
	// 3) общий префикс: только если включён
	if m.prefixLen > 0 {
		if i := m.scan(in, cand, m.samePrefix); i >= 0 {
			return i, TierPrefix
		}
	}
	return -1, TierNone
}

func (m *IdentifierMatcher) scan(in []string, cand [][]string, eq func(a, b string) bool) int {
	for i, cs := range cand {
		for _, c := range cs {
			for _, a := range in {
				if eq(a, c) {
					return i
				}
			}
		}
	}
	return -1
}

// короткие коды ("A1") не должны совпадать с половиной каталога
func (m *IdentifierMatcher) contained(a, b string) bool {
	if utf8.RuneCountInString(a) < m.minLen || utf8.RuneCountInString(b) < m.minLen {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func (m *IdentifierMatcher) samePrefix(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < m.prefixLen || len(rb) < m.prefixLen {
		return false
	}
	return string(ra[:m.prefixLen]) == string(rb[:m.prefixLen])
}
