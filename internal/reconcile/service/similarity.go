package service

import (
	"strings"
	"unicode/utf8"
)

const (
	scoreIdentical = 100.0
	scoreContained = 90.0
)

// Score: уверенность 0..100, что два наименования об одном товаре.
// Симметрична: вхождение проверяется в обе стороны.
func Score(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return scoreIdentical
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return scoreContained
	}

	ta, tb := tokenSet(na), tokenSet(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	// меньший из двух направленных подсчётов: так score(a,b)==score(b,a) и <= 100
	common := commonTokens(ta, tb)
	if c := commonTokens(tb, ta); c < common {
		common = c
	}
	return 2 * float64(common) / float64(len(ta)+len(tb)) * 100
}

// токены длиннее 2 символов, без повторов
func tokenSet(s string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, t := range strings.Fields(s) {
		if utf8.RuneCountInString(t) <= 2 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// commonTokens: сколько токенов из a имеют пару в b.
func commonTokens(a, b []string) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if tokensMatch(x, y) {
				n++
				break
			}
		}
	}
	return n
}

// Вхождение разрешаем только для длинных слов (множественное число, суффиксы),
// иначе "set"/"reset" и т.п. дают ложные совпадения.
func tokensMatch(x, y string) bool {
	if x == y {
		return true
	}
	if utf8.RuneCountInString(x) > 4 && utf8.RuneCountInString(y) > 4 {
		return strings.Contains(x, y) || strings.Contains(y, x)
	}
	return false
}
