package service

import (
	"context"
	"fmt"
	"strings"

	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/reconcile/rules"
)

// BucketSource отдаёт записи каталога одного производителя в стабильном порядке.
type BucketSource interface {
	Bucket(ctx context.Context, manufacturerKey string) ([]model.CanonicalRecord, error)
}

// Selector выносит одно решение по входящей записи: сначала артикулы,
// потом наименования с бонусами за общие термины.
type Selector struct {
	normalizer *Normalizer
	ids        *IdentifierMatcher
	terms      *TermExtractor
	scoring    rules.Scoring
}

func NewSelector(r rules.Rules) *Selector {
	return &Selector{
		normalizer: NewNormalizer(r.Aliases),
		ids:        NewIdentifierMatcher(r.Scoring),
		terms:      NewTermExtractor(r.DomainTerms, r.MeasurementUnits),
		scoring:    r.Scoring,
	}
}

func (s *Selector) Normalizer() *Normalizer { return s.normalizer }

// Select. Ошибка возвращается только если не удалось прочитать корзину.
func (s *Selector) Select(ctx context.Context, in model.IncomingRecord, src BucketSource) (model.MatchDecision, error) {
	key := s.normalizer.Normalize(in.Manufacturer)
	bucket, err := src.Bucket(ctx, key)
	if err != nil {
		return model.MatchDecision{}, fmt.Errorf("%w: manufacturer %q: %v", ErrStoreRead, key, err)
	}
	return s.SelectFrom(in, bucket), nil
}

// SelectFrom: то же по уже загруженной корзине.
func (s *Selector) SelectFrom(in model.IncomingRecord, bucket []model.CanonicalRecord) model.MatchDecision {
	// (1) производителя нет в каталоге
	if len(bucket) == 0 {
		return model.MatchDecision{Status: model.StatusUnmatched, Reason: model.ReasonBrandNotInStore}
	}

	// (2) артикулы
	if i, tier := s.ids.Match(in.Codes(), bucket); i >= 0 {
		return model.MatchDecision{
			Status:      model.StatusMatched,
			CanonicalID: bucket[i].ID,
			Score:       s.tierScore(tier),
			Method:      tier.Method(),
		}
	}

	// (3) наименования + бонусы
	inTerms := s.terms.ExtractAll(titles(in)...)
	best, bestScore := -1, -1.0
	for i := range bucket {
		sc := s.composite(in, inTerms, bucket[i])
		if sc > bestScore { // строго больше: при равенстве остаётся первый
			best, bestScore = i, sc
		}
	}

	// (4) порог включительно
	if best >= 0 && bestScore >= s.scoring.Threshold {
		return model.MatchDecision{
			Status:      model.StatusMatched,
			CanonicalID: bucket[best].ID,
			Score:       bestScore,
			Method:      model.MethodNameSimilarity,
		}
	}
	return model.MatchDecision{
		Status: model.StatusUnmatched,
		Score:  bestScore,
		Reason: model.ReasonNoMatchAboveThreshold,
	}
}

func (s *Selector) tierScore(t IDTier) float64 {
	switch t {
	case TierExact:
		return scoreIdentical
	case TierContained:
		return scoreContained
	default:
		return s.scoring.PrefixScore
	}
}

// Composite: скор наименования плюс бонусы; может быть больше 100.
func (s *Selector) Composite(in model.IncomingRecord, cand model.CanonicalRecord) float64 {
	return s.composite(in, s.terms.ExtractAll(titles(in)...), cand)
}

func (s *Selector) composite(in model.IncomingRecord, inTerms model.KeyTermSet, cand model.CanonicalRecord) float64 {
	text := textScore(in, cand)
	candTerms := s.terms.ExtractAll(names(cand)...)
	return text + s.TermBonus(inTerms, candTerms)
}

// TermBonus: вес за каждый общий термин, размер и модельный код.
func (s *Selector) TermBonus(a, b model.KeyTermSet) float64 {
	return float64(sharedCount(a.DomainTerms, b.DomainTerms))*s.scoring.DomainTermWeight +
		float64(sharedCount(a.Measurements, b.Measurements))*s.scoring.MeasurementWeight +
		float64(sharedCount(a.ModelCodes, b.ModelCodes))*s.scoring.ModelCodeWeight
}

// textScore: максимум по парам одного языка; если таких пар нет, то по всему, что есть.
func textScore(in model.IncomingRecord, cand model.CanonicalRecord) float64 {
	best := 0.0
	sameLang := false
	for lang, f := range in.LangFields() {
		title := strings.TrimSpace(f.Title)
		if title == "" {
			continue
		}
		tr, ok := cand.Translations[lang]
		if !ok || strings.TrimSpace(tr.Name) == "" {
			continue
		}
		sameLang = true
		if sc := Score(title, tr.Name); sc > best {
			best = sc
		}
	}
	if sameLang {
		return best
	}
	for _, title := range titles(in) {
		for _, name := range names(cand) {
			if sc := Score(title, name); sc > best {
				best = sc
			}
		}
	}
	return best
}

func titles(in model.IncomingRecord) []string {
	fields := in.LangFields()
	out := make([]string, 0, len(fields))
	for _, lang := range in.Languages() {
		if t := strings.TrimSpace(fields[model.LangKey(lang)].Title); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func names(c model.CanonicalRecord) []string {
	out := make([]string, 0, len(c.Translations))
	for _, lang := range c.Languages() {
		if n := strings.TrimSpace(c.Translations[lang].Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}
