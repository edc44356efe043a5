package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/reconcile/rules"
)

type mapSource map[string][]model.CanonicalRecord

func (m mapSource) Bucket(_ context.Context, key string) ([]model.CanonicalRecord, error) {
	return m[key], nil
}

type errSource struct{ err error }

func (e errSource) Bucket(context.Context, string) ([]model.CanonicalRecord, error) {
	return nil, e.err
}

func incoming(manufacturer, code string, titles map[string]string) model.IncomingRecord {
	f := map[string]model.IncomingField{}
	for l, t := range titles {
		f[l] = model.IncomingField{Title: t}
	}
	return model.IncomingRecord{Manufacturer: manufacturer, ReferenceCode: code, Fields: f}
}

func TestSelector_ExactMultiValueCode(t *testing.T) {
	s := NewSelector(rules.Default())
	bucket := []model.CanonicalRecord{rec("p-1", "A10.1500, A1.2100", nil)}

	d := s.SelectFrom(incoming("Moria", "A10.1500, A1.2100", nil), bucket)
	assert.Equal(t, model.StatusMatched, d.Status)
	assert.Equal(t, "p-1", d.CanonicalID)
	assert.Equal(t, model.MethodExactID, d.Method)
	assert.Equal(t, 100.0, d.Score)
}

func TestSelector_ContainedCodeScore(t *testing.T) {
	s := NewSelector(rules.Default())
	bucket := []model.CanonicalRecord{rec("p-3", "19050", nil)}
	d := s.SelectFrom(incoming("Moria", "19050-S", nil), bucket)
	assert.Equal(t, model.MethodContainedID, d.Method)
	assert.Equal(t, 90.0, d.Score)
}

func TestSelector_NearMissCodeStaysUnmatched(t *testing.T) {
	s := NewSelector(rules.Default())
	bucket := []model.CanonicalRecord{rec("p-2", "FS802-35", map[string]string{"fr": "Pince à suture courbe"})}

	d := s.SelectFrom(incoming("Moria", "FS803-35", map[string]string{"fr": "Pince Colibri droite"}), bucket)
	assert.Equal(t, model.StatusUnmatched, d.Status)
	assert.Equal(t, model.ReasonNoMatchAboveThreshold, d.Reason)
	assert.Empty(t, d.CanonicalID)
	// 33.3 за общий токен + 5 за "pince"
	assert.InDelta(t, 100.0/3+5, d.Score, 1e-9)
	assert.Less(t, d.Score, rules.Default().Scoring.Threshold)
}

func TestSelector_AliasResolvesBucket(t *testing.T) {
	s := NewSelector(rules.Default())
	src := mapSource{"moria": {rec("p-1", "A1.2100", map[string]string{"en": "Vannas scissors"})}}

	d, err := s.Select(context.Background(), incoming("Moria Surgical", "ZZZ-404", map[string]string{"en": "Unrelated thing"}), src)
	require.NoError(t, err)
	assert.NotEqual(t, model.ReasonBrandNotInStore, d.Reason)
	assert.Equal(t, model.ReasonNoMatchAboveThreshold, d.Reason)

	d, err = s.Select(context.Background(), incoming("Nobody Inc", "A1.2100", nil), src)
	require.NoError(t, err)
	assert.Equal(t, model.ReasonBrandNotInStore, d.Reason)
	assert.Equal(t, 0.0, d.Score)
}

func TestSelector_StoreReadFailure(t *testing.T) {
	s := NewSelector(rules.Default())
	_, err := s.Select(context.Background(), incoming("Moria", "A1", nil), errSource{errors.New("disk gone")})
	assert.ErrorIs(t, err, ErrStoreRead)
}

func TestSelector_TermBonusesOutweighTextOverlap(t *testing.T) {
	s := NewSelector(rules.Default())
	textOnly := rec("p-text", "X-1", map[string]string{"en": "Vannas curved tweezers"})
	withTerms := rec("p-terms", "X-2", map[string]string{"en": "Scissors 8,7 cm 5 mm"})
	in := incoming("Moria", "", map[string]string{"en": "Vannas scissors curved 8.7 cm 5 mm"})

	assert.Less(t, textScore(in, withTerms), textScore(in, textOnly))
	// 50 + 5 (scissors) + 2*10 (8.7cm, 5mm)
	assert.InDelta(t, 75.0, s.Composite(in, withTerms), 1e-9)
	// 66.7 + 5 (curved)
	assert.InDelta(t, 200.0/3+5, s.Composite(in, textOnly), 1e-9)

	d := s.SelectFrom(in, []model.CanonicalRecord{textOnly, withTerms})
	assert.Equal(t, model.StatusMatched, d.Status)
	assert.Equal(t, "p-terms", d.CanonicalID)
	assert.Equal(t, model.MethodNameSimilarity, d.Method)
}

func TestSelector_ThresholdIsInclusive(t *testing.T) {
	in := incoming("Moria", "", map[string]string{"fr": "Pince Colibri droite"})
	bucket := []model.CanonicalRecord{rec("p-2", "FS802-35", map[string]string{"fr": "Pince à suture courbe"})}
	score := NewSelector(rules.Default()).Composite(in, bucket[0])

	r := rules.Default()
	r.Scoring.Threshold = score
	d := NewSelector(r).SelectFrom(in, bucket)
	assert.Equal(t, model.StatusMatched, d.Status)
	assert.Equal(t, score, d.Score)

	r.Scoring.Threshold = score + 0.001
	d = NewSelector(r).SelectFrom(in, bucket)
	assert.Equal(t, model.StatusUnmatched, d.Status)
	assert.Equal(t, score, d.Score)
}

func TestSelector_TiesKeepBucketOrder(t *testing.T) {
	s := NewSelector(rules.Default())
	bucket := []model.CanonicalRecord{
		rec("p-first", "X-1", map[string]string{"en": "Tying forceps"}),
		rec("p-second", "X-2", map[string]string{"en": "Tying forceps"}),
	}
	in := incoming("Moria", "", map[string]string{"en": "tying forceps"})
	for i := 0; i < 10; i++ {
		d := s.SelectFrom(in, bucket)
		assert.Equal(t, "p-first", d.CanonicalID)
	}
}

func TestSelector_SameLanguagePreferred(t *testing.T) {
	cand := rec("p-1", "X-1", map[string]string{"fr": "Ciseaux", "en": "Scissors"})

	// сравнивается только fr↔fr, хотя en-наименование совпало бы целиком
	in := incoming("Moria", "", map[string]string{"fr": "Scissors"})
	assert.Equal(t, 0.0, textScore(in, cand))

	// языков нет в каталоге: сравнение по всем
	in = incoming("Moria", "", map[string]string{"de": "Scissors"})
	assert.Equal(t, 100.0, textScore(in, cand))
}

func TestTextScore_LanguageKeyIsCaseInsensitive(t *testing.T) {
	cand := rec("p-1", "X-1", map[string]string{"fr": "Ciseaux", "en": "Scissors"})
	in := incoming("Moria", "", map[string]string{"FR": "Scissors"})
	assert.Equal(t, 0.0, textScore(in, cand), "FR is compared with fr only")
}
