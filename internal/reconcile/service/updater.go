package service

import (
	"context"
	"fmt"
	"strings"

	"catalog-recon/internal/reconcile/model"
)

// TranslationWriter: запись переводов одной записи каталога одной транзакцией.
// Пустые name/description не затирают существующие значения.
type TranslationWriter interface {
	UpsertTranslations(ctx context.Context, canonicalID string, tr map[string]model.Translation) (model.UpdateResult, error)
}

// Updater применяет решение matched к переводам записи каталога.
type Updater struct {
	w TranslationWriter
}

func NewUpdater(w TranslationWriter) *Updater {
	return &Updater{w: w}
}

// Apply идемпотентен: upsert по (canonicalID, язык), повтор даёт то же состояние.
func (u *Updater) Apply(ctx context.Context, d model.MatchDecision, in model.IncomingRecord) (model.UpdateResult, error) {
	if !d.Matched() || d.CanonicalID == "" {
		return model.UpdateResult{}, ErrNotMatched
	}

	tr := Translations(in)
	if len(tr) == 0 {
		return model.UpdateResult{CanonicalID: d.CanonicalID}, nil
	}

	res, err := u.w.UpsertTranslations(ctx, d.CanonicalID, tr)
	if err != nil {
		return model.UpdateResult{CanonicalID: d.CanonicalID}, fmt.Errorf("%w: product %s: %v", ErrStoreWrite, d.CanonicalID, err)
	}
	res.CanonicalID = d.CanonicalID
	return res, nil
}

// Translations: языки входящей записи, у которых есть хоть что-то.
func Translations(in model.IncomingRecord) map[string]model.Translation {
	fields := in.LangFields()
	out := make(map[string]model.Translation, len(fields))
	for lang, f := range fields {
		if f.Empty() {
			continue
		}
		out[lang] = model.Translation{
			Name:        strings.TrimSpace(f.Title),
			Description: strings.TrimSpace(f.Description),
		}
	}
	return out
}
