// Package store keeps canonical catalog records: a SQLite implementation for
// real runs and an in-memory one for tests and dry runs.
package store

import (
	"errors"
	"sort"
	"strings"

	"catalog-recon/internal/reconcile/model"
)

var (
	ErrNotFound      = errors.New("product not found")
	ErrAlreadyExists = errors.New("product already exists")
	ErrInvalid       = errors.New("invalid product")
)

func validateProduct(p model.CanonicalRecord) error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.Join(ErrInvalid, errors.New("empty id"))
	}
	if strings.TrimSpace(p.ManufacturerKey) == "" {
		return errors.Join(ErrInvalid, errors.New("empty manufacturer key"))
	}
	return nil
}

// mergeTranslation: пустое входящее значение не затирает существующее.
func mergeTranslation(cur, in model.Translation) model.Translation {
	out := cur
	if in.Name != "" {
		out.Name = in.Name
	}
	if in.Description != "" {
		out.Description = in.Description
	}
	return out
}

func sortedLangs(tr map[string]model.Translation) []string {
	out := make([]string, 0, len(tr))
	for l := range tr {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
