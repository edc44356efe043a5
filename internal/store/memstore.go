package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"catalog-recon/internal/reconcile/model"
)

// MemStore: каталог в памяти. Записи идут в порядке добавления.
type MemStore struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*model.CanonicalRecord
	now   func() time.Time

	// FailWrites для тестов, id → ошибка upsert'а
	FailWrites map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[string]*model.CanonicalRecord), now: time.Now}
}

func (s *MemStore) CreateProduct(_ context.Context, p model.CanonicalRecord) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, p.ID)
	}
	cp := clone(p)
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = s.now().UTC()
	}
	s.byID[p.ID] = &cp
	s.order = append(s.order, p.ID)
	return nil
}

func (s *MemStore) FindByManufacturer(_ context.Context, key string) ([]model.CanonicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.CanonicalRecord
	for _, id := range s.order {
		if p := s.byID[id]; p.ManufacturerKey == key {
			out = append(out, clone(*p))
		}
	}
	return out, nil
}

func (s *MemStore) Get(_ context.Context, id string) (model.CanonicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return model.CanonicalRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clone(*p), nil
}

func (s *MemStore) Manufacturers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, p := range s.byID {
		seen[p.ManufacturerKey] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// UpsertTranslations: всё или ничего, при ошибке запись не меняется.
func (s *MemStore) UpsertTranslations(_ context.Context, id string, tr map[string]model.Translation) (model.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := model.UpdateResult{CanonicalID: id}
	if err := s.FailWrites[id]; err != nil {
		return res, err
	}
	p, ok := s.byID[id]
	if !ok {
		return res, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make(map[string]model.Translation, len(p.Translations)+len(tr))
	for l, t := range p.Translations {
		next[l] = t
	}
	for _, lang := range sortedLangs(tr) {
		cur, exists := next[lang]
		merged := mergeTranslation(cur, tr[lang])
		switch {
		case !exists:
			res.Created = append(res.Created, lang)
		case merged == cur:
			res.Unchanged = append(res.Unchanged, lang)
		default:
			res.Updated = append(res.Updated, lang)
		}
		next[lang] = merged
	}
	p.Translations = next
	p.UpdatedAt = s.now().UTC()
	return res, nil
}

func clone(p model.CanonicalRecord) model.CanonicalRecord {
	out := p
	out.Translations = make(map[string]model.Translation, len(p.Translations))
	for k, v := range p.Translations {
		out.Translations[k] = v
	}
	return out
}
