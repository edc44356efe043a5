package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/reconcile/rules"
)

// Store: то, что движку нужно от каталога.
type Store interface {
	FindByManufacturer(ctx context.Context, manufacturerKey string) ([]model.CanonicalRecord, error)
	TranslationWriter
}

// ManufacturerLister необязателен. Если стор умеет, в ledger попадают подсказки по бренду.
type ManufacturerLister interface {
	Manufacturers(ctx context.Context) ([]string, error)
}

// Recorder: метрики; nil допустим.
type Recorder interface {
	ObserveDecision(d model.MatchDecision)
	ObserveFailure(reason string)
	ObserveBatch(s Summary)
}

type Options struct {
	DryRun bool // только решения, без записи в каталог
}

type Summary struct {
	BatchID            string         `json:"batchId"`
	Total              int            `json:"total"`
	Matched            int            `json:"matched"`
	ExactID            int            `json:"exactId"`
	ContainedID        int            `json:"containedId"`
	PrefixID           int            `json:"prefixId"`
	NameSimilarity     int            `json:"nameSimilarity"`
	Unmatched          int            `json:"unmatched"`
	UnmatchedByReason  map[string]int `json:"unmatchedByReason"`
	Malformed          int            `json:"malformed"`
	Errors             int            `json:"errors"`
	LanguagesCreated   int            `json:"languagesCreated"`
	LanguagesUpdated   int            `json:"languagesUpdated"`
	LanguagesUnchanged int            `json:"languagesUnchanged"`
	DryRun             bool           `json:"dryRun"`
	Elapsed            time.Duration  `json:"elapsed"`
}

// Outcome: что произошло с одной входящей строкой.
type Outcome struct {
	Line          int                 `json:"line"`
	Manufacturer  string              `json:"manufacturer"`
	ReferenceCode string              `json:"referenceCode"`
	Decision      model.MatchDecision `json:"decision"`
	Update        *model.UpdateResult `json:"update,omitempty"`
	Skipped       bool                `json:"skipped,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// Failure: ошибка чтения/записи стора по конкретной строке.
type Failure struct {
	Line          int    `json:"line"`
	Manufacturer  string `json:"manufacturer"`
	ReferenceCode string `json:"referenceCode"`
	CanonicalID   string `json:"canonicalId,omitempty"`
	Reason        string `json:"reason"`
	Error         string `json:"error"`
}

type BatchResult struct {
	Summary   Summary                `json:"summary"`
	Outcomes  []Outcome              `json:"outcomes"`
	Unmatched []model.UnmatchedEntry `json:"unmatched"`
	Failures  []Failure              `json:"failures"`
}

// Engine: батчевая сверка, один экземпляр на процесс, Run можно звать конкурентно,
// состояние батча живёт внутри Run.
type Engine struct {
	store    Store
	selector *Selector
	updater  *Updater
	logger   zerolog.Logger
	metrics  Recorder
}

type EngineOption func(*Engine)

func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.metrics = r }
}

func NewEngine(r rules.Rules, st Store, logger zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store:    st,
		selector: NewSelector(r),
		updater:  NewUpdater(st),
		logger:   logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) Selector() *Selector { return e.selector }

// Run обрабатывает записи по одной. Ни одна ошибка записи не останавливает батч;
// только отмена ctx: тогда возвращается частичный результат и ctx.Err().
func (e *Engine) Run(ctx context.Context, rows []model.IncomingRecord, opt Options) (*BatchResult, error) {
	start := time.Now()
	b := &batch{
		engine:  e,
		opt:     opt,
		buckets: newBucketCache(e.store),
		res: &BatchResult{
			Summary: Summary{
				BatchID:           uuid.NewString(),
				UnmatchedByReason: map[string]int{},
				DryRun:            opt.DryRun,
			},
			Outcomes: make([]Outcome, 0, len(rows)),
			Failures: []Failure{},
		},
	}
	log := e.logger.With().Str("batch_id", b.res.Summary.BatchID).Logger()
	b.log = log
	b.ledger = NewLedger(WithHinter(func(in model.IncomingRecord, reason string) string {
		if reason != model.ReasonBrandNotInStore {
			return ""
		}
		return b.brandHint(ctx, e.selector.Normalizer().Normalize(in.Manufacturer))
	}))

	var runErr error
	for _, in := range rows {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		b.process(ctx, in)
	}

	b.res.Unmatched = b.ledger.Entries()
	b.res.Summary.Unmatched = b.ledger.Len()
	b.res.Summary.UnmatchedByReason = b.ledger.ByReason()
	b.res.Summary.Elapsed = time.Since(start)
	if e.metrics != nil {
		e.metrics.ObserveBatch(b.res.Summary)
	}

	s := b.res.Summary
	log.Info().
		Int("total", s.Total).
		Int("exact_id", s.ExactID).
		Int("contained_id", s.ContainedID).
		Int("prefix_id", s.PrefixID).
		Int("name_similarity", s.NameSimilarity).
		Int("unmatched", s.Unmatched).
		Int("malformed", s.Malformed).
		Int("errors", s.Errors).
		Bool("dry_run", s.DryRun).
		Dur("elapsed", s.Elapsed).
		Msg("reconcile batch done")
	return b.res, runErr
}

type batch struct {
	engine  *Engine
	opt     Options
	buckets *bucketCache
	ledger  *Ledger
	res     *BatchResult
	log     zerolog.Logger

	known       []string
	knownLoaded bool
}

func (b *batch) process(ctx context.Context, in model.IncomingRecord) {
	e := b.engine
	sum := &b.res.Summary
	sum.Total++

	out := Outcome{Line: in.Line, Manufacturer: in.Manufacturer, ReferenceCode: in.ReferenceCode}

	if in.Malformed() {
		sum.Malformed++
		out.Skipped = true
		out.Error = ErrMalformedRecord.Error()
		b.res.Outcomes = append(b.res.Outcomes, out)
		b.log.Debug().Int("line", in.Line).Str("manufacturer", in.Manufacturer).Msg("skip malformed record")
		return
	}

	d, err := e.selector.Select(ctx, in, b.buckets)
	if err != nil {
		b.fail(&out, in, "", model.ReasonStoreReadFailure, err)
		return
	}
	out.Decision = d
	if e.metrics != nil {
		e.metrics.ObserveDecision(d)
	}

	if !d.Matched() {
		b.ledger.Record(in, d.Reason, d.Score)
		b.log.Debug().
			Int("line", in.Line).
			Str("manufacturer", in.Manufacturer).
			Str("reference", in.ReferenceCode).
			Str("reason", d.Reason).
			Err(reasonErr(d.Reason)).
			Float64("best_score", d.Score).
			Msg("unmatched")
		b.res.Outcomes = append(b.res.Outcomes, out)
		return
	}

	sum.Matched++
	switch d.Method {
	case model.MethodExactID:
		sum.ExactID++
	case model.MethodContainedID:
		sum.ContainedID++
	case model.MethodPrefixID:
		sum.PrefixID++
	case model.MethodNameSimilarity:
		sum.NameSimilarity++
	}

	if b.opt.DryRun {
		b.res.Outcomes = append(b.res.Outcomes, out)
		return
	}

	upd, err := e.updater.Apply(ctx, d, in)
	if err != nil {
		b.fail(&out, in, d.CanonicalID, model.ReasonStoreWriteFailure, err)
		return
	}
	sum.LanguagesCreated += len(upd.Created)
	sum.LanguagesUpdated += len(upd.Updated)
	sum.LanguagesUnchanged += len(upd.Unchanged)
	out.Update = &upd
	b.res.Outcomes = append(b.res.Outcomes, out)
}

func (b *batch) fail(out *Outcome, in model.IncomingRecord, canonicalID, reason string, err error) {
	b.res.Summary.Errors++
	out.Error = err.Error()
	b.res.Outcomes = append(b.res.Outcomes, *out)
	b.res.Failures = append(b.res.Failures, Failure{
		Line:          in.Line,
		Manufacturer:  in.Manufacturer,
		ReferenceCode: in.ReferenceCode,
		CanonicalID:   canonicalID,
		Reason:        reason,
		Error:         err.Error(),
	})
	if b.engine.metrics != nil {
		b.engine.metrics.ObserveFailure(reason)
	}
	b.log.Error().
		Err(err).
		Int("line", in.Line).
		Str("manufacturer", in.Manufacturer).
		Str("reference", in.ReferenceCode).
		Str("canonical_id", canonicalID).
		Msg(reason)
}

// brandHint: список производителей грузится один раз на батч.
func (b *batch) brandHint(ctx context.Context, key string) string {
	if !b.knownLoaded {
		b.knownLoaded = true
		if l, ok := b.engine.store.(ManufacturerLister); ok {
			known, err := l.Manufacturers(ctx)
			if err != nil {
				b.log.Warn().Err(err).Msg("list manufacturers for hints")
			}
			b.known = known
		}
	}
	return closestKey(key, b.known)
}

// bucketCache: снимок корзин на время батча, один запрос на производителя.
type bucketCache struct {
	store   Store
	buckets map[string][]model.CanonicalRecord
}

func newBucketCache(st Store) *bucketCache {
	return &bucketCache{store: st, buckets: make(map[string][]model.CanonicalRecord)}
}

func (c *bucketCache) Bucket(ctx context.Context, key string) ([]model.CanonicalRecord, error) {
	if recs, ok := c.buckets[key]; ok {
		return recs, nil
	}
	if key == "" {
		c.buckets[key] = nil
		return nil, nil
	}
	recs, err := c.store.FindByManufacturer(ctx, key)
	if err != nil {
		// не кэшируем: следующая строка попробует ещё раз
		return nil, err
	}
	c.buckets[key] = recs
	return recs, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d matched=%d (exact=%d contained=%d prefix=%d name=%d) unmatched=%d malformed=%d errors=%d",
		s.Total, s.Matched, s.ExactID, s.ContainedID, s.PrefixID, s.NameSimilarity, s.Unmatched, s.Malformed, s.Errors)
}
