package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"catalog-recon/internal/reconcile/model"
)

const memoryPath = ":memory:"

// SQLiteStore: каталог в SQLite. Один писатель, поэтому одно соединение.
type SQLiteStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open открывает (и создаёт) базу и накатывает миграции. path ":memory:": для тестов.
func Open(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = memoryPath
	}
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// :memory: живёт, пока живо соединение
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if path != memoryPath {
		if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma journal_mode: %w", err)
		}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := Migrate(db.DB, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, logger: logger, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type productRow struct {
	Seq             int64          `db:"seq"`
	ID              string         `db:"id"`
	ManufacturerKey string         `db:"manufacturer_key"`
	ReferenceCodes  string         `db:"reference_codes"`
	Slug            string         `db:"slug"`
	UpdatedAt       time.Time      `db:"updated_at"`
	Language        sql.NullString `db:"language"`
	Name            sql.NullString `db:"name"`
	Description     sql.NullString `db:"description"`
}

type translationRow struct {
	Language    string `db:"language"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

func selectProducts() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(
		"p.seq AS seq", "p.id AS id", "p.manufacturer_key AS manufacturer_key",
		"p.reference_codes AS reference_codes", "p.slug AS slug", "p.updated_at AS updated_at",
		"t.language AS language", "t.name AS name", "t.description AS description",
	)
	sb.From("products p")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "product_translations t", "t.product_id = p.id")
	return sb
}

// collect склеивает строки join'а в записи, сохраняя порядок seq.
func collect(rows []productRow) []model.CanonicalRecord {
	var out []model.CanonicalRecord
	idx := map[string]int{}
	for _, r := range rows {
		i, ok := idx[r.ID]
		if !ok {
			out = append(out, model.CanonicalRecord{
				ID:              r.ID,
				ManufacturerKey: r.ManufacturerKey,
				ReferenceCodes:  r.ReferenceCodes,
				Slug:            r.Slug,
				UpdatedAt:       r.UpdatedAt,
				Translations:    map[string]model.Translation{},
			})
			i = len(out) - 1
			idx[r.ID] = i
		}
		if r.Language.Valid {
			out[i].Translations[r.Language.String] = model.Translation{
				Name:        r.Name.String,
				Description: r.Description.String,
			}
		}
	}
	return out
}

// FindByManufacturer: вся корзина производителя в порядке создания.
func (s *SQLiteStore) FindByManufacturer(ctx context.Context, key string) ([]model.CanonicalRecord, error) {
	sb := selectProducts()
	sb.Where(sb.Equal("p.manufacturer_key", key))
	sb.OrderBy("p.seq", "t.language")
	query, args := sb.Build()

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.Error().Err(err).Str("manufacturer", key).Msg("find by manufacturer")
		return nil, fmt.Errorf("find by manufacturer %q: %w", key, err)
	}
	return collect(rows), nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.CanonicalRecord, error) {
	sb := selectProducts()
	sb.Where(sb.Equal("p.id", id))
	sb.OrderBy("t.language")
	query, args := sb.Build()

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return model.CanonicalRecord{}, fmt.Errorf("get product %s: %w", id, err)
	}
	recs := collect(rows)
	if len(recs) == 0 {
		return model.CanonicalRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return recs[0], nil
}

// TranslationCount: сколько строк переводов у записи (для проверки идемпотентности).
func (s *SQLiteStore) TranslationCount(ctx context.Context, id, lang string) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(1)").From("product_translations")
	sb.Where(sb.Equal("product_id", id), sb.Equal("language", lang))
	query, args := sb.Build()
	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Manufacturers(ctx context.Context) ([]string, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("DISTINCT manufacturer_key").From("products").OrderBy("manufacturer_key")
	query, args := sb.Build()
	var out []string
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list manufacturers: %w", err)
	}
	return out, nil
}

// CreateProduct: импорт записи каталога вместе с переводами.
func (s *SQLiteStore) CreateProduct(ctx context.Context, p model.CanonicalRecord) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("products")
	ib.Cols("id", "manufacturer_key", "reference_codes", "slug", "created_at", "updated_at")
	ib.Values(p.ID, p.ManufacturerKey, p.ReferenceCodes, p.Slug, now, now)
	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, p.ID)
		}
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}

	for _, lang := range sortedLangs(p.Translations) {
		t := p.Translations[lang]
		if err := insertTranslation(ctx, tx, p.ID, lang, t, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// UpsertTranslations: одна транзакция на запись, либо все языки, либо ни одного.
// Ключ upsert'а (product_id, language), повторный вызов не создаёт второй строки.
func (s *SQLiteStore) UpsertTranslations(ctx context.Context, id string, tr map[string]model.Translation) (model.UpdateResult, error) {
	res := model.UpdateResult{CanonicalID: id}
	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(1) FROM products WHERE id = ?`, id); err != nil {
		return res, fmt.Errorf("check product %s: %w", id, err)
	}
	if n == 0 {
		return res, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("language", "name", "description").From("product_translations")
	sb.Where(sb.Equal("product_id", id))
	query, args := sb.Build()
	var curRows []translationRow
	if err := tx.SelectContext(ctx, &curRows, query, args...); err != nil {
		return res, fmt.Errorf("load translations %s: %w", id, err)
	}
	cur := make(map[string]model.Translation, len(curRows))
	for _, r := range curRows {
		cur[r.Language] = model.Translation{Name: r.Name, Description: r.Description}
	}

	for _, lang := range sortedLangs(tr) {
		old, exists := cur[lang]
		merged := mergeTranslation(old, tr[lang])
		switch {
		case !exists:
			res.Created = append(res.Created, lang)
		case merged == old:
			res.Unchanged = append(res.Unchanged, lang)
			continue
		default:
			res.Updated = append(res.Updated, lang)
		}
		if err := insertTranslation(ctx, tx, id, lang, merged, now); err != nil {
			return model.UpdateResult{CanonicalID: id}, err
		}
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("products").Set(ub.Assign("updated_at", now)).Where(ub.Equal("id", id))
	query, args = ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return model.UpdateResult{CanonicalID: id}, fmt.Errorf("touch product %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return model.UpdateResult{CanonicalID: id}, fmt.Errorf("commit tx: %w", err)
	}
	return res, nil
}

func insertTranslation(ctx context.Context, tx *sqlx.Tx, id, lang string, t model.Translation, now time.Time) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("product_translations")
	ib.Cols("product_id", "language", "name", "description", "created_at", "updated_at")
	ib.Values(id, lang, t.Name, t.Description, now, now)
	query, args := ib.Build()
	query += " ON CONFLICT (product_id, language) DO UPDATE SET name = excluded.name, description = excluded.description, updated_at = excluded.updated_at"
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert translation %s/%s: %w", id, lang, err)
	}
	return nil
}
