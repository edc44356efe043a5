package model

import (
	"sort"
	"strings"
	"time"
	"unicode"
)

type Status string

const (
	StatusMatched   Status = "matched"
	StatusUnmatched Status = "unmatched"
)

type Method string

const (
	MethodExactID        Method = "exact_id"
	MethodContainedID    Method = "contained_id"
	MethodPrefixID       Method = "prefix_id" // слабый сигнал, только если включён prefix_length
	MethodNameSimilarity Method = "name_similarity"
)

// причины для ledger'а и сводки
const (
	ReasonBrandNotInStore       = "brand_not_in_store"
	ReasonNoMatchAboveThreshold = "no_match_above_threshold"
	ReasonMalformedRecord       = "malformed_record"
	ReasonStoreWriteFailure     = "store_write_failure"
	ReasonStoreReadFailure      = "store_read_failure"
)

type Translation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CanonicalRecord: товар, уже лежащий в каталоге.
type CanonicalRecord struct {
	ID              string                 `json:"id"`
	ManufacturerKey string                 `json:"manufacturerKey"`
	ReferenceCodes  string                 `json:"referenceCodes"` // может быть "A10.1500, A1.2100"
	Slug            string                 `json:"slug"`
	Translations    map[string]Translation `json:"translations"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

// Codes режет поле артикулов по запятым; каждое значение значимо само по себе.
func (c CanonicalRecord) Codes() []string {
	return SplitCodes(c.ReferenceCodes, false)
}

// Languages: отсортированный список языков с переводами.
func (c CanonicalRecord) Languages() []string {
	out := make([]string, 0, len(c.Translations))
	for l := range c.Translations {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

type IncomingField struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (f IncomingField) Empty() bool {
	return strings.TrimSpace(f.Title) == "" && strings.TrimSpace(f.Description) == ""
}

// IncomingRecord: строка из внешнего файла, живёт только в пределах батча.
type IncomingRecord struct {
	Line          int                      `json:"line"` // номер строки в исходном файле (1-based), 0 если неизвестен
	Manufacturer  string                   `json:"manufacturer"`
	ReferenceCode string                   `json:"referenceCode"`
	Fields        map[string]IncomingField `json:"fields"`
}

// Codes режет входящий артикул по запятым и пробелам.
func (r IncomingRecord) Codes() []string {
	return SplitCodes(r.ReferenceCode, true)
}

func (r IncomingRecord) Languages() []string {
	out := make([]string, 0, len(r.Fields))
	for l := range r.Fields {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// LangKey: канонический код языка ("FR " -> "fr").
func LangKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// LangFields: поля по каноническому коду языка. Если сырые ключи совпадают после
// нормализации ("FR" и "fr"), title и description берутся по отдельности из первого
// ключа с непустым значением в порядке сортировки сырых ключей.
func (r IncomingRecord) LangFields() map[string]IncomingField {
	out := make(map[string]IncomingField, len(r.Fields))
	for _, raw := range r.Languages() {
		lang := LangKey(raw)
		if lang == "" {
			continue
		}
		f := r.Fields[raw]
		cur := out[lang]
		if strings.TrimSpace(cur.Title) == "" {
			cur.Title = f.Title
		}
		if strings.TrimSpace(cur.Description) == "" {
			cur.Description = f.Description
		}
		out[lang] = cur
	}
	return out
}

// HasTitle: есть ли хоть одно непустое наименование.
func (r IncomingRecord) HasTitle() bool {
	for _, f := range r.Fields {
		if strings.TrimSpace(f.Title) != "" {
			return true
		}
	}
	return false
}

// Malformed: нет ни артикула, ни наименования ни на одном языке.
func (r IncomingRecord) Malformed() bool {
	return strings.TrimSpace(r.ReferenceCode) == "" && !r.HasTitle()
}

// Clone: глубокая копия, чтобы ledger хранил значения как есть.
func (r IncomingRecord) Clone() IncomingRecord {
	out := r
	if r.Fields != nil {
		out.Fields = make(map[string]IncomingField, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

type MatchDecision struct {
	Status      Status  `json:"status"`
	CanonicalID string  `json:"canonicalId,omitempty"`
	Score       float64 `json:"score"` // для unmatched: лучший отвергнутый скор
	Method      Method  `json:"method,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

func (d MatchDecision) Matched() bool { return d.Status == StatusMatched }

// KeyTermSet: производные токены для сравнения, пересчитываются на каждое сравнение.
type KeyTermSet struct {
	DomainTerms  map[string]struct{}
	Measurements map[string]struct{}
	ModelCodes   map[string]struct{}
}

func NewKeyTermSet() KeyTermSet {
	return KeyTermSet{
		DomainTerms:  make(map[string]struct{}),
		Measurements: make(map[string]struct{}),
		ModelCodes:   make(map[string]struct{}),
	}
}

// Merge добавляет токены other в s.
func (s KeyTermSet) Merge(other KeyTermSet) {
	for k := range other.DomainTerms {
		s.DomainTerms[k] = struct{}{}
	}
	for k := range other.Measurements {
		s.Measurements[k] = struct{}{}
	}
	for k := range other.ModelCodes {
		s.ModelCodes[k] = struct{}{}
	}
}

// SplitCodes режет строку артикулов. withSpaces=true: ещё и по пробелам
// (входящие файлы), иначе только по запятым (поле в каталоге).
func SplitCodes(s string, withSpaces bool) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		if r == ',' {
			return true
		}
		return withSpaces && unicode.IsSpace(r)
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UpdateResult: что сделал upsert переводов для одной записи каталога.
type UpdateResult struct {
	CanonicalID string   `json:"canonicalId"`
	Created     []string `json:"created,omitempty"`   // языки, для которых создан перевод
	Updated     []string `json:"updated,omitempty"`   // изменены name/description
	Unchanged   []string `json:"unchanged,omitempty"` // значения уже совпадали
}

// UnmatchedEntry: строка ledger'а, входящая запись как есть + причина.
type UnmatchedEntry struct {
	Record    IncomingRecord `json:"record"`
	Reason    string         `json:"reason"`
	BestScore float64        `json:"bestScore"`
	Hint      string         `json:"hint,omitempty"` // ближайший известный производитель
}
