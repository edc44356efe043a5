package fileio

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"catalog-recon/internal/reconcile/model"
)

// Mapping: какие колонки входящего файла что означают.
// Имена поддерживают альтернативы через "|", например "Fabricant|Manufacturer".
type Mapping struct {
	Manufacturer string
	Reference    string
	Languages    []string
	// Title/Description: язык → колонка. Если языка нет, берётся шаблон с %s.
	Title               map[string]string
	Description         map[string]string
	TitleTemplate       string
	DescriptionTemplate string
}

func DefaultMapping() Mapping {
	return Mapping{
		Manufacturer:        "manufacturer|fabricant|marque|brand",
		Reference:           "reference|référence|ref|reference_code|sku",
		Languages:           []string{"fr", "en"},
		TitleTemplate:       "title_%[1]s|name_%[1]s|nom_%[1]s|titre_%[1]s",
		DescriptionTemplate: "description_%[1]s|desc_%[1]s",
	}
}

func (m Mapping) titleCol(lang string) string {
	if c, ok := m.Title[lang]; ok && c != "" {
		return c
	}
	return fmt.Sprintf(m.TitleTemplate, lang)
}

func (m Mapping) descriptionCol(lang string) string {
	if c, ok := m.Description[lang]; ok && c != "" {
		return c
	}
	return fmt.Sprintf(m.DescriptionTemplate, lang)
}

// CatalogMapping: колонки файла каталога для импорта.
type CatalogMapping struct {
	ID string
	Mapping
	Slug string
}

func DefaultCatalogMapping() CatalogMapping {
	return CatalogMapping{
		ID:      "id|product_id",
		Mapping: DefaultMapping(),
		Slug:    "slug",
	}
}

// catalogNS: пространство имён для детерминированных id при импорте без колонки id.
var catalogNS = uuid.MustParse("8b1f7c52-3f0e-4a43-9d0c-2b8f6f1f6d11")

var reNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// нормализуем имя колонки: нижний регистр, спец-пробелы, служебные символы
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ").Replace(s)
	s = reNonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// resolveKey ищет реальный ключ в записи по желаемому имени.
// Порядок: точное имя, нормализованное имя, затем самое длинное вхождение.
func resolveKey(keys []string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	for _, a := range alts {
		if _, ok := set[a]; ok {
			return a
		}
	}

	nWantAll := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			nWantAll = append(nWantAll, n)
		}
	}
	for _, n := range nWantAll {
		for _, k := range keys {
			if normHeaderKey(k) == n {
				return k
			}
		}
	}

	// составные заголовки: "Référence fabricant" содержит "référence"
	bestKey := ""
	bestScore := 0
	for _, k := range keys {
		nk := normHeaderKey(k)
		if len(nk) < 3 {
			continue
		}
		score := 0
		for _, n := range nWantAll {
			if len(n) < 3 {
				continue
			}
			if strings.Contains(nk, n) || strings.Contains(n, nk) {
				score = max(score, len(n))
			}
		}
		if score > bestScore {
			bestScore, bestKey = score, k
		}
	}
	return bestKey
}

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type resolvedCols struct {
	manufacturer string
	reference    string
	title        map[string]string
	description  map[string]string
}

func (m Mapping) resolve(keys []string) resolvedCols {
	rc := resolvedCols{
		manufacturer: resolveKey(keys, m.Manufacturer),
		reference:    resolveKey(keys, m.Reference),
		title:        map[string]string{},
		description:  map[string]string{},
	}
	for _, lang := range m.Languages {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		rc.title[lang] = resolveKey(keys, m.titleCol(lang))
		rc.description[lang] = resolveKey(keys, m.descriptionCol(lang))
	}
	return rc
}

// value: ячейка как в файле, отсутствующая колонка даёт пустую строку.
// Входящие записи несут сырые значения, чтобы ledger возвращал их без потерь.
func value(rec map[string]string, key string) string {
	if key == "" {
		return ""
	}
	return rec[key]
}

func trimmed(rec map[string]string, key string) string {
	return strings.TrimSpace(value(rec, key))
}

func (rc resolvedCols) fields(rec map[string]string) map[string]model.IncomingField {
	out := make(map[string]model.IncomingField, len(rc.title))
	for lang, tk := range rc.title {
		f := model.IncomingField{Title: value(rec, tk), Description: value(rec, rc.description[lang])}
		if !f.Empty() {
			out[lang] = f
		}
	}
	return out
}

// looksLikeHeader: повторённая посреди файла шапка.
func (rc resolvedCols) looksLikeHeader(rec map[string]string) bool {
	return rc.manufacturer != "" && rc.reference != "" &&
		strings.EqualFold(trimmed(rec, rc.manufacturer), rc.manufacturer) &&
		strings.EqualFold(trimmed(rec, rc.reference), rc.reference)
}

// ToIncoming переводит строки файла во входящие записи. Колонки ищутся один раз
// по заголовкам первой строки. Некорректные строки не отбрасываются: их
// пропускает и считает движок.
func ToIncoming(rows []Row, m Mapping) []model.IncomingRecord {
	if len(rows) == 0 {
		return nil
	}
	rc := m.resolve(sortedKeys(rows[0].Values))
	out := make([]model.IncomingRecord, 0, len(rows))
	for _, row := range rows {
		if rc.looksLikeHeader(row.Values) {
			continue
		}
		out = append(out, model.IncomingRecord{
			Line:          row.Line,
			Manufacturer:  value(row.Values, rc.manufacturer),
			ReferenceCode: value(row.Values, rc.reference),
			Fields:        rc.fields(row.Values),
		})
	}
	return out
}

// ToCanonical собирает записи каталога для импорта. key нормализует производителя
// в ключ каталога. Возвращает номера строк без производителя.
func ToCanonical(rows []Row, m CatalogMapping, key func(string) string) ([]model.CanonicalRecord, []int) {
	if len(rows) == 0 {
		return nil, nil
	}
	keys := sortedKeys(rows[0].Values)
	rc := m.resolve(keys)
	idCol := resolveKey(keys, m.ID)
	slugCol := resolveKey(keys, m.Slug)

	var (
		out     []model.CanonicalRecord
		skipped []int
	)
	for _, row := range rows {
		if rc.looksLikeHeader(row.Values) {
			continue
		}
		mk := key(trimmed(row.Values, rc.manufacturer))
		if mk == "" {
			skipped = append(skipped, row.Line)
			continue
		}
		ref := trimmed(row.Values, rc.reference)
		id := trimmed(row.Values, idCol)
		if id == "" {
			id = uuid.NewSHA1(catalogNS, []byte(mk+"\x00"+ref+"\x00"+fmt.Sprint(row.Line))).String()
		}
		tr := map[string]model.Translation{}
		for lang, f := range rc.fields(row.Values) {
			tr[lang] = model.Translation{Name: strings.TrimSpace(f.Title), Description: strings.TrimSpace(f.Description)}
		}
		out = append(out, model.CanonicalRecord{
			ID:              id,
			ManufacturerKey: mk,
			ReferenceCodes:  ref,
			Slug:            trimmed(row.Values, slugCol),
			Translations:    tr,
		})
	}
	return out, skipped
}
