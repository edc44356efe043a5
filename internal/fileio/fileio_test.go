package fileio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"

	"catalog-recon/internal/reconcile/model"
)

const incomingCSV = `Fabricant;Référence;Nom_FR;Description_FR;Name_EN
Moria Surgical;A10.1500;Ciseaux de Vannas;Lames courbes;Vannas scissors

Moria;FS803-35;Pince de suture;;
Fabricant;Référence;Nom_FR;Description_FR;Name_EN
Keeler;;;;
`

func TestReadCSV_SemicolonAndLineNumbers(t *testing.T) {
	rows, err := ReadAnyMaps(strings.NewReader(incomingCSV), "in.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 4, "blank line is dropped")

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Moria Surgical", rows[0].Values["Fabricant"])
	assert.Equal(t, 4, rows[1].Line, "line numbers survive skipped blank rows")
	assert.Equal(t, 6, rows[3].Line)
}

func TestReadAnyMaps_Unsupported(t *testing.T) {
	_, err := ReadAnyMaps(strings.NewReader(""), "in.pdf", 1)
	assert.Error(t, err)
}

func TestResolveKey(t *testing.T) {
	keys := []string{"Fabricant", "Référence fabricant", "Nom FR", "Nom EN"}
	tests := []struct {
		name string
		want string
		exp  string
	}{
		{"exact alternative", "manufacturer|Fabricant", "Fabricant"},
		{"normalized", "nom_fr", "Nom FR"},
		{"containment", "reference|référence", "Référence fabricant"},
		{"missing", "description_fr", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.exp, resolveKey(keys, tt.want))
		})
	}
}

func TestToIncoming(t *testing.T) {
	rows, err := ReadAnyMaps(strings.NewReader(incomingCSV), "in.csv", 1)
	require.NoError(t, err)

	recs := ToIncoming(rows, DefaultMapping())
	require.Len(t, recs, 3, "repeated header row is skipped")

	first := recs[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Moria Surgical", first.Manufacturer)
	assert.Equal(t, "A10.1500", first.ReferenceCode)
	assert.Equal(t, model.IncomingField{Title: "Ciseaux de Vannas", Description: "Lames courbes"}, first.Fields["fr"])
	assert.Equal(t, "Vannas scissors", first.Fields["en"].Title)

	second := recs[1]
	assert.Equal(t, "Pince de suture", second.Fields["fr"].Title)
	_, hasEN := second.Fields["en"]
	assert.False(t, hasEN, "empty language is not carried")

	assert.True(t, recs[2].Malformed())
}

func TestToCanonical(t *testing.T) {
	const catalog = "id,manufacturer,reference,slug,name_fr,name_en\n" +
		"p-1,Moria,\"A10.1500, A1.2100\",ciseaux,Ciseaux,Scissors\n" +
		",Keeler,KL-1,,Lampe,\n" +
		",,X-1,,Orphan,\n"
	rows, err := ReadAnyMaps(strings.NewReader(catalog), "catalog.csv", 1)
	require.NoError(t, err)

	recs, skipped := ToCanonical(rows, DefaultCatalogMapping(), strings.ToLower)
	require.Len(t, recs, 2)
	assert.Equal(t, []int{4}, skipped)

	assert.Equal(t, "p-1", recs[0].ID)
	assert.Equal(t, "moria", recs[0].ManufacturerKey)
	assert.Equal(t, []string{"A10.1500", "A1.2100"}, recs[0].Codes())
	assert.Equal(t, "Scissors", recs[0].Translations["en"].Name)

	assert.NotEmpty(t, recs[1].ID, "id is derived when the column is empty")
	again, _ := ToCanonical(rows, DefaultCatalogMapping(), strings.ToLower)
	assert.Equal(t, recs[1].ID, again[1].ID)
	assert.NotContains(t, recs[1].Translations, "en")
}

func ledgerFixture() []model.UnmatchedEntry {
	return []model.UnmatchedEntry{
		{
			Record: model.IncomingRecord{
				Line: 7, Manufacturer: "Moria Surgicl", ReferenceCode: "FS803-35",
				Fields: map[string]model.IncomingField{"fr": {Title: "Pince, courbe", Description: "8,70 mm"}},
			},
			Reason: model.ReasonBrandNotInStore, Hint: "moria",
		},
		{
			Record: model.IncomingRecord{
				Line: 9, Manufacturer: "Keeler", ReferenceCode: "ZZ-1",
				Fields: map[string]model.IncomingField{"en": {Title: "Lamp"}},
			},
			Reason: model.ReasonNoMatchAboveThreshold, BestScore: 42.5,
		},
	}
}

func TestWriteLedgerCSV_Verbatim(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, ledgerFixture(), nil))

	rows, err := ReadAnyMaps(&buf, "ledger.csv", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Moria Surgicl", rows[0].Values["manufacturer"])
	assert.Equal(t, "Pince, courbe", rows[0].Values["title_fr"])
	assert.Equal(t, "8,70 mm", rows[0].Values["description_fr"])
	assert.Equal(t, "moria", rows[0].Values["hint"])
	assert.Equal(t, "42.5", rows[1].Values["best_score"])
	assert.Equal(t, "", rows[1].Values["title_fr"])
}

func TestWriteLedgerXLSX_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerXLSX(&buf, ledgerFixture(), []string{"fr", "en"}))

	rows, err := ReadAnyMaps(&buf, "ledger.xlsx", 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "7", rows[0].Values["line"])
	assert.Equal(t, model.ReasonBrandNotInStore, rows[0].Values["reason"])
	assert.Equal(t, "Lamp", rows[1].Values["title_en"])

	recs := ToIncoming(rows, DefaultMapping())
	require.Len(t, recs, 2)
	assert.Equal(t, "FS803-35", recs[0].ReferenceCode)
	assert.Equal(t, "Pince, courbe", recs[0].Fields["fr"].Title)
}

func TestReadXLSX_EmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	var rows []Row
	require.NotPanics(t, func() {
		var err error
		rows, err = ReadAnyMaps(&buf, "empty.xlsx", 1)
		require.NoError(t, err)
	})
	assert.Empty(t, rows)
	assert.Empty(t, ToIncoming(rows, DefaultMapping()))
}

func TestPickHeader_NoRows(t *testing.T) {
	assert.Nil(t, pickHeader(nil, 3))
}

func TestToIncoming_KeepsRawCells(t *testing.T) {
	const in = "manufacturer,reference,title_fr\n" +
		"\"  Moria \",\" FS803-35 \",\" Pince,  courbe \"\n"
	rows, err := ReadAnyMaps(strings.NewReader(in), "in.csv", 1)
	require.NoError(t, err)

	recs := ToIncoming(rows, DefaultMapping())
	require.Len(t, recs, 1)
	assert.Equal(t, "  Moria ", recs[0].Manufacturer)
	assert.Equal(t, " FS803-35 ", recs[0].ReferenceCode)
	assert.Equal(t, " Pince,  courbe ", recs[0].Fields["fr"].Title)

	entries := []model.UnmatchedEntry{{Record: recs[0], Reason: model.ReasonNoMatchAboveThreshold}}
	var buf bytes.Buffer
	require.NoError(t, WriteLedgerCSV(&buf, entries, nil))
	back, err := ReadAnyMaps(&buf, "ledger.csv", 1)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "  Moria ", back[0].Values["manufacturer"])
	assert.Equal(t, " FS803-35 ", back[0].Values["reference"])
	assert.Equal(t, " Pince,  courbe ", back[0].Values["title_fr"])
}

func TestToCanonical_TrimsForImport(t *testing.T) {
	const catalog = "id,manufacturer,reference,name_fr\n" +
		"\" p-9 \",\" Moria \",\" KL-1 \",\" Lampe \"\n"
	rows, err := ReadAnyMaps(strings.NewReader(catalog), "catalog.csv", 1)
	require.NoError(t, err)

	recs, skipped := ToCanonical(rows, DefaultCatalogMapping(), strings.ToLower)
	require.Len(t, recs, 1)
	assert.Empty(t, skipped)
	assert.Equal(t, "p-9", recs[0].ID)
	assert.Equal(t, "moria", recs[0].ManufacturerKey)
	assert.Equal(t, "KL-1", recs[0].ReferenceCodes)
	assert.Equal(t, "Lampe", recs[0].Translations["fr"].Name)
}
