package serverhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-recon/internal/config"
	"catalog-recon/internal/fileio"
	"catalog-recon/internal/metrics"
	"catalog-recon/internal/reconcile/model"
	"catalog-recon/internal/reconcile/rules"
	recSvc "catalog-recon/internal/reconcile/service"
	"catalog-recon/internal/store"
)

const uploadCSV = "manufacturer,reference,name_fr,description_fr\n" +
	"Moria Surgical,A10.1500,Ciseaux de Vannas,Lames courbes 8 mm\n" +
	"Unknown Brand,ZZ-1,Pince,\n"

func newTestServer(t *testing.T) (http.Handler, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	require.NoError(t, st.CreateProduct(context.Background(), model.CanonicalRecord{
		ID: "p-1", ManufacturerKey: "moria", ReferenceCodes: "A10.1500",
		Translations: map[string]model.Translation{"en": {Name: "Vannas scissors"}},
	}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	eng := recSvc.NewEngine(rules.Default(), st, zerolog.Nop(), recSvc.WithRecorder(m))
	cfg := config.Config{AllowOrigins: []string{"*"}, MaxUploadMB: 1}
	return NewRouter(cfg, eng, m, reg, zerolog.Nop()), st
}

func upload(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "incoming.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, uploadCSV)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/reconcile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReconcile_JSON(t *testing.T) {
	srv, st := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, upload(t, map[string]string{"languages": "fr"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res recSvc.BatchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, 1, res.Summary.ExactID)
	assert.Equal(t, 1, res.Summary.Unmatched)
	assert.Equal(t, 1, res.Summary.LanguagesCreated)
	require.Len(t, res.Unmatched, 1)
	assert.Equal(t, model.ReasonBrandNotInStore, res.Unmatched[0].Reason)
	assert.Equal(t, 3, res.Unmatched[0].Record.Line)
	assert.Equal(t, res.Summary.BatchID, rec.Header().Get("X-Batch-ID"))

	p, err := st.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Ciseaux de Vannas", p.Translations["fr"].Name)
	assert.Equal(t, "Vannas scissors", p.Translations["en"].Name)
}

func TestReconcile_DryRunDoesNotWrite(t *testing.T) {
	srv, st := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, upload(t, map[string]string{"dry_run": "true"}))
	require.Equal(t, http.StatusOK, rec.Code)

	p, err := st.Get(context.Background(), "p-1")
	require.NoError(t, err)
	assert.NotContains(t, p.Translations, "fr")
}

func TestReconcile_XLSXLedger(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, upload(t, map[string]string{"format": "xlsx", "dry_run": "1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

	rows, err := fileio.ReadAnyMaps(rec.Body, "ledger.xlsx", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Unknown Brand", rows[0].Values["manufacturer"])
	assert.Equal(t, "Pince", rows[0].Values["title_fr"])
}

func TestReconcile_MissingFile(t *testing.T) {
	srv, _ := newTestServer(t)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("dry_run", "true"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/reconcile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.ServeHTTP(httptest.NewRecorder(), upload(t, nil))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog_recon_match_decisions_total")
	assert.Contains(t, rec.Body.String(), `route="/reconcile"`)
}
