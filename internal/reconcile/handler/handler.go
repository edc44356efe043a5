package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"catalog-recon/internal/config"
	"catalog-recon/internal/fileio"
	"catalog-recon/internal/middleware"
	recSvc "catalog-recon/internal/reconcile/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Reconcile возвращает http.HandlerFunc, чтобы его можно было повесить как
// r.Post("/reconcile", recHnd.Reconcile(cfg, engine, logger)) в роутере.
func Reconcile(cfg config.Config, engine *recSvc.Engine, logger zerolog.Logger) http.HandlerFunc {
	maxMemory := int64(cfg.MaxUploadMB) << 20
	if maxMemory <= 0 {
		maxMemory = 32 << 20
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.With().Str("rid", middleware.GetRequestID(r)).Logger()

		defer r.Body.Close()
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file: "+err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()

		// Читаем таблицу (auto-encoding CSV, XLS/XLSX внутри fileio)
		rows, err := fileio.ReadAnyMaps(file, header.Filename, atoi(r.FormValue("header_row"), 1))
		if err != nil {
			http.Error(w, "failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}

		mapping := mappingFromForm(r)
		incoming := fileio.ToIncoming(rows, mapping)
		opt := recSvc.Options{DryRun: toBool(r.FormValue("dry_run"), false)}

		log.Debug().
			Str("file", header.Filename).
			Int("rows", len(rows)).
			Int("records", len(incoming)).
			Strs("languages", mapping.Languages).
			Bool("dry_run", opt.DryRun).
			Msg("reconcile request")

		res, err := engine.Run(r.Context(), incoming, opt)
		if err != nil {
			// клиент ушёл: частичный результат уже закоммичен построчно
			if errors.Is(err, r.Context().Err()) {
				log.Warn().Err(err).Int("processed", res.Summary.Total).Msg("reconcile canceled")
				return
			}
			log.Error().Err(err).Msg("reconcile")
			http.Error(w, "reconcile failed: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set(middleware.HeaderBatchID, res.Summary.BatchID)
		switch r.FormValue("format") {
		case "xlsx":
			w.Header().Set("Content-Type", xlsxContentType)
			w.Header().Set("Content-Disposition", `attachment; filename="unmatched-`+res.Summary.BatchID+`.xlsx"`)
			if err := fileio.WriteLedgerXLSX(w, res.Unmatched, mapping.Languages); err != nil {
				log.Error().Err(err).Msg("write xlsx")
				return
			}
		default:
			if err := writeJSON(w, http.StatusOK, res); err != nil {
				log.Error().Err(err).Msg("write json")
				return
			}
		}

		log.Info().
			Str("batch_id", res.Summary.BatchID).
			Int("records", len(incoming)).
			Int("matched", res.Summary.Matched).
			Int("unmatched", res.Summary.Unmatched).
			Dur("elapsed", time.Since(start)).
			Msg("reconcile done")
	}
}
