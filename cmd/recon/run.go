package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"catalog-recon/internal/fileio"
	"catalog-recon/internal/reconcile/model"
	recSvc "catalog-recon/internal/reconcile/service"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <incoming.xlsx|xls|csv>",
		Short: "Reconcile an incoming file against the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := a.rules()
			if err != nil {
				return err
			}
			rows, err := a.readRows(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			m := a.mapping()
			engine := recSvc.NewEngine(rs, st, a.logger)
			res, runErr := engine.Run(cmd.Context(), fileio.ToIncoming(rows, m), recSvc.Options{
				DryRun: a.v.GetBool("dry-run"),
			})

			// ledger пишем и при отмене: частичный результат тоже полезен
			if out := a.v.GetString("unmatched"); out != "" {
				if err := writeLedger(out, res.Unmatched, m.Languages); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Summary.String())
			return runErr
		},
	}
	cmd.Flags().Bool("dry-run", false, "decide only, do not write to the store")
	cmd.Flags().String("unmatched", "", "write unmatched ledger to this .xlsx or .csv file")
	return cmd
}

func writeLedger(path string, entries []model.UnmatchedEntry, langs []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = fileio.WriteLedgerCSV(f, entries, langs)
	case ".xlsx":
		err = fileio.WriteLedgerXLSX(f, entries, langs)
	default:
		err = fmt.Errorf("unsupported ledger format: %s", path)
	}
	if err != nil {
		return fmt.Errorf("write ledger %s: %w", path, err)
	}
	return f.Close()
}
