package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"catalog-recon/internal/fileio"
	recSvc "catalog-recon/internal/reconcile/service"
	"catalog-recon/internal/store"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.xlsx|xls|csv>",
		Short: "Load canonical records into the store",
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

			cm := fileio.DefaultCatalogMapping()
			cm.Mapping = a.mapping()
			norm := recSvc.NewNormalizer(rs.Aliases)
			recs, skipped := fileio.ToCanonical(rows, cm, norm.Normalize)

			created, existing := 0, 0
			for _, p := range recs {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				err := st.CreateProduct(cmd.Context(), p)
				switch {
				case err == nil:
					created++
				case errors.Is(err, store.ErrAlreadyExists):
					existing++
				default:
					return err
				}
			}
			for _, line := range skipped {
				a.logger.Warn().Int("line", line).Msg("skip catalog row without manufacturer")
			}
			a.logger.Info().Int("created", created).Int("existing", existing).Int("skipped", len(skipped)).Msg("import done")
			fmt.Fprintf(cmd.OutOrStdout(), "created=%d existing=%d skipped=%d\n", created, existing, len(skipped))
			return nil
		},
	}
}
