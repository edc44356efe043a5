package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"catalog-recon/internal/config"
	"catalog-recon/internal/fileio"
	"catalog-recon/internal/reconcile/rules"
	"catalog-recon/internal/store"
)

// app хранит общее состояние команд: viper на команду, без глобалей.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "recon",
		Short: "Reconcile supplier catalogues against the canonical product store",
		Long: `recon imports canonical catalogue files into the SQLite store and reconciles
incoming supplier files against it, enriching matched products with translations
and exporting the rows it could not place.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String("db", "data/catalog.db", "SQLite database path")
	pf.String("rules", "", "matching rules YAML (default: built-in rules)")
	pf.String("log-level", "info", "log level")
	pf.String("log-file", "", "also write logs to this rotating file")
	pf.Int("header-row", 1, "header row number (1-based)")
	pf.StringSlice("languages", []string{"fr", "en"}, "languages to read")
	pf.String("manufacturer-col", "", "manufacturer column (alternatives with |)")
	pf.String("reference-col", "", "reference column (alternatives with |)")
	if err := a.v.BindPFlags(pf); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}

	root.AddCommand(newImportCmd(a), newRunCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	_ = godotenv.Load()
	a.v.SetEnvPrefix("RECON")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	a.logger = newCLILogger(a.v.GetString("log-level"), a.v.GetString("log-file"), cmd)
	return nil
}

func newCLILogger(level, file string, cmd *cobra.Command) zerolog.Logger {
	if file != "" {
		return config.SetupLogger(config.Config{LogLevel: level, LogFile: file})
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).Level(lvl).With().Timestamp().Logger()
}

func (a *app) rules() (rules.Rules, error) {
	if p := a.v.GetString("rules"); p != "" {
		return rules.Load(p)
	}
	return rules.Default(), nil
}

func (a *app) openStore() (*store.SQLiteStore, error) {
	return store.Open(a.v.GetString("db"), a.logger)
}

func (a *app) mapping() fileio.Mapping {
	m := fileio.DefaultMapping()
	if c := a.v.GetString("manufacturer-col"); c != "" {
		m.Manufacturer = c
	}
	if c := a.v.GetString("reference-col"); c != "" {
		m.Reference = c
	}
	if langs := a.v.GetStringSlice("languages"); len(langs) > 0 {
		m.Languages = langs
	}
	return m
}

func (a *app) readRows(path string) ([]fileio.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fileio.ReadAnyMaps(f, path, a.v.GetInt("header-row"))
}
