package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvingest/internal/config"
	"github.com/JonMunkholm/csvingest/internal/logging"
)

// ingestFlags are the per-command overrides of config.IngestConfig and the
// database URL. Only flags the user actually set replace the env values.
type ingestFlags struct {
	mapFile     string
	outDir      string
	dataDir     string
	databaseURL string
	exclude     []string
	threshold   string
	noLoad      bool
	noDecoded   bool
}

func (f *ingestFlags) addDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mapFile, "map", "", "Column map file, JSON or YAML (env INGEST_MAP_FILE)")
	cmd.Flags().StringVar(&f.outDir, "out-dir", "", "Directory for decoded <table>.csv files (env INGEST_OUTPUT_DIR)")
	cmd.Flags().StringVar(&f.dataDir, "data-dir", "", "Directory that relative CSV paths in the map resolve against (env INGEST_DATA_DIR)")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "Map identifiers never materialized (env INGEST_EXCLUDE)")
	cmd.Flags().StringVar(&f.threshold, "threshold", "", "Amount above which a transaction is flagged (env INGEST_LARGE_TXN_THRESHOLD)")
	cmd.Flags().BoolVar(&f.noDecoded, "no-decoded", false, "Do not write decoded CSV files")
}

func (f *ingestFlags) addDatabaseFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.databaseURL, "database-url", "", "Database URL: postgres://, sqlserver://, sqlite://PATH (env DATABASE_URL)")
}

// apply copies every flag the user set onto cfg.
func (f *ingestFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("map") {
		cfg.Ingest.MapFile = f.mapFile
	}
	if changed("out-dir") {
		cfg.Ingest.OutputDir = f.outDir
	}
	if changed("data-dir") {
		cfg.Ingest.DataDir = f.dataDir
	}
	if changed("exclude") {
		cfg.Ingest.Exclude = f.exclude
	}
	if changed("threshold") {
		d, err := decimal.NewFromString(f.threshold)
		if err != nil {
			return fmt.Errorf("invalid --threshold %q: %w", f.threshold, err)
		}
		cfg.Ingest.LargeTxnThreshold = d
	}
	if changed("no-decoded") && f.noDecoded {
		cfg.Ingest.WriteDecoded = false
	}
	if changed("no-load") && f.noLoad {
		cfg.Ingest.LoadRows = false
	}
	if changed("database-url") {
		cfg.Database.URL = f.databaseURL
	}
	return nil
}

// loadConfig reads .env and the environment, applies flag overrides,
// validates the result and configures logging.
func loadConfig(cmd *cobra.Command, root *rootOptions, flags *ingestFlags) (*config.Config, error) {
	if root.envFile != "" {
		if err := godotenv.Load(root.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, usage(fmt.Errorf("load %s: %w", root.envFile, err))
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, usage(err)
	}

	if root.logLevel != "" {
		cfg.Logging.Level = root.logLevel
	}
	if root.logFormat != "" {
		cfg.Logging.Format = root.logFormat
	}
	if flags != nil {
		if err := flags.apply(cmd, cfg); err != nil {
			return nil, usage(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, usage(err)
	}

	logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
