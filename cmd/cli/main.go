package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/SampleSensei/internal/config"
	"github.com/himanishpuri/SampleSensei/internal/storage"
	"github.com/himanishpuri/SampleSensei/pkg/logger"
	"github.com/himanishpuri/SampleSensei/pkg/sensei"
)

// Global flags
var (
	cfgFile   string
	storeKind string
	indexPath string
	logLevel  string
)

var appCfg *config.Config

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sensei",
		Short: "SampleSensei - search your sample library and sketch drum loops",
		Long: `SampleSensei indexes local sample folders by file name, ranks samples
against free-text queries and renders simple drum loops when nothing fits.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.sample-sensei/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "index store: json or sqlite (env: SENSEI_INDEX_STORE)")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index", "", "path to the index file (env: SENSEI_INDEX_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (env: LOG_LEVEL)")

	rootCmd.AddCommand(
		newScanCmd(),
		newSearchCmd(),
		newCategoryCmd(),
		newBPMCmd(),
		newRandomCmd(),
		newCategoriesCmd(),
		newListCmd(),
		newGenerateCmd(),
		newGenresCmd(),
		newClearCmd(),
	)
	return rootCmd
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if storeKind != "" && storeKind != cfg.Index.Store {
		cfg.Index.Store = storeKind
		if indexPath == "" {
			name := storage.DefaultJSONFile
			if storeKind == storage.KindSQLite {
				name = storage.DefaultDBFile
			}
			cfg.Index.Path = filepath.Join(filepath.Dir(cfg.Index.Path), name)
		}
	}
	if indexPath != "" {
		cfg.Index.Path = indexPath
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if os.Getenv("LOG_LEVEL") == "" || logLevel != "" {
		if lvl, ok := logger.ParseLevel(level); ok {
			logger.SetLevel(lvl)
		}
	}

	appCfg = cfg
	return nil
}

// createService creates a SampleSensei service from the loaded configuration
func createService(opts ...sensei.Option) (sensei.Service, error) {
	base := []sensei.Option{sensei.FromConfig(appCfg)}
	return sensei.NewService(append(base, opts...)...)
}

func printBanner() {
	banner := `
  ____                        _      ____                      _
 / ___|  __ _ _ __ ___  _ __ | | ___/ ___|  ___ _ __  ___  ___(_)
 \___ \ / _' | '_ ' _ \| '_ \| |/ _ \___ \ / _ \ '_ \/ __|/ _ \ |
  ___) | (_| | | | | | | |_) | |  __/___) |  __/ | | \__ \  __/ |
 |____/ \__,_|_| |_| |_| .__/|_|\___|____/ \___|_| |_|___/\___|_|
                       |_|
            Sample Search & Beat Sketching CLI
`
	fmt.Println(banner)
}

func main() {
	if len(os.Args) < 2 {
		printBanner()
	}
	if err := newRootCmd().Execute(); err != nil {
		logger.GetLogger().Errorf("%v", err)
		os.Exit(1)
	}
}
