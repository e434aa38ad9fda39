package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/sumgate/internal/llm"
	"github.com/joescharf/sumgate/internal/output"
	"github.com/joescharf/sumgate/internal/scoring"
	"github.com/joescharf/sumgate/internal/store"
	"github.com/joescharf/sumgate/internal/workflow"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool

	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sumgate",
	Short: "Summary gate - score LLM document summaries and gate them behind human review",
	Long: `sumgate runs document summaries through a deterministic quality gate.
It generates a draft with an LLM, scores it with explainable surface
heuristics, and holds it for an explicit human approve/reject decision
before anything is persisted. Rejections carry feedback that steers a
human-triggered regeneration; nothing is ever approved automatically.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/sumgate/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(ui.Out, "sumgate %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "sumgate")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SUMGATE")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "sumgate")

	viper.SetDefault("state_dir", defaultConfigDir)
	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "sumgate.db"))
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Scoring policy. Every constant the scorer uses is configurable
	// so reviewers can tune vocabularies per document domain.
	defaults := scoring.DefaultConfig()
	viper.SetDefault("scoring.keywords", defaults.Keywords)
	viper.SetDefault("scoring.hedging_terms", defaults.HedgingTerms)
	viper.SetDefault("scoring.min_words", defaults.MinWords)
	viper.SetDefault("scoring.sentence_target_min", defaults.SentenceTargetMin)
	viper.SetDefault("scoring.sentence_target_max", defaults.SentenceTargetMax)
	viper.SetDefault("scoring.short_score_cap", defaults.ShortScoreCap)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// Store and workflow service initialize lazily — only when commands
	// actually need them. This lets config/version run without a db.
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(rootCmd.Context()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// scoringConfig builds the scorer config from viper, starting from the
// built-in defaults.
func scoringConfig() scoring.Config {
	cfg := scoring.DefaultConfig()

	if kw := viper.GetStringSlice("scoring.keywords"); len(kw) > 0 {
		cfg.Keywords = kw
	}
	if ht := viper.GetStringSlice("scoring.hedging_terms"); len(ht) > 0 {
		cfg.HedgingTerms = ht
	}
	if v := viper.GetInt("scoring.min_words"); v > 0 {
		cfg.MinWords = v
	}
	if v := viper.GetFloat64("scoring.sentence_target_min"); v > 0 {
		cfg.SentenceTargetMin = v
	}
	if v := viper.GetFloat64("scoring.sentence_target_max"); v > 0 {
		cfg.SentenceTargetMax = v
	}
	if v := viper.GetInt("scoring.short_score_cap"); v > 0 {
		cfg.ShortScoreCap = v
	}
	return cfg
}

// getService builds the workflow service backed by the shared store
// and the configured Anthropic model.
func getService() (*workflow.Service, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}

	gen := llm.NewClient(viper.GetString("anthropic.api_key"), viper.GetString("anthropic.model"))
	scorer := scoring.NewScorer(scoringConfig())
	return workflow.NewService(s, scorer, gen), nil
}
