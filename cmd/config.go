package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "sumgate"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage sumgate configuration.

Running bare 'sumgate config' is the same as 'sumgate config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# sumgate configuration
# See: sumgate config show (for effective values and sources)

# State/data directory (default: ~/.config/sumgate)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/sumgate/sumgate.db)
# db_path: {{ .DBPath }}

# Anthropic
anthropic:
  # API key (or set SUMGATE_ANTHROPIC_API_KEY)
  api_key: ""

  # Model used for summary drafts
  model: "{{ .AnthropicModel }}"

# Scoring policy
scoring:
  # Words below which a summary is flagged too short and score-capped
  min_words: {{ .MinWords }}

  # Score ceiling applied to too-short summaries
  short_score_cap: {{ .ShortScoreCap }}

  # Domain keywords credited toward the coverage sub-score
  keywords:
{{- range .Keywords }}
    - "{{ . }}"
{{- end }}

  # Hedging vocabulary that raises the uncertainty flag
  hedging_terms:
{{- range .HedgingTerms }}
    - "{{ . }}"
{{- end }}
`

type configTemplateData struct {
	StateDir       string
	DBPath         string
	AnthropicModel string
	MinWords       int
	ShortScoreCap  int
	Keywords       []string
	HedgingTerms   []string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	// Build template data from current viper values
	data := configTemplateData{
		StateDir:       viper.GetString("state_dir"),
		DBPath:         viper.GetString("db_path"),
		AnthropicModel: viper.GetString("anthropic.model"),
		MinWords:       viper.GetInt("scoring.min_words"),
		ShortScoreCap:  viper.GetInt("scoring.short_score_cap"),
		Keywords:       viper.GetStringSlice("scoring.keywords"),
		HedgingTerms:   viper.GetStringSlice("scoring.hedging_terms"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	// Create config directory
	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "state_dir", EnvVar: "SUMGATE_STATE_DIR"},
	{Key: "db_path", EnvVar: "SUMGATE_DB_PATH"},
	{Key: "anthropic.model", EnvVar: "SUMGATE_ANTHROPIC_MODEL"},
	{Key: "scoring.min_words", EnvVar: "SUMGATE_SCORING_MIN_WORDS"},
	{Key: "scoring.short_score_cap", EnvVar: "SUMGATE_SCORING_SHORT_SCORE_CAP"},
	{Key: "scoring.sentence_target_min", EnvVar: "SUMGATE_SCORING_SENTENCE_TARGET_MIN"},
	{Key: "scoring.sentence_target_max", EnvVar: "SUMGATE_SCORING_SENTENCE_TARGET_MAX"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if config file exists
	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	// Read config file values to determine file source
	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-28s %v  %s\n", k.Key, val, source)
	}

	// The key is never echoed; only whether one is set.
	apiKeySource := detectSource("anthropic.api_key", "SUMGATE_ANTHROPIC_API_KEY", fileValues)
	apiKeyState := "(not set)"
	if viper.GetString("anthropic.api_key") != "" {
		apiKeyState = "(set)"
	}
	fmt.Fprintf(ui.Out, "  %-28s %s  %s\n", "anthropic.api_key", apiKeyState, apiKeySource)

	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  %-28s %s\n", "scoring.keywords", strings.Join(viper.GetStringSlice("scoring.keywords"), ", "))
	fmt.Fprintf(ui.Out, "  %-28s %s\n", "scoring.hedging_terms", strings.Join(viper.GetStringSlice("scoring.hedging_terms"), ", "))

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	// Flatten nested keys with dot notation
	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}

func configEditRun() error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		return fmt.Errorf("$EDITOR is not set — set it to your preferred editor (e.g. export EDITOR=vim)")
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s (run 'sumgate config init' first)", cfgPath)
	}

	editCmd := exec.Command(editor, cfgPath)
	editCmd.Stdin = os.Stdin
	editCmd.Stdout = os.Stdout
	editCmd.Stderr = os.Stderr
	return editCmd.Run()
}
