// Package cli implements the pii-mask command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hannes/pii-mask/config"
	"github.com/hannes/pii-mask/pii"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0"

var (
	flagConfig    string
	flagOutput    string
	flagEntities  string
	flagLanguage  string
	flagModel     string
	flagThreshold float64
)

var rootCmd = &cobra.Command{
	Use:   "pii-mask [input]",
	Short: "Detect and anonymize PII in Japanese text",
	Long: `pii-mask detects personally identifiable information in Japanese
text and anonymizes it according to masking_config.yaml.

Reads from the input file when given, otherwise from stdin; writes to
--output when given, otherwise to stdout.

Examples:
  pii-mask input.txt -o masked.txt
  cat input.txt | pii-mask --entities PERSON,PHONE_NUMBER
  pii-mask detect input.txt
  pii-mask list-entities`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		masker, cleanup, err := buildMasker(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("initializing PII masker: %w", err)
		}
		defer cleanup()

		text, err := readInput(args)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		anonymized, err := masker.Anonymize(cmd.Context(), text, cfg.EntityTypes, cfg.Operators)
		if err != nil {
			return fmt.Errorf("anonymizing text: %w", err)
		}

		return writeOutput(anonymized)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "configuration file in YAML format")
	rootCmd.PersistentFlags().StringVarP(&flagEntities, "entities", "e", "", "entity types to process (comma-separated)")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "ja", "language code")
	rootCmd.PersistentFlags().StringVarP(&flagModel, "model", "m", config.DefaultModelName, "NER model name or ONNX model directory")
	rootCmd.PersistentFlags().Float64VarP(&flagThreshold, "threshold", "t", 0.5, "confidence score threshold")
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output file (stdout if not provided)")
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: the config file when
// given, otherwise defaults adjusted by environment and flags.
func loadConfig(cmd *cobra.Command) (*config.MaskingConfig, error) {
	if flagConfig != "" {
		return config.FromFile(flagConfig)
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("language") {
		cfg.Language = flagLanguage
	}
	if cmd.Flags().Changed("model") {
		cfg.ModelName = flagModel
	}
	if cmd.Flags().Changed("threshold") {
		cfg.ScoreThreshold = flagThreshold
	}
	if flagEntities != "" {
		cfg.EntityTypes = config.ParseEntityTypes(flagEntities)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildMasker assembles the masker from the configuration: built-in
// detectors, the ONNX model when configured, and the mapping store when
// enabled. The returned cleanup releases everything.
func buildMasker(ctx context.Context, cfg *config.MaskingConfig) (*pii.Masker, func(), error) {
	opts := pii.MaskerOptions{
		ScoreThreshold:  cfg.ScoreThreshold,
		EntityTypes:     cfg.EntityTypes,
		Operators:       cfg.Operators,
		DefaultOperator: cfg.DefaultOperator,
	}

	var closers []func()

	if cfg.UseONNXModel() {
		manager := pii.NewModelManager(cfg.ModelName)
		if !manager.Healthy() {
			return nil, nil, fmt.Errorf("ONNX model at %s failed to load", cfg.ModelName)
		}
		opts.ExtraDetectors = append(opts.ExtraDetectors, manager.Detector())
		closers = append(closers, func() {
			if err := manager.Close(); err != nil {
				log.Warn("closing model manager", "err", err)
			}
		})
	}

	if cfg.Store.Enabled {
		store, err := pii.NewPostgresMappingStore(ctx, cfg.Store.ToStoreConfig())
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to mapping store: %w", err)
		}
		opts.Store = store
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				log.Warn("closing mapping store", "err", err)
			}
		})
		if cfg.Store.CleanupHours > 0 {
			maxAge := time.Duration(cfg.Store.CleanupHours) * time.Hour
			go pii.CleanupLoop(ctx, store, time.Hour, maxAge)
		}
	}

	masker, err := pii.NewMasker(opts)
	if err != nil {
		for _, c := range closers {
			c()
		}
		return nil, nil, err
	}
	closers = append(closers, func() {
		if err := masker.Close(); err != nil {
			log.Warn("closing masker", "err", err)
		}
	})

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return masker, cleanup, nil
}

// readInput reads the whole input file, or stdin when no file is given.
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0]) // #nosec G304 - path comes from the CLI user
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeOutput writes to --output when given, otherwise stdout.
func writeOutput(text string) error {
	if flagOutput == "" {
		fmt.Println(text)
		return nil
	}
	return writeFile(flagOutput, text)
}

func writeFile(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0600); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
