package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var flagDetectOutput string

var detectCmd = &cobra.Command{
	Use:   "detect [input]",
	Short: "Detect PII in text without anonymizing",
	Args:  cobra.MaximumNArgs(1),
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

		entities, err := masker.Detect(cmd.Context(), text, cfg.EntityTypes)
		if err != nil {
			return fmt.Errorf("detecting PII: %w", err)
		}

		var b strings.Builder
		if len(entities) == 0 {
			b.WriteString("No PII detected.")
		} else {
			for i, e := range entities {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "Type: %s, Text: '%s', Score: %.2f, Position: %d-%d",
					e.Label, e.Text, e.Confidence, e.StartPos, e.EndPos)
			}
		}

		if flagDetectOutput != "" {
			return writeFile(flagDetectOutput, b.String())
		}
		fmt.Println(b.String())
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVarP(&flagDetectOutput, "output", "o", "", "output file (stdout if not provided)")
	rootCmd.AddCommand(detectCmd)
}
