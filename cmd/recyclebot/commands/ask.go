package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/b-franke/recyclebot/internal/advisor"
	"github.com/b-franke/recyclebot/internal/logging"
)

// NewAskCmd constructs the `recyclebot ask` command, which answers a single
// disposal question and prints the advice to stdout.
func NewAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [item]",
		Short: "Ask where a single item should be disposed",
		Long: `Ask a one-shot disposal question.

The item description is embedded and matched against the ingested knowledge
base. A confident match prints the category and disposal instructions; an
unconfident one says so rather than guessing.

Examples:
  recyclebot ask "Bananenschale"
  recyclebot ask "alte Jeans mit Löchern"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()

			eng, err := buildEngine(log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer eng.close()

			advice, err := eng.advisor.Advise(ctx, strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			printAdvice(cmd, advice)
			return nil
		},
	}
}

// printAdvice renders one advice result for terminal output.
func printAdvice(cmd *cobra.Command, advice *advisor.Advice) {
	out := cmd.OutOrStdout()

	if !advice.Known {
		fmt.Fprintf(out, "Keine verlässliche Empfehlung für %q (Ähnlichkeit %.2f).\n", advice.Query, advice.Confidence)
		fmt.Fprintln(out, "Bitte präziser beschreiben oder beim örtlichen Entsorger nachfragen.")
		return
	}

	fmt.Fprintf(out, "%s → %s (Ähnlichkeit %.2f)\n", advice.Query, advice.Category, advice.Confidence)
	fmt.Fprintf(out, "Entsorgung: %s\n", advice.Instructions)
	if advice.Impact != "" {
		fmt.Fprintf(out, "Umwelt: %s\n", advice.Impact)
	}
	if len(advice.SimilarItems) > 0 {
		fmt.Fprintf(out, "Ähnliche Einträge: %s\n", strings.Join(advice.SimilarItems, ", "))
	}
}
