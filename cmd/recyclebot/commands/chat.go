package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/b-franke/recyclebot/internal/advisor"
	"github.com/b-franke/recyclebot/internal/logging"
)

// NewChatCmd constructs the `recyclebot chat` command, an interactive stdin
// loop for asking disposal questions.
func NewChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive disposal question loop",
		Long: `Start an interactive session that answers one disposal question per line.

Type an item description and press enter. Leave with ":exit" or "quit".
Transient errors are printed and the loop continues.

Examples:
  recyclebot chat`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()

			eng, err := buildEngine(log)
			if err != nil {
				return fmt.Errorf("chat: %w", err)
			}
			defer eng.close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Recyclebot — was soll entsorgt werden? (\":exit\" oder \"quit\" zum Beenden)")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}

				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == ":exit" || strings.EqualFold(line, "quit"):
					fmt.Fprintln(out, "Tschüss!")
					return nil
				}

				advice, err := eng.advisor.Advise(ctx, line)
				switch {
				case errors.Is(err, advisor.ErrQueryTooShort):
					fmt.Fprintln(out, "Bitte mindestens 3 Zeichen eingeben.")
					continue
				case err != nil:
					// Keep the session alive across transient backend failures.
					fmt.Fprintf(out, "Fehler: %v\n", err)
					continue
				}

				printAdvice(cmd, advice)
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("chat: reading input: %w", err)
			}
			return nil
		},
	}
}
