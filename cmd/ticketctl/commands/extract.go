package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-assigner/internal/skills"
)

var (
	extractTitle       string
	extractDescription string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Print the canonical skills detected in a ticket title and description",
	Example: `  ticketctl extract --title "Node.js API returns 500" --description "crash in express"
  ticketctl extract --catalog ./skills.yaml --title "golang panic"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalog, err := skills.LoadCatalogOrDefault(resolveCatalogPath())
		if err != nil {
			return err
		}
		found := skills.NewExtractor(catalog).Extract(extractTitle, extractDescription)
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no skills detected")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(found, "\n"))
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <ticket-skill> <moderator-skill>",
	Short: "Explain whether a moderator skill covers a ticket skill",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, ok := skills.DefaultMatcher().Explain(args[0], args[1])
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "no match: %q does not cover %q\n", args[1], args[0])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "match (%s)\n", reason)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(matchCmd)

	extractCmd.Flags().StringVar(&extractTitle, "title", "", "Ticket title")
	extractCmd.Flags().StringVar(&extractDescription, "description", "", "Ticket description")
}
