package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"surgerydesk/relay/pkg/cli"
	"surgerydesk/relay/pkg/screening"
)

var screenFlags struct {
	output    string
	listRules bool
}

var screenCmd = &cobra.Command{
	Use:   "screen [message]",
	Short: "Check a message against the screening rules",
	Long: `Run the same screening the server applies to POST /chat.

The message is taken from the arguments, or from stdin when none are
given. Exits 1 when the message is flagged, 0 when it is clear.

Examples:
  relay screen "How do I reset an NHS App password?"
  echo "born 12/03/1985" | relay screen --output json
  relay screen --list-rules`,
	RunE: screenMessage,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVarP(&screenFlags.output, "output", "o", "text", "output format: text, json")
	screenCmd.Flags().BoolVar(&screenFlags.listRules, "list-rules", false, "print the rule table and exit")
}

type screenResult struct {
	Flagged bool     `json:"flagged"`
	Rules   []string `json:"rules"`
}

func (r screenResult) Text() string {
	if !r.Flagged {
		return "clear"
	}
	return "flagged: " + strings.Join(r.Rules, ", ") + "\n\n" + screening.Guidance
}

type ruleTable []screening.ClientRule

func (t ruleTable) Text() string {
	var b strings.Builder
	for i, r := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-14s /%s/%s", r.Name, r.Source, r.Flags)
	}
	return b.String()
}

func screenMessage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(screenFlags.output)
	if err != nil {
		return err
	}
	formatter := cli.NewFormatter(format)
	out := cmd.OutOrStdout()

	if screenFlags.listRules {
		return formatter.FormatTo(out, ruleTable(screening.ClientRules()))
	}

	message := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		message = string(data)
	}

	res := screening.Screen(message)
	result := screenResult{Flagged: res.Flagged, Rules: res.Rules}
	if result.Rules == nil {
		result.Rules = []string{}
	}

	if err := formatter.FormatTo(out, result); err != nil {
		return err
	}
	if result.Flagged {
		return cli.NewExitError(1, nil)
	}
	return nil
}
