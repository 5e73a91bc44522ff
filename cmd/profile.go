package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var profileOutput string

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Describe the loaded dataset: columns, imputation and a short summary",
	Example: `  gigstats profile --data freelancers.csv
  gigstats profile --data freelancers.csv --output profile.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadAnalyzer()
		if err != nil {
			return err
		}
		var b strings.Builder
		b.WriteString(a.Dataset().Markdown())
		b.WriteString("\n[SUMMARY]\n")
		b.WriteString(a.DataSummary())
		b.WriteString("\n")

		if profileOutput != "" {
			if err := writeOutput(profileOutput, []byte(b.String())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile to %s\n", profileOutput)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), b.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&profileOutput, "output", "", "write the profile to this file instead of stdout")
}
