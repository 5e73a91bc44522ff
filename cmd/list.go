package cmd

import (
	"fmt"

	"github.com/KaramelBytes/gigstats-cli/internal/queries"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	"github.com/spf13/cobra"
)

var listJSON bool

type listedQuery struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the predefined queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		entries := queries.Catalog()
		if listJSON {
			items := make([]listedQuery, len(entries))
			for i, e := range entries {
				items[i] = listedQuery{ID: e.ID, Description: e.Description}
			}
			b, err := utils.PrettyJSON(items)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		fmt.Fprintln(out, "Available predefined queries:")
		for _, e := range entries {
			fmt.Fprintf(out, "- %s: %s\n", e.ID, e.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print as JSON")
}
