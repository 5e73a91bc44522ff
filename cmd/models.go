package cmd

import (
	"strconv"

	"github.com/KaramelBytes/gigstats-cli/internal/ai"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models and their context windows",
	Example: `  gigstats models
  gigstats models --provider ollama`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := ai.NormalizeProvider(modelsProvider)
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleLight)
		t.Style().Format.Header = text.FormatDefault
		t.AppendHeader(table.Row{"Model", "Provider", "Context", "Default"})
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
		for _, m := range ai.Models(provider) {
			def := ""
			if ai.DefaultModel(m.Provider) == m.Name {
				def = "*"
			}
			t.AppendRow(table.Row{m.Name, m.Provider, strconv.Itoa(m.ContextTokens), def})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "only list models for this provider (ollama|openrouter)")
}
