package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/KaramelBytes/gigstats-cli/internal/narrative"
	"github.com/KaramelBytes/gigstats-cli/internal/queries"
	"github.com/KaramelBytes/gigstats-cli/internal/report"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	"github.com/apex/log"
	"github.com/spf13/cobra"
)

const defaultQueryTimeoutSec = 180

var (
	queryRaw        bool
	queryFormat     string
	queryProvider   string
	queryModel      string
	queryOllamaHost string
	queryTimeoutSec int
	queryStream     bool
	queryOutput     string
	queryQuiet      bool
)

var queryCmd = &cobra.Command{
	Use:   "query <id-or-question...>",
	Short: "Answer a question about the dataset",
	Long: `Resolve the input to a predefined query (by id, then by matching the text
against the catalog, else a general summary), run it, and explain the result
with a language model. Use --raw to print the statistics only.`,
	Example: `  gigstats query --data freelancers.csv top_platforms --raw
  gigstats query "what about crypto payments"
  gigstats query payment_method_comparison --provider openrouter --model openai/gpt-4o-mini
  gigstats query earnings_by_region --raw --format json --output regions.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := strings.TrimSpace(strings.Join(args, " "))
		if input == "" {
			return fmt.Errorf("empty query")
		}
		format, err := report.ParseFormat(queryFormat)
		if err != nil {
			return err
		}
		a, err := loadAnalyzer()
		if err != nil {
			return err
		}
		res, err := queries.Answer(a, input)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		// status lines go to stderr so --raw json/yaml stays parseable
		if !queryQuiet {
			errOut := cmd.ErrOrStderr()
			switch {
			case res.Fallback:
				fmt.Fprintln(errOut, queries.FallbackMessage)
			default:
				how := "matched"
				if res.ByID {
					how = "id"
				}
				fmt.Fprintf(errOut, "Query: %s (%s)\n", res.Entry.ID, how)
			}
		}

		if queryRaw {
			return emitRaw(out, res, format)
		}

		rt, provider, err := newRuntime(cfg, runtimeOptions{ProviderFlag: queryProvider, OllamaHost: queryOllamaHost})
		if err != nil {
			return err
		}
		model := selectModel(cfg, provider, queryModel)
		gen := narrative.New(rt, narrativeOptions(cfg, model))
		log.WithFields(log.Fields{"provider": provider, "model": gen.Model()}).Debug("generating narrative")

		ctx := cmd.Context()
		if queryTimeoutSec > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, time.Duration(queryTimeoutSec)*time.Second)
			defer cancel()
		}

		question := input
		var text string
		if queryStream {
			text, err = gen.ExplainStream(ctx, question, res.Result, func(d string) { fmt.Fprint(out, d) })
			if text != "" {
				fmt.Fprintln(out)
			}
		} else {
			text, err = gen.Explain(ctx, question, res.Result)
		}
		if err != nil {
			var gerr *narrative.GenerationError
			if !errors.As(err, &gerr) {
				return err
			}
			errOut := cmd.ErrOrStderr()
			if hint := generationHint(err, provider, gen.Model()); hint != "" {
				fmt.Fprintln(errOut, "⚠", hint)
			}
			fmt.Fprintln(errOut, "Analysis result (no explanation available):")
			if rerr := report.Render(out, res.Result, report.FormatTable); rerr != nil {
				log.WithError(rerr).Warn("render raw result")
			}
			return err
		}
		if !queryStream {
			fmt.Fprintln(out, text)
		}
		if queryOutput != "" {
			if err := writeOutput(queryOutput, []byte(text+"\n")); err != nil {
				return err
			}
			if !queryQuiet {
				fmt.Fprintf(out, "Saved response to %s\n", queryOutput)
			}
		}
		return nil
	},
}

func emitRaw(out io.Writer, res queries.Resolution, format string) error {
	if queryOutput == "" {
		return report.Render(out, res.Result, format)
	}
	var buf bytes.Buffer
	if err := report.Render(&buf, res.Result, format); err != nil {
		return err
	}
	if err := writeOutput(queryOutput, buf.Bytes()); err != nil {
		return err
	}
	if !queryQuiet {
		fmt.Fprintf(out, "Saved result to %s\n", queryOutput)
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(queryCmd)
	f := queryCmd.Flags()
	f.BoolVar(&queryRaw, "raw", false, "print the analysis result without calling a model")
	f.StringVar(&queryFormat, "format", report.FormatTable, "raw output format: "+strings.Join(report.Formats, "|"))
	f.StringVar(&queryProvider, "provider", "", "model provider: ollama|openrouter (default from config)")
	f.StringVar(&queryModel, "model", "", "model name (default from config or provider)")
	f.StringVar(&queryOllamaHost, "ollama-host", "", "Ollama host URL (default from config or GIGSTATS_OLLAMA_HOST)")
	f.IntVar(&queryTimeoutSec, "timeout-sec", defaultQueryTimeoutSec, "overall timeout for the model call in seconds")
	f.BoolVar(&queryStream, "stream", false, "stream the explanation as it is generated")
	f.StringVar(&queryOutput, "output", "", "also save the output to this file")
	f.BoolVar(&queryQuiet, "quiet", false, "suppress headers and status lines")
}
