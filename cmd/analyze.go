package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/report"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/utils"
)

var (
	anaInput     inputFlags
	anaAnalysis  analysisFlags
	anaOutput    string
	anaFormat    string
	anaModelOut  string
	anaExplain   int
	anaWithModel bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX file and report its health score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		format := strings.ToLower(anaFormat)
		if format != "md" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use md|json)", anaFormat)
		}
		opt, err := anaAnalysis.options(cmd, c)
		if err != nil {
			return err
		}
		ds, err := anaInput.load(cmd, c, args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := openSession(ctx, c, anaAnalysis.cacheBackend)
		if err != nil {
			return err
		}
		defer s.Close()

		res, typed, err := s.analyze(ctx, ds, opt)
		if err != nil {
			return err
		}

		var out []byte
		if format == "json" {
			var buf bytes.Buffer
			if err := report.JSON(&buf, res, anaWithModel); err != nil {
				return err
			}
			out = buf.Bytes()
		} else {
			out = []byte(report.Markdown(res, report.Options{Dataset: typed, Explain: anaExplain}))
		}

		if anaModelOut != "" {
			if res.Model == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "⚠ Warning: no anomaly model was trained, --model-out ignored")
			} else {
				var buf bytes.Buffer
				if err := res.Model.Save(&buf); err != nil {
					return err
				}
				if err := utils.SafeWriteFile(anaModelOut, buf.Bytes()); err != nil {
					return fmt.Errorf("write model: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote model to %s\n", anaModelOut)
			}
		}

		// Decide where to write: --output path or stdout
		if anaOutput != "" {
			if err := utils.SafeWriteFile(anaOutput, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutput)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(string(out), "\n"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd)
	anaAnalysis.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutput, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "md", "report format: md|json")
	analyzeCmd.Flags().StringVar(&anaModelOut, "model-out", "", "save the trained isolation forest as JSON (for the score command)")
	analyzeCmd.Flags().IntVar(&anaExplain, "explain", 5, "explain the N strongest anomalies in the markdown report (0 disables)")
	analyzeCmd.Flags().BoolVar(&anaWithModel, "with-model", false, "JSON: embed the trained model in the result")
}
