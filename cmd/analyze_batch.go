package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/report"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/utils"
)

var (
	abInput     inputFlags
	abAnalysis  analysisFlags
	abOutputDir string
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files and print one summary line per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := settings()
		if err != nil {
			return err
		}
		opt, err := abAnalysis.options(cmd, c)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		s, err := openSession(ctx, c, abAnalysis.cacheBackend)
		if err != nil {
			return err
		}
		defer s.Close()

		out := cmd.OutOrStdout()
		written := map[string]struct{}{}
		failed := 0
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			ds, err := abInput.load(cmd, c, path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
				continue
			}
			res, typed, err := s.analyze(ctx, ds, opt)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
				continue
			}
			fmt.Fprintln(out, report.Summary(res))

			if abOutputDir != "" {
				outFile := reportPath(abOutputDir, path, written)
				md := report.Markdown(res, report.Options{Dataset: typed})
				if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				if !abQuiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", outFile)
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, total)
		}
		return nil
	},
}

// expandInputs resolves globs, keeps literal paths that exist and drops
// duplicates. The result is sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// reportPath picks <dir>/<base>.health.md, adding a __N suffix when the name
// was already used in this run or exists on disk.
func reportPath(dir, input string, used map[string]struct{}) string {
	base := filepath.Base(input)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	cand := filepath.Join(dir, safe+".health.md")
	for idx := 2; taken(cand, used); idx++ {
		cand = filepath.Join(dir, fmt.Sprintf("%s__%d.health.md", safe, idx))
	}
	used[cand] = struct{}{}
	return cand
}

func taken(path string, used map[string]struct{}) bool {
	if _, ok := used[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	abInput.register(analyzeBatchCmd)
	abAnalysis.register(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutputDir, "output-dir", "", "also write a markdown report per file into this directory")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
