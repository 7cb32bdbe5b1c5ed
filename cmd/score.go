package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/anomaly"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/utils"
)

var (
	scInput  inputFlags
	scTop    int
	scFormat string
)

// scoredRow is one row of score output.
type scoredRow struct {
	Row      int           `json:"row"`
	Score    float64       `json:"score"`
	Anomaly  bool          `json:"anomaly"`
	Severity anomaly.Level `json:"severity"`
}

var scoreCmd = &cobra.Command{
	Use:   "score <model.json> <file>",
	Short: "Score the rows of a file with a saved isolation forest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		format := strings.ToLower(scFormat)
		if format != "md" && format != "json" {
			return fmt.Errorf("unsupported --format: %s (use md|json)", scFormat)
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open model: %w", err)
		}
		forest, err := anomaly.Load(f)
		f.Close()
		if err != nil {
			return err
		}
		ds, err := scInput.load(cmd, c, args[1])
		if err != nil {
			return err
		}
		rows, err := scoreRows(forest, ds)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if format == "json" {
			b, err := utils.PrettyJSON(rows)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		flagged := 0
		for _, r := range rows {
			if r.Anomaly {
				flagged++
			}
		}
		fmt.Fprintf(out, "Model: %d trees over %s\n", len(forest.Trees), strings.Join(forest.Features, ", "))
		fmt.Fprintf(out, "Rows scored: %s\n", humanize.Comma(int64(len(rows))))
		fmt.Fprintf(out, "Anomalies: %s\n", humanize.Comma(int64(flagged)))

		sorted := append([]scoredRow(nil), rows...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })
		if scTop > 0 && len(sorted) > scTop {
			sorted = sorted[:scTop]
		}
		for _, r := range sorted {
			mark := ""
			if r.Anomaly {
				mark = " *"
			}
			fmt.Fprintf(out, "- Row %d: score %.3f (%s)%s\n", r.Row, r.Score, r.Severity, mark)
		}
		return nil
	},
}

// scoreRows aligns ds to the model features, fills nulls with column means
// and scores every row.
func scoreRows(forest *anomaly.Forest, ds *dataset.Dataset) ([]scoredRow, error) {
	m, err := impute.MeanFill{}.Impute(ds, forest.Features)
	if err != nil {
		return nil, err
	}
	if len(m.Dropped) > 0 {
		return nil, fmt.Errorf("columns have no values: %s", strings.Join(m.Dropped, ", "))
	}
	raw := m.RawRows()
	scores, err := forest.Score(raw)
	if err != nil {
		return nil, err
	}
	labels, err := forest.Predict(raw)
	if err != nil {
		return nil, err
	}
	out := make([]scoredRow, len(scores))
	for i, s := range scores {
		out[i] = scoredRow{Row: m.RowIndex[i], Score: s, Anomaly: labels[i] == anomaly.Anomaly, Severity: anomaly.Severity(s)}
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scInput.register(scoreCmd)
	scoreCmd.Flags().IntVar(&scTop, "top", 20, "show the N lowest-scoring rows (0 = all)")
	scoreCmd.Flags().StringVar(&scFormat, "format", "md", "output format: md|json (json lists every row)")
}
