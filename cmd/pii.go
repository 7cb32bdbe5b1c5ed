package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/pii"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/utils"
)

var (
	piiInput  inputFlags
	piiFormat string
)

var piiCmd = &cobra.Command{
	Use:   "pii <file>",
	Short: "Scan a file for columns that look like personal data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		ds, err := piiInput.load(cmd, c, args[0])
		if err != nil {
			return err
		}
		rep := pii.Scan(ds)
		out := cmd.OutOrStdout()

		switch strings.ToLower(piiFormat) {
		case "json":
			b, err := utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
		case "md":
			fmt.Fprintf(out, "Overall risk: %s\n", rep.OverallRisk)
			fmt.Fprintf(out, "Flagged columns: %d of %d\n", len(rep.Columns), rep.TotalColumns)
			for _, f := range rep.Columns {
				fmt.Fprintf(out, "- %s: %s [%s] %.0f%% via %s\n", f.Column, f.Description, f.Risk, f.Confidence*100, f.Method)
			}
			for _, r := range rep.Recommendations {
				fmt.Fprintf(out, "  • %s\n", r)
			}
		default:
			return fmt.Errorf("unsupported --format: %s (use md|json)", piiFormat)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(piiCmd)
	piiInput.register(piiCmd)
	piiCmd.Flags().StringVar(&piiFormat, "format", "md", "output format: md|json")
}
