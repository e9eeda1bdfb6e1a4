package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/marginsim/journal"
	"github.com/rustyeddy/marginsim/report"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query journaled runs",
	Long: `Query and display runs recorded in the SQLite journal.

Subcommands:
  list  - List the most recent runs
  show  - Print the summary of a run
  org   - Export a run and its fills as an Org-mode entry

Examples:
  marginsim runs list --limit 20
  marginsim runs show 01HV7J4Z0K3M6Q9R2T5W8Y1B4D
  marginsim runs org 01HV7J4Z0K3M6Q9R2T5W8Y1B4D >> runs.org`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent runs",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the summary of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsOrgCmd = &cobra.Command{
	Use:   "org <run-id>",
	Short: "Export a run as Org-mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsOrg,
}

var (
	runsDBPath string
	runsLimit  int
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsOrgCmd)

	runsCmd.PersistentFlags().StringVarP(&runsDBPath, "db", "d", "", "path to SQLite journal DB (default: journal.db_path)")
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to list")
}

func openRunsDB() (*journal.SQLite, error) {
	path := runsDBPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Journal.DBPath
	}
	if path == "" {
		return nil, fmt.Errorf("no journal database: set journal.db_path or use --db")
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	j, err := openRunsDB()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tPAIR\tSTRATEGY\tFINAL\tRETURN\tTRIPS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f%%\t%d\n",
			r.RunID, r.Created.Local().Format(time.DateTime), r.Pair, r.Strategy,
			report.Upticks(r.FinalValue), r.ReturnPct, r.RoundTrips)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	j, err := openRunsDB()
	if err != nil {
		return err
	}
	defer j.Close()

	r, err := j.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	report.PrintRun(cmd.OutOrStdout(), r, report.DefaultUnit)
	return nil
}

func runRunsOrg(cmd *cobra.Command, args []string) error {
	j, err := openRunsDB()
	if err != nil {
		return err
	}
	defer j.Close()

	org, err := j.ExportOrg(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("export run: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), org)
	return nil
}
