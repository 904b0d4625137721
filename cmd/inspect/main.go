package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/store"
	"github.com/kiotasks/jeep/internal/task"
)

// #region main
var (
	dbPath  string
	taskID  string
	last    int
	version string
	edits   string
	jsonOut bool

	rootCmd = &cobra.Command{
		Use:          "inspect",
		Short:        "Inspect saved jeep solutions and logged edits",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewStore(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			switch {
			case version != "":
				return runDetailMode(out, st, version, jsonOut)
			case edits != "":
				return runEditsMode(out, st, edits, jsonOut)
			default:
				return runListMode(out, st, taskID, last, jsonOut)
			}
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "jeep.db", "path to jeep.db")
	rootCmd.Flags().StringVar(&taskID, "task", "", "only versions of this task (e.g. jeep1)")
	rootCmd.Flags().IntVar(&last, "last", 20, "show N most recent versions")
	rootCmd.Flags().StringVar(&version, "version", "", "show single version detail")
	rootCmd.Flags().StringVar(&edits, "edits", "", "show the edit log of a session")
	rootCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	VersionID string      `json:"version_id"`
	ParentID  string      `json:"parent_id,omitempty"`
	TaskID    string      `json:"task_id"`
	Steps     int         `json:"steps"`
	Result    eval.Result `json:"result"`
	Passed    bool        `json:"passed"`
	CreatedAt string      `json:"created_at"`
}

func runListMode(out io.Writer, st *store.Store, taskID string, last int, jsonOut bool) error {
	versions, err := st.ListVersions(taskID, last)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(out, "no versions found")
		return nil
	}

	// store returns newest first, print chronologically
	rows := make([]listRow, len(versions))
	for i, v := range versions {
		rows[len(versions)-1-i] = toRow(v)
	}

	if jsonOut {
		return printJSON(out, rows)
	}
	fmt.Fprintf(out, "%-10s %-10s %-7s %5s %5s %5s %5s  %-6s  %s\n",
		"Version", "Parent", "Task", "Far", "Ret", "Fuel", "Steps", "Goal", "Time")
	for _, r := range rows {
		goal := "-"
		if r.Passed {
			goal = "ok"
		}
		fmt.Fprintf(out, "%-10s %-10s %-7s %5d %5d %5d %5d  %-6s  %s\n",
			shortID(r.VersionID), shortID(r.ParentID), r.TaskID,
			r.Result.Far, r.Result.FarWithReturn, r.Result.TotalFuel, r.Result.Steps, goal, r.CreatedAt)
	}
	return nil
}

func toRow(v store.SolutionRecord) listRow {
	return listRow{
		VersionID: v.VersionID,
		ParentID:  v.ParentID,
		TaskID:    v.TaskID,
		Steps:     len(v.Steps),
		Result:    v.Scores,
		Passed:    goalsFor(v).Passed,
		CreatedAt: v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	listRow
	Solution []int           `json:"solution"`
	Eval     eval.EvalResult `json:"eval"`
	Lineage  []string        `json:"lineage"`
}

func runDetailMode(out io.Writer, st *store.Store, versionID string, jsonOut bool) error {
	v, err := st.GetVersion(versionID)
	if err != nil {
		return err
	}

	d := detailOutput{listRow: toRow(v), Solution: v.Steps, Eval: goalsFor(v)}
	for parent := v.ParentID; parent != ""; {
		d.Lineage = append(d.Lineage, parent)
		p, err := st.GetVersion(parent)
		if err != nil {
			return err
		}
		parent = p.ParentID
	}

	if jsonOut {
		return printJSON(out, d)
	}
	fmt.Fprintf(out, "Version:  %s\n", d.VersionID)
	fmt.Fprintf(out, "Parent:   %s\n", d.ParentID)
	fmt.Fprintf(out, "Task:     %s\n", d.TaskID)
	fmt.Fprintf(out, "Created:  %s\n", d.CreatedAt)
	fmt.Fprintf(out, "Solution: %v\n", d.Solution)
	fmt.Fprintf(out, "Lineage:  %d ancestors\n", len(d.Lineage))
	fmt.Fprintf(out, "\nGoals:\n")
	for _, m := range d.Eval.Metrics {
		fmt.Fprintf(out, "  %-16s %4d  target %4d  pass=%v\n", m.Name, m.Value, m.Target, m.Pass)
	}
	fmt.Fprintln(out, d.Eval.Reason)
	return nil
}

func goalsFor(v store.SolutionRecord) eval.EvalResult {
	return eval.NewEvalHarness(eval.DefaultEvalConfig(task.LevelFor(v.Level).Cells)).Run(v.Scores)
}

// #endregion detail-mode

// #region edits-mode

func runEditsMode(out io.Writer, st *store.Store, session string, jsonOut bool) error {
	entries, err := logging.ListEdits(st.DB(), session)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(out, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(out, "no edits for session %s\n", session)
		return nil
	}
	fmt.Fprintf(out, "%-5s %-7s %-7s %6s  %-7s  %s\n", "ID", "Task", "Op", "Value", "Action", "Reason")
	for _, e := range entries {
		fmt.Fprintf(out, "%-5d %-7s %-7s %6d  %-7s  %s\n", e.ID, e.TaskID, e.Op, e.Value, e.Decision, e.Reason)
	}
	return nil
}

// #endregion edits-mode

// #region output

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// #endregion output
