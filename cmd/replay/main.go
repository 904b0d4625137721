package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/replay"
	"github.com/kiotasks/jeep/internal/store"
	"github.com/kiotasks/jeep/internal/task"
)

// exitDiverged is returned when a replay disagrees with its reference.
type exitDiverged struct{ n int }

func (e exitDiverged) Error() string {
	return fmt.Sprintf("%d divergences", e.n)
}

// #region main
var (
	dbPath      string
	fixturePath string
	sessionID   string

	rootCmd = &cobra.Command{
		Use:   "replay",
		Short: "Replay a fixture or a logged session and compare the decisions",
		Example: `  replay --fixture internal/replay/testdata/level0_session.json
  replay --db jeep.db                 # latest logged session
  replay --db jeep.db --session <id>`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (dbPath == "") == (fixturePath == "") {
				return fmt.Errorf("exactly one of --db and --fixture is required")
			}
			if fixturePath != "" {
				return runFixtureMode(cmd.Context(), cmd.OutOrStdout(), fixturePath)
			}
			return runDBMode(cmd.Context(), cmd.OutOrStdout(), dbPath, sessionID)
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to jeep.db (DB mode)")
	rootCmd.Flags().StringVar(&fixturePath, "fixture", "", "path to fixture JSON (fixture mode)")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "session to replay in DB mode (default: latest)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if _, ok := err.(exitDiverged); ok {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

// #endregion main

// #region modes
func runFixtureMode(ctx context.Context, out io.Writer, path string) error {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return err
	}
	return run(ctx, out, f)
}

// runDBMode rebuilds a fixture from the edit log of a session and replays it.
func runDBMode(ctx context.Context, out io.Writer, path, session string) error {
	st, err := store.NewStore(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	f, err := sessionFixture(st, session)
	if err != nil {
		return err
	}
	return run(ctx, out, &f)
}

// sessionFixture exports the logged session, or the latest one when session is empty.
func sessionFixture(st *store.Store, session string) (replay.Fixture, error) {
	if session == "" {
		ids, err := logging.ListSessions(st.DB(), 1)
		if err != nil {
			return replay.Fixture{}, err
		}
		if len(ids) == 0 {
			return replay.Fixture{}, fmt.Errorf("no sessions in edit_log")
		}
		session = ids[0]
	}

	entries, err := logging.ListEdits(st.DB(), session)
	if err != nil {
		return replay.Fixture{}, err
	}
	if len(entries) == 0 {
		return replay.Fixture{}, fmt.Errorf("session %s has no edits", session)
	}
	level, err := task.ParseID(entries[0].TaskID)
	if err != nil {
		return replay.Fixture{}, err
	}
	f, err := replay.FromEditLog(level, entries)
	if err != nil {
		return replay.Fixture{}, err
	}
	f.Description = fmt.Sprintf("session %s: %d edits on %s", session, len(entries), entries[0].TaskID)
	return f, nil
}

// #endregion modes

// #region output
func run(ctx context.Context, out io.Writer, f *replay.Fixture) error {
	config := f.ToReplayConfig()
	results, err := replay.Replay(ctx, f.Seed, f.Edits, config)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, f.Description)
	printComparison(out, results, f.ExpectedResults)

	s := replay.Summarize(results, config.EvalConfig)
	fmt.Fprintf(out, "\nSummary: %d edits, %d commits, %d rejects\n", s.TotalEdits, s.Commits, s.Rejects)
	for _, veto := range slices.Sorted(maps.Keys(s.VetoCounts)) {
		fmt.Fprintf(out, "  veto %-18s %d\n", veto, s.VetoCounts[veto])
	}
	r := s.FinalResult
	fmt.Fprintf(out, "Final: far=%d far_with_return=%d total_fuel=%d steps=%d (%s)\n",
		r.Far, r.FarWithReturn, r.TotalFuel, r.Steps, s.Eval.Reason)

	divs := f.Verify(results)
	for _, d := range divs {
		fmt.Fprintf(out, "DIFF %s\n", d)
	}
	if len(divs) > 0 {
		return exitDiverged{n: len(divs)}
	}
	return nil
}

// printComparison outputs the replayed action of every edit next to the expected one.
func printComparison(out io.Writer, results []replay.ReplayResult, expected []replay.FixtureExpectedResult) {
	fmt.Fprintf(out, "%-6s| %-8s| %-6s| %-9s| %-9s| %s\n", "Edit", "Op", "Value", "Expected", "Replayed", "Match")
	fmt.Fprintf(out, "%-6s+%-9s+%-7s+%-10s+%-10s+%s\n", "------", "---------", "-------", "----------", "----------", "------")

	for i, r := range results {
		exp := "-"
		if i < len(expected) {
			exp = expected[i].Action
		}
		match := "OK"
		if exp != r.Action {
			match = "DIFF"
		}
		fmt.Fprintf(out, "%-6d| %-8s| %-6d| %-9s| %-9s| %s\n", r.Index, r.Op, r.Value, exp, r.Action, match)
	}
}

// #endregion output
