package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/replay"
	"github.com/kiotasks/jeep/internal/store"
	"github.com/kiotasks/jeep/internal/task"
)

// #region main
var (
	dbPath    string
	sessionID string
	outPath   string

	rootCmd = &cobra.Command{
		Use:          "fixture-export",
		Short:        "Export the edit log of a session as a replay fixture",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.OutOrStdout(), dbPath, sessionID, outPath)
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&dbPath, "db", "jeep.db", "path to jeep.db")
	rootCmd.Flags().StringVar(&sessionID, "session", "", "session to export (default: latest)")
	rootCmd.Flags().StringVar(&outPath, "out", "", "output fixture JSON path")
	_ = rootCmd.MarkFlagRequired("out")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region extract
func run(out io.Writer, dbPath, session, outPath string) error {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	db := st.DB()
	if session == "" {
		ids, err := logging.ListSessions(db, 1)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return fmt.Errorf("no sessions in edit_log")
		}
		session = ids[0]
	}

	entries, err := logging.ListEdits(db, session)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("session %s has no edits", session)
	}
	fmt.Fprintf(out, "Found %d edits in session %s\n", len(entries), session)

	level, err := task.ParseID(entries[0].TaskID)
	if err != nil {
		return err
	}
	fixture, err := replay.FromEditLog(level, entries)
	if err != nil {
		return err
	}
	fixture.Description = fmt.Sprintf("Session export: %d edits on %s from %s", len(entries), entries[0].TaskID, session)

	if err := replay.WriteFixture(fixture, outPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote fixture to %s (%d edits)\n", outPath, len(fixture.Edits))
	return nil
}

// #endregion extract
