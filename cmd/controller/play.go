package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/history"
	"github.com/kiotasks/jeep/internal/hostapi"
	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/store"
	"github.com/kiotasks/jeep/internal/task"
)

// #region command
var (
	playResume bool

	playCmd = &cobra.Command{
		Use:   "play",
		Short: "Play a jeep task in the terminal",
		RunE:  runPlay,
	}
)

func init() {
	playCmd.Flags().BoolVar(&playResume, "resume", false, "start from the saved solution of the level")
}

func runPlay(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	opts := []task.Option{task.WithLogger(logger), task.WithGateConfig(cfg.GateConfig())}
	if cfg.HostAddr != "" {
		client, err := hostapi.NewClient(cfg.HostAddr)
		if err != nil {
			return fmt.Errorf("connect to host at %s: %w", cfg.HostAddr, err)
		}
		defer client.Close()
		opts = append(opts, task.WithReporter(client))
	}

	tk, err := task.New(cfg.Settings(), opts...)
	if err != nil {
		return err
	}

	sh := &shell{
		task:      tk,
		store:     st,
		sessionID: uuid.New().String(),
		goals:     cfg.EvalConfig(tk.Level()),
		out:       cmd.OutOrStdout(),
		logger:    logger,
	}
	ctx := cmd.Context()
	if playResume {
		if err := sh.resume(ctx); err != nil {
			return err
		}
	}

	fmt.Fprintf(sh.out, "Jeep task %s ready. DB: %s\n", tk.ID(), cfg.DBPath)
	fmt.Fprintln(sh.out, "Type 'help' for commands.")
	sh.show()
	return sh.run(ctx, os.Stdin)
}

// #endregion command

// #region shell
// shell is the line-oriented front end of one task session.
type shell struct {
	task      *task.Task
	store     *store.Store // nil disables save and the edit log
	sessionID string
	goals     eval.EvalConfig
	out       io.Writer
	logger    *slog.Logger
}

var errQuit = errors.New("quit")

const helpText = `commands:
  fuel N      pick N (N > 0) or put -N (N < 0) at the selected step
  move N      drive to cell N
  select N    select step N
  load A B .. replace all steps with a solution
  show        print the task
  check       check the result against the level goals
  save        save the solution
  quit        leave`

func (s *shell) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}
		err := s.exec(ctx, scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// exec runs one command line.
func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "show":
		s.show()
		return nil
	case "check":
		s.check()
		return nil
	case "save":
		return s.save()
	case "fuel", "f", "move", "m", "select", "s":
		if len(args) != 1 {
			return fmt.Errorf("%s takes one number", cmd)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", cmd, err)
		}
		return s.edit(ctx, task.Edit{Op: opFor(cmd), Value: n})
	case "load":
		sol := make(history.Solution, 0, len(args))
		for _, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("load: %w", err)
			}
			sol = append(sol, n)
		}
		return s.edit(ctx, task.Edit{Op: task.OpLoad, Value: len(sol), Solution: sol})
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func opFor(cmd string) string {
	switch cmd {
	case "fuel", "f":
		return task.OpFuel
	case "move", "m":
		return task.OpMove
	default:
		return task.OpSelect
	}
}

func (s *shell) edit(ctx context.Context, e task.Edit) error {
	d, err := s.task.Apply(ctx, e)
	if err != nil {
		return err
	}
	s.logEdit(e.Op, e.Value, d)
	if !d.Committed() {
		fmt.Fprintf(s.out, "rejected: %s\n", d.Reason)
		return nil
	}
	s.show()
	return nil
}

func (s *shell) resume(ctx context.Context) error {
	saved, err := s.store.GetCurrent(s.task.ID())
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(s.out, "no saved solution for %s\n", s.task.ID())
		return nil
	}
	if err != nil {
		return err
	}
	return s.edit(ctx, task.Edit{Op: task.OpLoad, Value: len(saved.Steps), Solution: saved.Steps})
}

func (s *shell) save() error {
	if s.store == nil {
		return errors.New("no store configured")
	}
	rec := store.SolutionRecord{
		TaskID: s.task.ID(),
		Level:  s.task.Level(),
		Steps:  s.task.Solution(),
		Scores: s.task.Result(),
	}
	if parent, err := s.store.GetCurrent(rec.TaskID); err == nil {
		rec.ParentID = parent.VersionID
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	saved, err := s.store.Commit(rec)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "saved version %s\n", saved.VersionID)
	return nil
}

func (s *shell) logEdit(op string, value int, d gate.GateDecision) {
	if s.store == nil {
		return
	}
	if err := logging.LogEdit(s.store.DB(), s.task.EditEntry(s.sessionID, op, value, d)); err != nil {
		s.logger.Warn("edit log failed", "error", err)
	}
}

// #endregion shell

// #region render
func (s *shell) show() {
	v := s.task.View()

	fmt.Fprintln(s.out, renderTrack(v))
	fmt.Fprintf(s.out, "car: cell %d, fuel %d/%d   slider: %d [%d..%d]\n",
		v.Highlight.Cell, v.Highlight.Fuel, v.CarMaxFuel, v.Slider.Value, v.Slider.Min, v.Slider.Max)
	for _, st := range v.Steps {
		marker := "  "
		if st.Selected {
			marker = "> "
		}
		wrong := ""
		if st.Wrong {
			wrong = "  (not possible)"
		}
		fmt.Fprintf(s.out, "%s%3d  %s %s%s\n", marker, st.Index, st.Text, st.Value, wrong)
	}
	r := v.Result
	fmt.Fprintf(s.out, "far=%d far_with_return=%d total_fuel=%d steps=%d\n", r.Far, r.FarWithReturn, r.TotalFuel, r.Steps)
}

// renderTrack draws one character per cell: J for the car, a digit (or +
// above 9) for a reserve, * for the unlimited origin and . for an empty cell.
func renderTrack(v task.View) string {
	var b strings.Builder
	for i, reserve := range v.Field.Reserves {
		switch {
		case i == v.Field.Car.Cell:
			b.WriteByte('J')
		case reserve < 0:
			b.WriteByte('*')
		case reserve == 0:
			b.WriteByte('.')
		case reserve > 9:
			b.WriteByte('+')
		default:
			b.WriteByte(byte('0' + reserve))
		}
	}
	return b.String()
}

func (s *shell) check() {
	res := eval.NewEvalHarness(s.goals).Run(s.task.Result())
	for _, m := range res.Metrics {
		status := "ok"
		if !m.Pass {
			status = "missed"
		}
		fmt.Fprintf(s.out, "  %-16s %4d  target %4d  %s\n", m.Name, m.Value, m.Target, status)
	}
	fmt.Fprintln(s.out, res.Reason)
}

// #endregion render
