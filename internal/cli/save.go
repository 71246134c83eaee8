package cli

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/godseed/internal/domain"
	"github.com/roach88/godseed/internal/engine"
	"github.com/roach88/godseed/internal/store"
)

// SaveOptions holds flags shared by the save subcommands.
type SaveOptions struct {
	*RootOptions
	Database string
	Slot     string
}

// SaveResult is the JSON payload of import and reset.
type SaveResult struct {
	Slot    domain.Slot `json:"slot"`
	Action  string      `json:"action"`
	Entropy float64     `json:"entropy"`
	Seeds   int         `json:"seeds"`
}

// NewSaveCommand creates the save command and its subcommands.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Inspect and manage save slots",
		Long: `Inspect and manage the three save slots (A, B, C) in the save database.

Examples:
  godseed save list
  godseed save export --slot B > garden.json
  godseed save import garden.json --slot C
  godseed save reset --slot A --keep-meta
  godseed save scores --limit 5`,
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "save database path (default from config)")
	cmd.PersistentFlags().StringVar(&opts.Slot, "slot", "", "save slot A, B or C (default from config)")

	cmd.AddCommand(newSaveListCommand(opts))
	cmd.AddCommand(newSaveExportCommand(opts))
	cmd.AddCommand(newSaveImportCommand(opts))
	cmd.AddCommand(newSaveResetCommand(opts))
	cmd.AddCommand(newSaveScoresCommand(opts))

	return cmd
}

// open resolves the database and slot, then opens the store. The caller
// closes the store.
func (o *SaveOptions) open(out *OutputFormatter) (*store.Store, domain.Slot, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, "", out.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}
	slot, err := domain.ParseSlot(cmp.Or(o.Slot, cfg.Slot))
	if err != nil {
		return nil, "", out.Fail(ExitCommandError, CodeInvalidArgs, "invalid slot", err)
	}
	st, err := store.Open(cmp.Or(o.Database, cfg.Database))
	if err != nil {
		return nil, "", out.Fail(ExitCommandError, CodeDatabase, "failed to open database", err)
	}
	return st, slot, nil
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

func newSaveListCommand(opts *SaveOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List occupied save slots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			logger := opts.logger(cmd.ErrOrStderr())
			st, _, err := opts.open(out)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			saves, err := st.ListSaves(cmd.Context())
			if err != nil {
				return out.Fail(ExitCommandError, CodeDatabase, "failed to list saves", err)
			}
			return out.Result(saves, func(w io.Writer) {
				if len(saves) == 0 {
					fmt.Fprintln(w, "No saves.")
					return
				}
				for _, s := range saves {
					fmt.Fprintf(w, "%s  seq %-4d %6d bytes  %s\n",
						s.Slot, s.Seq, s.Size, s.UpdatedAt.Format("2006-01-02 15:04:05"))
				}
			})
		},
	}
}

func newSaveExportCommand(opts *SaveOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "export",
		Short:         "Print the save stored in a slot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			logger := opts.logger(cmd.ErrOrStderr())
			st, slot, err := opts.open(out)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			blob, err := st.ReadSave(cmd.Context(), slot)
			if errors.Is(err, store.ErrSlotNotFound) {
				return out.Fail(ExitFailure, CodeSlotEmpty, fmt.Sprintf("slot %s is empty", slot), err)
			}
			if err != nil {
				return out.Fail(ExitCommandError, CodeDatabase, "failed to read save", err)
			}
			return out.Result(json.RawMessage(blob), func(w io.Writer) {
				fmt.Fprintln(w, string(blob))
			})
		},
	}
}

func newSaveImportCommand(opts *SaveOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Validate a save and store it in a slot",
		Long: `Validate a save and store it in a slot.

The save is restored into a scratch engine first, so a malformed save never
reaches the database. Saves from older versions are upgraded on the way in.
Use - to read from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			logger := opts.logger(cmd.ErrOrStderr())

			blob, err := readInput(cmd, args[0])
			if err != nil {
				return out.Fail(ExitCommandError, CodeInvalidArgs, "failed to read save file", err)
			}

			st, slot, err := opts.open(out)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			e := engine.New(engine.WithPersister(store.NewSlotSaver(st)), engine.WithLogger(logger))
			if err := e.Restore(blob); err != nil {
				return out.Fail(ExitFailure, CodeMalformed, "save rejected", err)
			}
			e.SwitchSlot(slot)
			if err := e.Flush(cmd.Context()); err != nil {
				return out.Fail(ExitCommandError, CodeDatabase, "failed to write save", err)
			}
			return out.Result(saveResult(e, "imported"), func(w io.Writer) {
				fmt.Fprintf(w, "Imported save into slot %s (entropy %.1f).\n", slot, e.Entropy())
			})
		},
	}
}

func newSaveResetCommand(opts *SaveOptions) *cobra.Command {
	var keepMeta bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start the run in a slot over",
		Long: `Start the run in a slot over.

With --keep-meta the ecology, seasons, stats and scoreboard survive and only
the story, entropy and ending reset. Without it the slot is emptied. The
scores table is never touched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			logger := opts.logger(cmd.ErrOrStderr())
			st, slot, err := opts.open(out)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			if !keepMeta {
				if err := st.DeleteSave(cmd.Context(), slot); err != nil {
					return out.Fail(ExitCommandError, CodeDatabase, "failed to delete save", err)
				}
				result := SaveResult{Slot: slot, Action: "cleared"}
				return out.Result(result, func(w io.Writer) {
					fmt.Fprintf(w, "Cleared slot %s.\n", slot)
				})
			}

			e := engine.New(engine.WithPersister(store.NewSlotSaver(st)), engine.WithLogger(logger), engine.WithSlot(slot))
			if err := e.Load(cmd.Context(), slot); err != nil {
				if errors.Is(err, store.ErrSlotNotFound) {
					return out.Fail(ExitFailure, CodeSlotEmpty, fmt.Sprintf("slot %s is empty", slot), err)
				}
				return out.Fail(ExitFailure, CodeMalformed, "failed to load save", err)
			}
			e.ResetRun(true)
			if err := e.Flush(cmd.Context()); err != nil {
				return out.Fail(ExitCommandError, CodeDatabase, "failed to write save", err)
			}
			return out.Result(saveResult(e, "reset"), func(w io.Writer) {
				fmt.Fprintf(w, "Reset run in slot %s; %d seeds kept.\n", slot, len(e.Snapshot().PersistentSeeds))
			})
		},
	}

	cmd.Flags().BoolVar(&keepMeta, "keep-meta", false, "keep ecology, stats and scoreboard")
	return cmd
}

func newSaveScoresCommand(opts *SaveOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:           "scores",
		Short:         "Show the latest finished runs of a slot",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			logger := opts.logger(cmd.ErrOrStderr())
			st, slot, err := opts.open(out)
			if err != nil {
				return err
			}
			defer closeStore(st, logger)

			rows, err := st.Scores(cmd.Context(), slot, limit)
			if err != nil {
				return out.Fail(ExitCommandError, CodeDatabase, "failed to read scores", err)
			}
			return out.Result(rows, func(w io.Writer) {
				if len(rows) == 0 {
					fmt.Fprintf(w, "No finished runs in slot %s.\n", slot)
					return
				}
				for _, r := range rows {
					fmt.Fprintf(w, "%-16s %6.0f  %s\n", r.Ending, r.Score, r.EndedAt.Format("2006-01-02 15:04:05"))
				}
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show (0 for all)")
	return cmd
}

func saveResult(e *engine.Engine, action string) SaveResult {
	s := e.Snapshot()
	return SaveResult{
		Slot:    s.SaveSlot,
		Action:  action,
		Entropy: s.Entropy,
		Seeds:   len(s.PersistentSeeds),
	}
}

// readInput reads path, or the command's stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
