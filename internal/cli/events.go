package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/godseed/internal/audio"
	"github.com/roach88/godseed/internal/event"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Cues     string
	Unrouted bool
}

// EventInfo describes one event name and the audio cues it drives.
type EventInfo struct {
	Name  string   `json:"name"`
	Play  []string `json:"play,omitempty"`
	Stop  []string `json:"stop,omitempty"`
	Duck  bool     `json:"duck,omitempty"`
	Route bool     `json:"routed"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List every event name the binder can emit",
		Long: `List every event name the binder can emit, with the audio cues
the catalog routes to it.

Examples:
  godseed events
  godseed events --unrouted
  godseed events --cues content/audio_cues.json --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cues, "cues", "", "audio cue catalog (default from config, else built-in)")
	cmd.Flags().BoolVar(&opts.Unrouted, "unrouted", false, "only list events no route listens for")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return out.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}

	catalog := audio.DefaultCatalog()
	if path := cmp.Or(opts.Cues, cfg.Content.Cues); path != "" {
		var errs []error
		catalog, errs = audio.LoadCatalog(path)
		if len(errs) > 0 {
			return out.Fail(ExitFailure, CodeCatalog, "audio catalog invalid", errors.Join(errs...))
		}
	}

	routes := make(map[string]*EventInfo)
	for _, r := range catalog.Routes {
		info, ok := routes[r.When]
		if !ok {
			info = &EventInfo{Name: r.When, Route: true}
			routes[r.When] = info
		}
		info.Play = append(info.Play, r.Play...)
		info.Stop = append(info.Stop, r.Stop...)
		info.Duck = info.Duck || r.Duck > 0
	}

	infos := []EventInfo{}
	for _, name := range event.AllNames() {
		info, ok := routes[name]
		if !ok {
			info = &EventInfo{Name: name}
		}
		if opts.Unrouted && info.Route {
			continue
		}
		infos = append(infos, *info)
	}

	return out.Result(infos, func(w io.Writer) {
		for _, info := range infos {
			fmt.Fprintf(w, "%-32s %s\n", info.Name, describeRoute(info))
		}
		fmt.Fprintf(w, "%d events\n", len(infos))
	})
}

func describeRoute(info EventInfo) string {
	if !info.Route {
		return "-"
	}
	var parts []string
	if len(info.Play) > 0 {
		parts = append(parts, "play "+strings.Join(info.Play, ","))
	}
	if len(info.Stop) > 0 {
		parts = append(parts, "stop "+strings.Join(info.Stop, ","))
	}
	if info.Duck {
		parts = append(parts, "duck")
	}
	return strings.Join(parts, "; ")
}
