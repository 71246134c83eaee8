package cli

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/godseed/internal/loop"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	AssetsDir string
	Output    string
}

// AnalyzeResult is the JSON payload of analyze.
type AnalyzeResult struct {
	Output      string           `json:"output,omitempty"`
	Placeholder bool             `json:"placeholder,omitempty"`
	Loopable    int              `json:"loopable"`
	OneShot     int              `json:"oneShot"`
	Files       loop.MetadataMap `json:"files"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [audio-file...]",
		Short: "Detect seamless loop points in audio files",
		Long: `Detect seamless loop points by cross-correlating the tail of each
sound against its head.

With file arguments, prints the metadata of each file. Without arguments,
analyzes every .wav and .ogg in the assets directory and writes
loop_meta.json. When the assets directory does not exist, placeholder
metadata for the stock cues is written instead.

Examples:
  godseed analyze assets/drone_low.ogg
  godseed analyze --assets ./assets --out dist/loop_meta.json
  godseed analyze --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.AssetsDir, "assets", "", "assets directory (default from config)")
	cmd.Flags().StringVarP(&opts.Output, "out", "o", "", "loop_meta.json output path (default from config)")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, files []string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())
	analyzer := loop.NewAnalyzer(logger)

	if len(files) > 0 {
		result := AnalyzeResult{Files: make(loop.MetadataMap, len(files))}
		for _, f := range files {
			out.VerboseLog("analyzing %s", f)
			result.Files[filepath.Base(f)] = analyzer.AnalyzeFile(f)
		}
		result.Loopable, result.OneShot = result.Files.Summary()
		return out.Result(result, func(w io.Writer) { printMetadata(w, result.Files) })
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return out.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}
	assets := cmp.Or(opts.AssetsDir, cfg.Loop.AssetsDir)
	output := cmp.Or(opts.Output, cfg.Loop.Output)

	result := AnalyzeResult{Output: output}
	meta, err := analyzer.AnalyzeDir(assets)
	switch {
	case errors.Is(err, loop.ErrNoAssets):
		logger.Warn("assets directory missing, writing placeholder metadata", "dir", assets)
		meta = loop.PlaceholderMetadata()
		result.Placeholder = true
	case err != nil:
		return out.Fail(ExitCommandError, CodeAnalysis, "failed to analyze assets", err)
	}

	if err := loop.WriteMetadataFile(output, meta); err != nil {
		return out.Fail(ExitCommandError, CodeAnalysis, "failed to write loop metadata", err)
	}

	result.Files = meta
	result.Loopable, result.OneShot = meta.Summary()
	return out.Result(result, func(w io.Writer) {
		if result.Placeholder {
			fmt.Fprintf(w, "No assets in %s; wrote placeholder metadata.\n", assets)
		} else {
			printMetadata(w, meta)
		}
		fmt.Fprintf(w, "Wrote %d entries (%d loopable, %d one-shot) to %s\n",
			len(meta), result.Loopable, result.OneShot, output)
	})
}

func printMetadata(w io.Writer, m loop.MetadataMap) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		md := m[name]
		if md.IsLoopable {
			fmt.Fprintf(w, "%-24s loop %d..%d crossfade %.0fms confidence %.2f\n",
				name, md.LoopStart, md.LoopEnd, md.CrossfadeMs, md.Confidence)
		} else {
			fmt.Fprintf(w, "%-24s one-shot %.2fs\n", name, md.Duration)
		}
	}
}
