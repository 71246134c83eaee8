package cli

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/godseed/internal/audio"
	"github.com/roach88/godseed/internal/loop"
	"github.com/roach88/godseed/internal/story"
)

// Sources a validation issue can come from.
const (
	SourceCatalog    = "catalog"
	SourceStory      = "story"
	SourceCorruption = "corruption"
	SourceLoopMeta   = "loop_meta"
)

// ValidationIssue is one problem found in a content file.
type ValidationIssue struct {
	Source  string `json:"source"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Checked  []string          `json:"checked"`
	Unrouted int               `json:"unrouted"`
	Errors   []ValidationIssue `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Cues       string
	Story      string
	Corruption string
	LoopMeta   string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate content files",
		Long: `Validate the audio cue catalog, story, corruption lines and loop
metadata named by the config or flags.

The catalog is checked against its CUE schema, then every route is checked
against the events the binder can emit and the cues the catalog defines.
Files that are not configured are skipped; the built-in catalog is checked
when no catalog is configured.

Exit codes:
  0 - All content valid
  1 - One or more files invalid
  2 - Command error (unreadable config, etc.)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Cues, "cues", "", "audio cue catalog")
	cmd.Flags().StringVar(&opts.Story, "story", "", "story JSON")
	cmd.Flags().StringVar(&opts.Corruption, "corruption", "", "corruption lines JSON")
	cmd.Flags().StringVar(&opts.LoopMeta, "loop-meta", "", "loop metadata JSON")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, CodeConfig, "failed to load config", err)
	}

	result := ValidationResult{Checked: []string{}}
	check := func(source string, issues []ValidationIssue) {
		result.Checked = append(result.Checked, source)
		result.Errors = append(result.Errors, issues...)
	}

	catalog, issues := validateCatalog(cmp.Or(opts.Cues, cfg.Content.Cues))
	check(SourceCatalog, issues)
	if catalog != nil {
		result.Unrouted = len(catalog.Unrouted())
		formatter.VerboseLog("%d events have no audio route", result.Unrouted)
	}

	if path := cmp.Or(opts.Story, cfg.Content.Story); path != "" {
		formatter.VerboseLog("Validating story: %s", path)
		check(SourceStory, fileIssue(SourceStory, CodeContent, func() error {
			_, err := story.ReadStory(path)
			return err
		}))
	}
	if path := cmp.Or(opts.Corruption, cfg.Content.Corruption); path != "" {
		formatter.VerboseLog("Validating corruption lines: %s", path)
		check(SourceCorruption, fileIssue(SourceCorruption, CodeContent, func() error {
			_, err := story.ReadCorruption(path)
			return err
		}))
	}
	if path := cmp.Or(opts.LoopMeta, cfg.Content.LoopMeta); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			formatter.VerboseLog("Validating loop metadata: %s", path)
			check(SourceLoopMeta, fileIssue(SourceLoopMeta, CodeAnalysis, func() error {
				_, err := loop.ReadMetadataFile(path)
				return err
			}))
		} else {
			formatter.VerboseLog("Skipping loop metadata: %s not found", path)
		}
	}

	result.Valid = len(result.Errors) == 0
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return formatter.Result(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ All content valid (%d unrouted events)\n", result.Unrouted)
	})
}

// validateCatalog loads the catalog at path, or checks the built-in one when
// path is empty.
func validateCatalog(path string) (*audio.Catalog, []ValidationIssue) {
	if path == "" {
		return audio.DefaultCatalog(), nil
	}
	catalog, errs := audio.LoadCatalog(path)
	var issues []ValidationIssue
	for _, err := range errs {
		issue := ValidationIssue{Source: SourceCatalog, Code: CodeCatalog, Message: err.Error()}
		var catErr *audio.CatalogError
		if errors.As(err, &catErr) {
			issue.Code = catErr.Code
			issue.Message = catErr.Message
			if catErr.Pos.IsValid() {
				issue.Line = catErr.Pos.Line()
			}
		}
		issues = append(issues, issue)
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return catalog, nil
}

func fileIssue(source, code string, read func() error) []ValidationIssue {
	if err := read(); err != nil {
		return []ValidationIssue{{Source: source, Code: code, Message: err.Error()}}
	}
	return nil
}

// outputValidationErrors outputs every issue and returns the failure.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "%s line %d\n", err.Source, err.Line)
		} else {
			fmt.Fprintln(formatter.Writer, err.Source)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
