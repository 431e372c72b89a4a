package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/homestead/internal/catalog"
	"github.com/roach88/homestead/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict       bool
	Capabilities []string
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool            `json:"valid"`
	Hash    string          `json:"hash,omitempty"`
	Files   []string        `json:"files,omitempty"`
	Plants  []string        `json:"plants,omitempty"`
	Actions int             `json:"actions"`
	Issues  []catalog.Issue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [catalog-path...]",
		Short: "Compile and check a plant catalog",
		Long: `Compile the CUE plant catalog and check it for references the runtime
could only resolve through fallbacks: dangling next stages, unreachable
stages, growth actions no stage reacts to, seeds that are never delivered.

Compile errors fail the command. Findings are warnings unless --strict.
With no path, the configured catalog is used.

Examples:
  homestead validate ./catalog
  homestead validate ./catalog --strict --capability Pump.Start
  homestead validate ./catalog --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat findings as failures")
	cmd.Flags().StringSliceVar(&opts.Capabilities, "capability", nil, "registered Component.Method names to check invoke effects against")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	paths = catalogPaths(opts.RootOptions, paths)
	if len(paths) == 0 {
		return outputValidateError(formatter, compiler.ErrCodeNoFiles, "no catalog path given", nil)
	}

	loaded, err := compiler.Load(paths...)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Compiled %d CUE file(s)", len(loaded.Files))

	cat := loaded.Catalog
	issues := catalog.Validate(cat, catalog.ValidateOptions{Capabilities: opts.Capabilities})

	result := ValidationResult{
		Valid:   !opts.Strict || len(issues) == 0,
		Hash:    cat.Hash,
		Files:   loaded.Files,
		Actions: cat.Actions.Len(),
		Issues:  issues,
	}
	for _, p := range cat.Plants {
		result.Plants = append(result.Plants, p.Name)
	}

	if formatter.JSON() {
		if !result.Valid {
			_ = formatter.Failure(string(issues[0].Code), issues[0].String(), result)
			return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(issues)))
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ Catalog valid: %d plant(s), %d action(s)\n", len(result.Plants), result.Actions)
	} else {
		fmt.Fprintln(w, "✗ Validation failed")
	}
	for _, issue := range issues {
		fmt.Fprintf(w, "  warning: %s\n", issue)
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", len(issues)))
	}
	return nil
}

// catalogPaths returns args, or the configured catalog when args is empty.
func catalogPaths(opts *RootOptions, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if opts.Config.Catalog != "" {
		return []string{opts.Config.Catalog}
	}
	return nil
}

// outputLoadError reports a catalog load error. Compile errors (E1xx) are
// validation failures; everything else is a command error.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *compiler.LoadError
	if !errors.As(err, &loadErr) {
		return outputValidateError(formatter, compiler.ErrCodeGeneric, err.Error(), nil)
	}

	var details any
	if loadErr.Pos.IsValid() {
		details = map[string]any{
			"file":   loadErr.Pos.Filename(),
			"line":   loadErr.Pos.Line(),
			"column": loadErr.Pos.Column(),
		}
	}
	_ = formatter.Error(loadErr.Code, loadErr.Message, details)

	if strings.HasPrefix(loadErr.Code, "E1") {
		return NewExitError(ExitFailure, loadErr.Error())
	}
	return NewExitError(ExitCommandError, loadErr.Error())
}

// outputValidateError outputs a single command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
