package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/grizzly/internal/frame"
	"github.com/roach88/grizzly/internal/pipeline"
	"github.com/roach88/grizzly/internal/sqlgen"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Pipelines int               `json:"pipelines"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
	Warnings  []ValidationIssue `json:"warnings,omitempty"`
}

// ValidationIssue is one error or warning, attributed to a pipeline.
type ValidationIssue struct {
	Pipeline string `json:"pipeline"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Check pipelines without running them",
		Long: `Build every pipeline and compile its output to SQL.

Reports structural errors (E2xx), invalid pipeline shapes, compilation
failures and expect_sql mismatches. Column references that cannot be
verified against declared table columns are reported as warnings and do
not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ps, err := pipeline.Load(path)
	if err != nil {
		var pe *pipeline.Error
		if errors.As(err, &pe) {
			// A single invalid pipeline fails the file; report it as a result.
			return outputValidation(formatter, ValidationResult{
				Errors: []ValidationIssue{{Pipeline: pe.Pipeline, Code: ErrCodePipeline, Message: err.Error()}},
			})
		}
		return formatter.Fail(ExitCommandError, ErrorCode(err), err)
	}

	result := ValidationResult{Pipelines: len(ps)}
	for _, p := range ps {
		formatter.VerboseLog("Validating pipeline: %s", p.Name)
		errs, warnings := validatePipeline(p, formatter)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}
	result.Valid = len(result.Errors) == 0

	return outputValidation(formatter, result)
}

// validatePipeline builds p in a fresh session, compiles its output and
// checks expect_sql.
func validatePipeline(p *pipeline.Pipeline, formatter *OutputFormatter) (errs, warnings []ValidationIssue) {
	issue := func(code string, err error) []ValidationIssue {
		return []ValidationIssue{{Pipeline: p.Name, Code: code, Message: err.Error()}}
	}

	res, err := pipeline.Build(frame.NewSession(), p)
	if err != nil {
		return issue(compileCode(err), err), nil
	}
	formatter.VerboseLog("%s", frame.Describe(res.Output.Node()))

	for _, w := range res.Warnings() {
		warnings = append(warnings, ValidationIssue{Pipeline: p.Name, Message: w})
	}

	rendered, err := res.Render(sqlgen.NewCompiler(sqlgen.SQLite))
	if err != nil {
		return issue(compileCode(err), err), warnings
	}
	if p.ExpectSQL != "" && p.ExpectSQL != rendered {
		err := fmt.Errorf("rendered SQL does not match expect_sql:\n  want: %s\n  got:  %s", p.ExpectSQL, rendered)
		return issue(ErrCodeExpectSQL, err), warnings
	}
	return nil, warnings
}

func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		w := formatter.Writer
		for _, warn := range result.Warnings {
			fmt.Fprintf(w, "warning: %s: %s\n", warn.Pipeline, warn.Message)
		}
		if result.Valid {
			fmt.Fprintf(w, "✓ All pipelines valid (%d)\n", result.Pipelines)
		} else {
			fmt.Fprintln(w, "✗ Validation failed")
			fmt.Fprintln(w)
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s: %s\n\n", e.Code, e.Message)
			}
		}
	}

	if !result.Valid {
		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}
