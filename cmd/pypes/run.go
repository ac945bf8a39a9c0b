package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/domain/graph"
	"github.com/pypes-dev/pypes/internal/infrastructure/config"
	"github.com/pypes-dev/pypes/internal/infrastructure/container"
	"github.com/pypes-dev/pypes/internal/infrastructure/output"
	"github.com/pypes-dev/pypes/internal/infrastructure/redaction"
	"github.com/pypes-dev/pypes/wireformat"
)

var (
	blueprintPath string
	verifyOnly    bool
	allowUnsafe   bool
	entrypoint    string
	format        string
	outFile       string
	skipConfirm   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Parse, analyse, and execute a blueprint",
	Long: `Load a blueprint, run the capability graph analyser's six-step check, and,
unless --verify-only is given, link and execute its workflow.

Exit codes: 0 success, 1 runtime failure, 2 analyser rejection, 3
configuration malformed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAction(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&blueprintPath, "config", "", "path to the blueprint TOML document (required)")
	runCmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "run the analyser only; do not execute")
	runCmd.Flags().BoolVar(&allowUnsafe, "allow-unsafe", false, "bypass the Lethal Trifecta and Deadly Duo policy checks")
	runCmd.Flags().StringVar(&entrypoint, "entrypoint", "", "skip the workflow; invoke this component's run export directly")
	runCmd.Flags().StringVar(&format, "format", "table", "output format: table, json, yaml, junit")
	runCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file path (default: stdout)")
	runCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "skip the --allow-unsafe confirmation prompt")

	_ = runCmd.MarkFlagRequired("config")
}

func runAction(ctx context.Context) error {
	if allowUnsafe && !skipConfirm {
		confirmed, err := confirmUnsafe()
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		if !confirmed {
			return &exitError{code: 1, err: fmt.Errorf("aborted: --allow-unsafe not confirmed")}
		}
	}

	bp, err := config.LoadBlueprint(blueprintPath)
	if err != nil {
		return &exitError{code: 3, err: fmt.Errorf("loading blueprint: %w", err)}
	}

	secretsCfg, redactionCfg, err := loadCLIConfig(systemConfigPath)
	if err != nil {
		return &exitError{code: 3, err: fmt.Errorf("loading system config: %w", err)}
	}

	c, err := container.New(ctx, container.Options{
		SystemConfigPath: systemConfigPath,
		RegistryCacheDir: defaultRegistryCacheDir(),
		Secrets:          secretsCfg,
		Redaction:        redactionCfg,
	})
	if err != nil {
		return &exitError{code: 3, err: fmt.Errorf("initializing: %w", err)}
	}

	out, closeWriter, err := openOutput(outFile)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	defer closeWriter()

	w := redaction.NewWriter(out, c.Redactor())

	switch {
	case entrypoint != "":
		return runEntrypoint(ctx, c, bp, w)
	case verifyOnly:
		return runVerifyOnly(ctx, c, bp, w)
	default:
		return runWorkflow(ctx, c, bp, w)
	}
}

// runVerifyOnly runs the analyser and reports acceptance or rejection
// without linking or executing anything.
func runVerifyOnly(ctx context.Context, c *container.Container, bp *blueprint.Blueprint, w *redaction.Writer) error {
	_, rejection, err := c.Runner().Verify(ctx, bp, allowUnsafe)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	if rejection != nil {
		return rejectionExit(rejection, w)
	}
	fmt.Fprintln(w, "accepted")
	return nil
}

// runWorkflow verifies, links, and executes bp's workflow to completion,
// formatting the resulting RunSummary in the requested format.
func runWorkflow(ctx context.Context, c *container.Container, bp *blueprint.Blueprint, w *redaction.Writer) error {
	result, rejection, err := c.Runner().Run(ctx, bp, allowUnsafe)
	if rejection != nil {
		return rejectionExit(rejection, w)
	}
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	summary := output.NewRunSummary(bp, result, c.Redactor())
	formatter, err := output.NewFormatterFactory().Create(format, w, output.FormatterOptions{Indent: true})
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	if err := formatter.Format(summary); err != nil {
		return &exitError{code: 1, err: err}
	}

	if summary.Status.IsFailure() {
		return &exitError{code: 1, err: fmt.Errorf("run %s finished with status %s", summary.RunID, summary.Status)}
	}
	return nil
}

// runEntrypoint resolves --entrypoint's single "run" export and invokes it
// directly, bypassing the workflow DAG, per spec's entrypoint invocation
// mode.
func runEntrypoint(ctx context.Context, c *container.Container, bp *blueprint.Blueprint, w *redaction.Writer) error {
	target, err := c.Runner().EntrypointFunction(ctx, bp, entrypoint)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	result, rejection, err := c.Runner().Invoke(ctx, bp, allowUnsafe, entrypoint, target, map[string]wireformat.Value{})
	if rejection != nil {
		return rejectionExit(rejection, w)
	}
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	fmt.Fprintf(w, "%+v\n", result)
	return nil
}

// rejectionExit writes rejection as a SARIF report to w and returns the
// exit-2 error the analyser's rejection maps to.
func rejectionExit(rejection *graph.Rejection, w *redaction.Writer) error {
	sarifFormatter := output.NewSARIFFormatter(w, buildVersion())
	if err := sarifFormatter.Format(rejection); err != nil {
		return &exitError{code: 1, err: err}
	}
	return &exitError{code: 2, err: fmt.Errorf("analyser rejected blueprint: %s", rejection.Error())}
}

// confirmUnsafe gates --allow-unsafe behind an interactive confirmation,
// since it bypasses the Lethal Trifecta and Deadly Duo policy checks
// (analyser steps 4-5) for the whole run.
func confirmUnsafe() (bool, error) {
	confirmed := false
	err := huh.NewConfirm().
		Title("--allow-unsafe bypasses the Lethal Trifecta and Deadly Duo policy checks. Continue?").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return confirmed, nil
}

func defaultRegistryCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.pypes/cache"
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	//nolint:gosec // G304: user-supplied output path is intentional
	f, err := os.Create(path)
	if err != nil {
		return nil, func() {}, fmt.Errorf("creating output file %q: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
