package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scorealign/pkg/pipeline"
	"github.com/matzehuels/scorealign/pkg/reconcile"
)

// defaultPxPerColumn maps a 140 column terminal onto the default 1400px
// container.
const defaultPxPerColumn = 10

// inspectCommand creates the inspect command, an interactive browser of the
// systems of a layout.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		flags       layoutFlags
		pxPerColumn float64
	)

	cmd := &cobra.Command{
		Use:   "inspect [score.musicxml]",
		Short: "Browse the systems of a layout interactively",
		Long: `Browse the systems of a layout interactively.

The container width follows the terminal: resizing the window lays the score
out again once the size has settled. Pass --width to pin the width instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, args[0], &cfg)
			if cmd.Flags().Changed("width") {
				pxPerColumn = 0
			}
			return c.runInspect(cmd.Context(), opts, flags, pxPerColumn)
		},
	}

	flags.register(cmd)
	cmd.Flags().Float64Var(&pxPerColumn, "px-per-column", defaultPxPerColumn, "container pixels per terminal column")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, opts pipeline.Options, flags layoutFlags, pxPerColumn float64) error {
	runner, err := c.newRunner(ctx, *opts.Config, flags.noCache, flags.signal)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	// Log lines would tear the alternate screen.
	logLevel := c.Logger.GetLevel()
	c.SetLogLevel(LogError)
	defer c.SetLogLevel(logLevel)

	spinner := newSpinnerWithContext(ctx, "Reconciling layout...")
	spinner.Start()
	l, err := runner.Layout(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	level := 0
	if opts.WantsSignal() {
		level = opts.Level
		if level == 0 {
			level = opts.Config.Signal.DefaultLevel
		}
	}
	model := NewInspectModel(filepath.Base(opts.ScorePath), l, level)
	model.PxPerColumn = pxPerColumn
	model.MinWidth = opts.Config.Layout.MinMeasureWidth

	var prog *tea.Program
	debounce := reconcile.NewDebouncer(nil, opts.Config.Layout.ResizeDebounce.Std())
	defer debounce.Stop()
	model.Relayout = func(width float64) {
		debounce.Trigger(func() {
			o := opts
			o.Width = width
			l, err := runner.Layout(ctx, o)
			prog.Send(layoutMsg{layout: l, width: width, err: err})
		})
	}

	prog = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
