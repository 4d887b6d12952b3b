package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scorealign/pkg/pipeline"
)

// layoutCommand creates the layout command, which reconciles a score and
// prints the resulting systems.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [score.musicxml]",
		Short: "Partition a score into systems and report how each rendered",
		Long: `Partition a score into systems and report how each rendered.

The layout command splits the measures into systems sized for the container
width, renders every system with the reference engraver and shrinks systems
that overflow until each one renders validly. The table lists the final
systems, the check that failed for systems that were kept anyway, and the
number of minima placed on each chart.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), flags.options(cmd, args[0], &cfg), flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, flags layoutFlags) error {
	runner, err := c.newRunner(ctx, *opts.Config, flags.noCache, flags.signal)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Reconciling layout...")
	spinner.Start()

	l, err := runner.Layout(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()
	prog.done("Reconciled layout", "systems", len(l.Report.Systems), "renders", l.Report.Iterations)

	fmt.Println(systemsTable(l.Report.Systems, -1))
	for _, line := range reportSummary(l.Report) {
		printWarning("%s", line)
	}
	if l.Report.OK() {
		printSuccess("All %d systems render validly", len(l.Report.Systems))
	}
	printStats(layoutStats{
		measures:    l.State.MeasureCount(),
		systems:     len(l.Report.Systems),
		iterations:  l.Report.Iterations,
		adjustments: len(l.Report.Adjustments),
	})
	printNewline()
	printNextStep("Render", "scorealign render "+opts.ScorePath)
	return nil
}
