package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/scorealign/pkg/pipeline"
)

// renderCommand creates the render command, which exports the aligned page.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags      layoutFlags
		output     string
		formatsStr string
		refresh    bool
	)

	cmd := &cobra.Command{
		Use:   "render [score.musicxml]",
		Short: "Render a score with its aligned energy chart",
		Long: `Render a score with its aligned energy chart.

Each system of the score is drawn above a chart of the selected signal level,
with the local minima marked at the beats where they occur. Output formats are
svg (default), json, pdf and png; pdf and png require rsvg-convert.

Results are cached, so rendering the same score at the same width and level
again is instant. Use --refresh to render anyway.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, args[0], &cfg)
			opts.Formats = parseFormats(formatsStr)
			opts.Refresh = refresh
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, flags, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output base path; the format extension is appended")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached results")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{pipeline.FormatSVG, pipeline.FormatJSON, pipeline.FormatPDF, pipeline.FormatPNG},
		cobra.ShellCompDirectiveNoFileComp,
	))

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, flags layoutFlags, output string) error {
	runner, err := c.newRunner(ctx, *opts.Config, flags.noCache, flags.signal)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Rendering "+filepath.Base(opts.ScorePath)+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done("Rendered", "formats", len(result.Artifacts), "cached", result.CacheInfo.RenderHit)

	base := basePath(output, opts.ScorePath)
	formats := make([]string, 0, len(result.Artifacts))
	for format := range result.Artifacts {
		formats = append(formats, format)
	}
	sort.Strings(formats)

	var written []string
	for _, format := range formats {
		path := base + "." + format
		if err := writeOutput(path, result.Artifacts[format]); err != nil {
			return err
		}
		c.Logger.Debug("wrote artifact", "format", format, "bytes", len(result.Artifacts[format]))
		written = append(written, path)
	}

	printSuccess("Render complete")
	for _, p := range written {
		printFile(p)
	}
	printStats(layoutStats{
		measures:    result.Stats.Measures,
		systems:     result.Stats.Systems,
		iterations:  result.Stats.Iterations,
		adjustments: result.Stats.Adjustments,
		cached:      result.CacheInfo.RenderHit,
	})
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
