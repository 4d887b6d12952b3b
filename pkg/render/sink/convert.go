package sink

import (
	"context"

	"github.com/matzehuels/scorealign/pkg/render"
)

// RenderPDF renders the page as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, p Page, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(ctx, RenderSVG(p, opts...))
}

// RenderPNG renders the page as PNG at the given scale via SVG conversion.
func RenderPNG(ctx context.Context, p Page, scale float64, opts ...SVGOption) ([]byte, error) {
	return render.ToPNG(ctx, RenderSVG(p, opts...), scale)
}
