package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ruvasqm/rate-tray/common"
	"github.com/ruvasqm/rate-tray/config"
)

// overflowMarker is drawn when the value cannot fit the canvas even at the
// minimum font size
const overflowMarker = "##"

var (
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	staleColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	upColor    = color.RGBA{G: 200, A: 255}
	downColor  = color.RGBA{R: 220, A: 255}
	dotColor   = color.RGBA{R: 255, G: 170, A: 255}
)

// iconRenderer rasterizes a value and its trend into fixed-size tray canvases.
// All parameters are fixed at construction, which keeps Render a pure function
// of its inputs. Not safe for concurrent use: the scheduler is its only caller.
type iconRenderer struct {
	name string
	cfg  config.IconConfig
	fnt  *opentype.Font
}

// NewIconRenderer parses the embedded font and validates the icon parameters
func NewIconRenderer(name string, cfg config.IconConfig) (*iconRenderer, error) {
	if len(cfg.Sizes) == 0 {
		return nil, errors.New("no icon sizes configured")
	}
	for _, size := range cfg.Sizes {
		if size < 8 {
			return nil, fmt.Errorf("icon size %d is too small", size)
		}
	}
	if cfg.Precision < 0 {
		return nil, errors.New("negative precision")
	}
	if cfg.MinFontSize < 4 {
		return nil, errors.New("minimum font size must be at least 4")
	}

	fnt, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}

	return &iconRenderer{
		name: name,
		cfg:  cfg,
		fnt:  fnt,
	}, nil
}

// Render rasterizes the value with its trend overlay once per configured size,
// each canvas drawn from the same vector face rather than rescaled. Identical
// inputs yield byte-identical outputs.
func (r *iconRenderer) Render(value float64, trend common.Trend, stale bool) (*common.RenderedIcon, error) {
	text := strconv.FormatFloat(value, 'f', r.cfg.Precision, 64)

	variants := make([]common.IconVariant, 0, len(r.cfg.Sizes))
	for _, size := range r.cfg.Sizes {
		canvas, err := r.renderCanvas(text, size, trend, stale)
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		err = png.Encode(&buf, canvas)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %dpx canvas: %w", size, err)
		}

		variants = append(variants, common.IconVariant{
			Size: size,
			PNG:  buf.Bytes(),
		})
	}

	return &common.RenderedIcon{
		Variants: variants,
		Tooltip:  r.tooltip(text, trend, stale),
	}, nil
}

func (r *iconRenderer) renderCanvas(text string, size int, trend common.Trend, stale bool) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))

	// the right strip is reserved for the trend glyph
	strip := size / 4
	if strip < 3 {
		strip = 3
	}
	availableWidth := size - strip - 1

	face, fitted, textWidth, err := r.fitFace(text, availableWidth, size)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = face.Close()
	}()

	metrics := face.Metrics()
	x := (availableWidth - textWidth) / 2
	if x < 0 {
		x = 0
	}
	baseline := (size + metrics.Ascent.Ceil() - metrics.Descent.Ceil()) / 2

	fg := textColor
	if stale {
		fg = staleColor
	}

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	drawer.DrawString(fitted)

	drawTrendGlyph(canvas, trend.Direction, size, strip)
	if stale {
		drawStaleDot(canvas, size)
	}

	return canvas, nil
}

// fitFace shrinks the face point size until the text fits the available
// width, down to the configured minimum; past that it falls back to the
// overflow marker instead of clipping
func (r *iconRenderer) fitFace(text string, availableWidth int, startSize int) (font.Face, string, int, error) {
	for pts := startSize; pts >= r.cfg.MinFontSize; pts-- {
		face, err := r.newFace(pts)
		if err != nil {
			return nil, "", 0, err
		}

		width := font.MeasureString(face, text).Ceil()
		if width <= availableWidth {
			return face, text, width, nil
		}
		_ = face.Close()
	}

	face, err := r.newFace(r.cfg.MinFontSize)
	if err != nil {
		return nil, "", 0, err
	}
	width := font.MeasureString(face, overflowMarker).Ceil()

	return face, overflowMarker, width, nil
}

func (r *iconRenderer) newFace(pts int) (font.Face, error) {
	face, err := opentype.NewFace(r.fnt, &opentype.FaceOptions{
		Size:    float64(pts),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %dpt face: %w", pts, err)
	}

	return face, nil
}

func (r *iconRenderer) tooltip(text string, trend common.Trend, stale bool) string {
	tooltip := fmt.Sprintf("%s: %s", r.name, text)

	delta := strconv.FormatFloat(trend.Delta, 'f', r.cfg.Precision, 64)
	switch trend.Direction {
	case common.TrendUp:
		tooltip += fmt.Sprintf(" (+%s)", delta)
	case common.TrendDown:
		tooltip += fmt.Sprintf(" (%s)", delta)
	}

	if stale {
		tooltip += " [stale]"
	}

	return tooltip
}

// drawTrendGlyph fills a small triangle in the reserved right strip, pointing
// up or down per the trend direction. Flat trends draw nothing.
func drawTrendGlyph(canvas *image.RGBA, direction common.TrendDirection, size int, strip int) {
	var c color.RGBA
	switch direction {
	case common.TrendUp:
		c = upColor
	case common.TrendDown:
		c = downColor
	default:
		return
	}

	side := strip
	x0 := size - side
	y0 := (size - side) / 2
	cx := x0 + side/2

	for row := 0; row < side; row++ {
		half := row / 2
		if direction == common.TrendDown {
			half = (side - 1 - row) / 2
		}

		y := y0 + row
		for x := cx - half; x <= cx+half; x++ {
			canvas.SetRGBA(x, y, c)
		}
	}
}

// drawStaleDot overlays a warning dot in the top-right corner
func drawStaleDot(canvas *image.RGBA, size int) {
	radius := size / 8
	if radius < 1 {
		radius = 1
	}
	cx := size - 1 - radius
	cy := radius

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				canvas.SetRGBA(cx+dx, cy+dy, dotColor)
			}
		}
	}
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *iconRenderer) IsInterfaceNil() bool {
	return r == nil
}
