package pdf

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// MaxRenderPixels bounds the size of a rendered page.
const MaxRenderPixels = 1 << 28

// RenderOptions controls page rasterization
type RenderOptions struct {
	DPI float64
	// Font replaces the built-in fallback for every font on the page.
	Font       *truetype.Font
	Background color.Color
	Foreground color.Color
}

// DefaultRenderOptions returns 72 DPI black on white
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		DPI:        72,
		Background: color.White,
		Foreground: color.Black,
	}
}

// The standard 14 fonts are not embedded, so they all render with Go Regular.
var fallbackFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// FallbackFont returns the font used for non-embedded fonts
func FallbackFont() (*truetype.Font, error) {
	return fallbackFont()
}

// RenderPage rasterizes the text of a page. Only text is drawn; vector
// graphics and images are not.
func RenderPage(p *Page, opts RenderOptions) (*image.RGBA, error) {
	if opts.DPI <= 0 {
		return nil, fmt.Errorf("invalid DPI %g", opts.DPI)
	}
	if opts.Background == nil {
		opts.Background = color.White
	}
	if opts.Foreground == nil {
		opts.Foreground = color.Black
	}
	ttf := opts.Font
	if ttf == nil {
		var err error
		if ttf, err = FallbackFont(); err != nil {
			return nil, fmt.Errorf("fallback font: %w", err)
		}
	}

	lines, err := p.TextLines()
	if err != nil {
		return nil, err
	}

	scale := opts.DPI / 72
	box := p.MediaBox
	if pixels := box.Width() * scale * box.Height() * scale; pixels > MaxRenderPixels {
		return nil, fmt.Errorf("page %d: %.0f pixels at %g DPI exceeds the limit of %d",
			p.Number, pixels, opts.DPI, MaxRenderPixels)
	}
	width := int(box.Width()*scale + 0.5)
	height := int(box.Height()*scale + 0.5)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("page %d: empty media box", p.Number)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)

	c := freetype.NewContext()
	c.SetDPI(opts.DPI)
	c.SetFont(ttf)
	c.SetClip(img.Bounds())
	c.SetDst(img)
	c.SetSrc(image.NewUniform(opts.Foreground))
	c.SetHinting(font.HintingFull)

	for _, line := range lines {
		size := line.FontSize
		if size <= 0 {
			size = 12
		}
		c.SetFontSize(size)

		// PDF space has its origin at the bottom left
		x := int((line.X - box.LLX) * scale)
		y := int((box.URY - line.Y) * scale)
		if _, err := c.DrawString(line.Text, freetype.Pt(x, y)); err != nil {
			return nil, fmt.Errorf("page %d: draw %q: %w", p.Number, line.Text, err)
		}
	}
	return img, nil
}
