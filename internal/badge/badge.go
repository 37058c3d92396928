// Package badge renders participant badges as PNG images.
package badge

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/theunknown2025/sympos-ai-sub004/internal/placeholder"
)

// Line is one centered text row. Scale multiplies the 13px base font size
// and is reduced when the text would not fit the badge width.
type Line struct {
	Text  string `json:"text"`
	Scale int    `json:"scale"`
	Color string `json:"color,omitempty"`
}

type Template struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background"`
	Header     string `json:"header"` // header band color
	HeaderText string `json:"headerText"`
	TextColor  string `json:"textColor"`
	Lines      []Line `json:"lines"`
	// QRSize is the side of the QR block in pixels; 0 disables it.
	QRSize int `json:"qrSize"`
}

// DefaultTemplate is a 600x900 portrait badge with the event name in the
// header band, the participant identity below it and a QR block at the
// bottom.
func DefaultTemplate() Template {
	return Template{
		Width:      600,
		Height:     900,
		Background: "#ffffff",
		Header:     "#1e3a8a",
		HeaderText: "#ffffff",
		TextColor:  "#111827",
		Lines: []Line{
			{Text: "{{eventTitle}}", Scale: 3},
			{Text: "{{firstName}}", Scale: 5},
			{Text: "{{lastName}}", Scale: 5},
			{Text: "{{affiliation}}", Scale: 2},
			{Text: "{{country}}", Scale: 2, Color: "#4b5563"},
		},
		QRSize: 260,
	}
}

const (
	baseSize   = 13
	margin     = 24
	headerH    = 140
	lineGap    = 18
	maxScale   = 8
	ellipsis   = "..."
	qrMinSide  = 64
	minimumDim = 200
)

// Render draws the badge, filling {{key}} tokens from values. qrContent is
// encoded into the QR block when the template has one and it is non-empty.
func Render(t Template, values map[string]string, qrContent string) ([]byte, error) {
	if t.Width < minimumDim || t.Height < minimumDim {
		return nil, fmt.Errorf("badge: template too small (%dx%d)", t.Width, t.Height)
	}
	bg, err := parseColor(t.Background)
	if err != nil {
		return nil, err
	}
	fg, err := parseColor(t.TextColor)
	if err != nil {
		return nil, err
	}
	headerBg, err := parseColor(t.Header)
	if err != nil {
		return nil, err
	}
	headerFg, err := parseColor(t.HeaderText)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, t.Width, t.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, 0, t.Width, headerH), image.NewUniform(headerBg), image.Point{}, draw.Src)

	y := margin
	for i, line := range t.Lines {
		// Lines left empty or with unresolved tokens are skipped.
		text := strings.TrimSpace(placeholder.Replace(line.Text, values))
		if text == "" || len(placeholder.Keys(text)) > 0 {
			continue
		}
		col := fg
		if line.Color != "" {
			if col, err = parseColor(line.Color); err != nil {
				return nil, err
			}
		}
		// The first line sits in the header band.
		if i == 0 {
			if _, err := drawLine(img, text, line.Scale, 0, headerH, headerFg); err != nil {
				return nil, err
			}
			y = headerH + margin
			continue
		}
		h, err := drawLine(img, text, line.Scale, y, 0, col)
		if err != nil {
			return nil, err
		}
		y += h + lineGap
	}

	if t.QRSize > 0 && qrContent != "" {
		side := t.QRSize
		if side > t.Width-2*margin {
			side = t.Width - 2*margin
		}
		if room := t.Height - margin - y; side > room {
			side = room
		}
		if side >= qrMinSide {
			qr, err := qrcode.New(qrContent, qrcode.Medium)
			if err != nil {
				return nil, fmt.Errorf("badge: qr: %w", err)
			}
			code := qr.Image(side)
			x0 := (t.Width - side) / 2
			y0 := t.Height - margin - side
			draw.Draw(img, image.Rect(x0, y0, x0+side, y0+side), code, code.Bounds().Min, draw.Over)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("badge: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func clampScale(s int) int {
	switch {
	case s < 1:
		return 1
	case s > maxScale:
		return maxScale
	}
	return s
}

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

// textFace returns a Go Regular face at scale times the base size. Faces
// are not safe for concurrent use, so every line gets its own.
func textFace(scale int) (font.Face, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	if regularErr != nil {
		return nil, fmt.Errorf("badge: font: %w", regularErr)
	}
	f, err := opentype.NewFace(regular, &opentype.FaceOptions{
		Size:    float64(baseSize * scale),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("badge: font: %w", err)
	}
	return f, nil
}

// drawLine renders text horizontally centered and returns the height used.
// With band > 0 the line is centered vertically in [0, band), otherwise its
// top sits at y.
func drawLine(dst *image.RGBA, text string, scale, y, band int, col color.Color) (int, error) {
	width := dst.Bounds().Dx() - 2*margin
	scale = clampScale(scale)
	face, err := textFace(scale)
	if err != nil {
		return 0, err
	}
	for scale > 1 && measure(face, text) > width {
		face.Close()
		scale--
		if face, err = textFace(scale); err != nil {
			return 0, err
		}
	}
	defer face.Close()
	text = truncate(face, text, width)

	m := face.Metrics()
	h := m.Height.Ceil()
	if band > 0 {
		y = (band - h) / 2
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P((dst.Bounds().Dx()-measure(face, text))/2, y+m.Ascent.Ceil()),
	}
	d.DrawString(text)
	return h, nil
}

// truncate shortens text rune by rune until it fits width, ending it with
// an ellipsis.
func truncate(face font.Face, text string, width int) string {
	if measure(face, text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		s := strings.TrimRight(string(runes), " ") + ellipsis
		if measure(face, s) <= width {
			return s
		}
	}
	return ellipsis
}

func measure(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}

func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	switch len(s) {
	case 6:
		if _, err := fmt.Sscanf(s, "%2x%2x%2x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("badge: bad color %q", s)
		}
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("badge: bad color %q", s)
		}
		r, g, b = r*17, g*17, b*17
	default:
		return color.RGBA{}, fmt.Errorf("badge: bad color %q", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
