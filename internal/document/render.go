package document

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
)

// ErrFontUnavailable is returned when the configured font can not be loaded.
var ErrFontUnavailable = errors.New("document font unavailable")

const (
	fontFamily = "listfont"
	creator    = "foodgram"
)

// DejaVu Sans covers Latin, Cyrillic and Greek, so it is the default.
//
//go:embed fonts/DejaVuSans.ttf
var defaultFont []byte

// Renderer turns laid out pages into a PDF document.
type Renderer struct {
	metrics  Metrics
	fontPath string
}

// NewRenderer creates a Renderer. fontPath points to a TrueType font that is
// embedded into every document; when empty the bundled DejaVu Sans is used.
// The font is read on every Render.
func NewRenderer(fontPath string, metrics Metrics) *Renderer {
	return &Renderer{metrics: metrics, fontPath: fontPath}
}

// Metrics returns the geometry pages should be laid out with.
func (r *Renderer) Metrics() Metrics {
	return r.metrics
}

// Render draws every page and returns the finished document, positioned at
// its first byte.
func (r *Renderer) Render(title string, pages []Page) (*bytes.Reader, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: r.metrics.PageWidth, Ht: r.metrics.PageHeight},
	})
	pdf.SetTitle(title, true)
	pdf.SetCreator(creator, true)

	if err := r.loadFont(pdf); err != nil {
		return nil, err
	}

	for _, page := range pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			pdf.SetFont(fontFamily, "", line.FontSize)
			// fpdf measures y from the top edge.
			pdf.Text(line.X, r.metrics.PageHeight-line.Y, line.Text)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func (r *Renderer) loadFont(pdf *fpdf.Fpdf) (err error) {
	data, source := defaultFont, "bundled DejaVu Sans"
	if r.fontPath != "" {
		if data, err = os.ReadFile(r.fontPath); err != nil {
			return fmt.Errorf("%w: %v", ErrFontUnavailable, err)
		}
		source = r.fontPath
	}
	if !isTrueType(data) {
		return fmt.Errorf("%w: %s is not a TrueType font", ErrFontUnavailable, source)
	}

	// fpdf indexes into the font tables without bounds checks.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %s is malformed: %v", ErrFontUnavailable, source, p)
		}
	}()

	pdf.AddUTF8FontFromBytes(fontFamily, "", data)
	if pdf.Err() {
		return fmt.Errorf("%w: %s: %v", ErrFontUnavailable, source, pdf.Error())
	}
	// A font fpdf fails to parse is skipped without setting an error.
	if pdf.GetFontDesc(fontFamily, "").Ascent == 0 {
		return fmt.Errorf("%w: %s could not be parsed", ErrFontUnavailable, source)
	}
	return nil
}

func isTrueType(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	switch string(data[:4]) {
	case "\x00\x01\x00\x00", "true":
		return true
	}
	return false
}
