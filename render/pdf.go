package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

const (
	fontRegular = "Helvetica"
	fontBold    = "Helvetica-Bold"

	// descentFactor moves a baseline down to the bottom of the glyph box,
	// which is where pdfcpu anchors bottom-aligned text.
	descentFactor = 0.21

	meterOffset = 300.0
	meterWidth  = ContentWidth - meterOffset
)

var configOnce sync.Once

// pdfConfig returns a pdfcpu configuration that never touches the user's
// config directory.
func pdfConfig() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	return model.NewDefaultConfiguration()
}

// Sanitize normalizes text to characters the standard PDF fonts can show.
// Control characters become spaces and anything outside WinAnsi becomes '?'.
func Sanitize(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case unicode.IsControl(r) || unicode.IsSpace(r):
			b.WriteByte(' ')
		case r == unicode.ReplacementChar:
			b.WriteByte('?')
		default:
			if _, ok := charmap.Windows1252.EncodeRune(r); ok {
				b.WriteRune(r)
			} else {
				b.WriteByte('?')
			}
		}
	}
	return b.String()
}

// The types below mirror the subset of the pdfcpu create JSON we emit.
// Coordinates use an upper-left origin, matching the layout.

type createSpec struct {
	Paper  string                `json:"paper"`
	Origin string                `json:"origin"`
	Pages  map[string]createPage `json:"pages"`
}

type createPage struct {
	Content createContent `json:"content"`
}

type createContent struct {
	Boxes []createBox  `json:"box,omitempty"`
	Texts []createText `json:"text,omitempty"`
}

type createBox struct {
	Pos     [2]float64 `json:"pos"`
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	FillCol string     `json:"fillCol"`
}

type createText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  createFont `json:"font"`
}

type createFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Col  string `json:"col,omitempty"`
}

// EncodePDF renders the laid-out document through pdfcpu using the
// Helvetica core fonts.
func EncodePDF(doc *Document) ([]byte, error) {
	spec, err := json.Marshal(createJSON(doc))
	if err != nil {
		return nil, fmt.Errorf("encode page description: %w", err)
	}
	var out bytes.Buffer
	if err := api.Create(nil, bytes.NewReader(spec), &out, pdfConfig()); err != nil {
		return nil, fmt.Errorf("pdfcpu create: %w", err)
	}
	return out.Bytes(), nil
}

// createJSON converts the layout into a pdfcpu page description. An empty
// document still yields one blank page.
func createJSON(doc *Document) createSpec {
	spec := createSpec{Paper: "A4P", Origin: "UpperLeft", Pages: map[string]createPage{}}
	pages := doc.Pages
	if len(pages) == 0 {
		pages = []*Page{{Number: 1}}
	}
	for i, p := range pages {
		spec.Pages[strconv.Itoa(i+1)] = createPage{Content: pageContent(p)}
	}
	return spec
}

func pageContent(p *Page) createContent {
	var c createContent
	for _, b := range p.Blocks {
		top := b.Y + b.SpaceBefore
		boxHeight := b.Height - b.SpaceBefore
		x := SideMargin + b.Indent

		switch b.Kind {
		case KindPanel:
			c.addBox(b.Fill, x, top, ContentWidth-b.Indent, boxHeight)
		case KindMeter:
			barHeight := b.FontSize * 0.8
			barTop := top + (boxHeight-barHeight)/2
			c.addBox(b.Fill, x+meterOffset, barTop, meterWidth, barHeight)
			progress := math.Min(b.Progress, 1)
			if progress > 0 {
				c.addBox(progressColor(progress), x+meterOffset, barTop, meterWidth*progress, barHeight)
			}
		}

		font := createFont{Name: fontRegular, Size: int(math.Round(b.FontSize)), Col: b.Color}
		if b.Bold {
			font.Name = fontBold
		}
		lh := b.lineHeight()
		for i, line := range b.Lines {
			if strings.TrimSpace(line) == "" {
				continue
			}
			baseline := top + b.Padding + float64(i)*lh + b.FontSize
			c.Texts = append(c.Texts, createText{
				Value: escapePlaceholders(line),
				Pos:   [2]float64{x + b.Padding, baseline + b.FontSize*descentFactor},
				Font:  font,
			})
		}
	}
	return c
}

// addBox adds a filled rectangle given its top-left corner in layout
// coordinates. pdfcpu positions boxes by their lower-left corner.
func (c *createContent) addBox(color string, x, top, width, height float64) {
	if color == "" || width <= 0 || height <= 0 {
		return
	}
	c.Boxes = append(c.Boxes, createBox{
		Pos:     [2]float64{x, top + height},
		Width:   width,
		Height:  height,
		FillCol: color,
	})
}

func progressColor(p float64) string {
	switch {
	case p >= 0.9:
		return "#16a34a"
	case p >= 0.6:
		return "#2563eb"
	default:
		return "#dc2626"
	}
}

// escapePlaceholders keeps pdfcpu from expanding %p, %P, %t and %v in
// report text. A doubled percent prints one; a space separates it from a
// following placeholder letter since pdfcpu has no escape for that case.
func escapePlaceholders(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if r != '%' {
			b.WriteRune(r)
			continue
		}
		b.WriteString("%%")
		if i+1 < len(runes) && strings.ContainsRune("pPtv%", runes[i+1]) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
