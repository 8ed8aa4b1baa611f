// Package render lays report content out on fixed-size pages and encodes
// the result as PDF.
package render

import (
	"math"
	"strings"
	"unicode/utf8"
)

// A4 page geometry in points.
const (
	PageWidth    = 595.0
	PageHeight   = 842.0
	TopMargin    = 50.0
	SideMargin   = 50.0
	ContentWidth = PageWidth - 2*SideMargin
	// Budget is the lowest point a block may reach, measured from the top.
	Budget = PageHeight - TopMargin

	lineFactor  = 1.4
	glyphFactor = 0.5
)

// Kind selects how a block is drawn.
type Kind string

const (
	KindHeading Kind = "heading"
	KindText    Kind = "text"
	KindPanel   Kind = "panel"
	KindMeter   Kind = "meter"
	KindNotice  Kind = "notice"
)

// Block is one laid-out element. Y and Height are filled in by the layout.
type Block struct {
	Kind     Kind     `json:"kind"`
	Lines    []string `json:"lines"`
	FontSize float64  `json:"fontSize"`
	Bold     bool     `json:"bold,omitempty"`
	Color    string   `json:"color,omitempty"`
	Fill     string   `json:"fill,omitempty"`
	Indent   float64  `json:"indent,omitempty"`
	Padding  float64  `json:"padding,omitempty"`
	// SpaceBefore separates the block from the one above it.
	SpaceBefore float64 `json:"spaceBefore,omitempty"`
	// Progress is the filled share of a meter, in [0, 1].
	Progress float64 `json:"progress,omitempty"`

	Y      float64 `json:"y"`
	Height float64 `json:"height"`
}

func (b Block) lineHeight() float64 { return b.FontSize * lineFactor }

// measure returns the height of n lines of this block.
func (b Block) measure(n int) float64 {
	return b.SpaceBefore + 2*b.Padding + float64(n)*b.lineHeight()
}

// Bottom is the block's lowest point on its page.
func (b Block) Bottom() float64 { return b.Y + b.Height }

type Page struct {
	Number int     `json:"number"`
	Blocks []Block `json:"blocks"`
}

// Document is a rendered report ready for encoding.
type Document struct {
	Title string  `json:"title"`
	Pages []*Page `json:"pages"`
}

// layout is the pagination state: the page being filled and the vertical
// cursor on it. Every emitted block ends at or above Budget.
type layout struct {
	doc    *Document
	page   *Page
	cursor float64
}

func newLayout(title string) *layout {
	l := &layout{doc: &Document{Title: title}}
	l.newPage()
	return l
}

func (l *layout) newPage() {
	l.page = &Page{Number: len(l.doc.Pages) + 1}
	l.doc.Pages = append(l.doc.Pages, l.page)
	l.cursor = TopMargin
}

func (l *layout) remaining() float64 { return Budget - l.cursor }

// emit places a block at the cursor, breaking to a new page when it does not
// fit. Blocks taller than a full page are split line by line.
func (l *layout) emit(b Block) {
	if len(b.Lines) == 0 {
		return
	}
	if l.cursor == TopMargin {
		b.SpaceBefore = 0
	}
	h := b.measure(len(b.Lines))
	if h <= l.remaining() {
		l.place(b, h)
		return
	}
	if h <= Budget-TopMargin && l.cursor > TopMargin {
		l.newPage()
		b.SpaceBefore = 0
		l.place(b, b.measure(len(b.Lines)))
		return
	}
	l.split(b)
}

func (l *layout) place(b Block, h float64) {
	b.Y = l.cursor
	b.Height = h
	l.page.Blocks = append(l.page.Blocks, b)
	l.cursor += h
}

func (l *layout) split(b Block) {
	lines := b.Lines
	for len(lines) > 0 {
		chunk := b
		fit := int(math.Floor((l.remaining()-chunk.SpaceBefore-2*chunk.Padding)/chunk.lineHeight() + 1e-9))
		if fit < 1 {
			if l.cursor == TopMargin {
				// a single line cannot fit even on an empty page
				fit = 1
			} else {
				l.newPage()
				b.SpaceBefore = 0
				continue
			}
		}
		if fit > len(lines) {
			fit = len(lines)
		}
		chunk.Lines = lines[:fit:fit]
		l.place(chunk, chunk.measure(fit))
		lines = lines[fit:]
		b.SpaceBefore = 0
		if len(lines) > 0 {
			l.newPage()
		}
	}
}

func (l *layout) finish() *Document { return l.doc }

// wrap breaks text into lines that fit width at the given font size, using
// an estimated glyph width. Words longer than a line are hard-split.
func wrap(text string, fontSize, width float64) []string {
	maxChars := int(width / (fontSize * glyphFactor))
	if maxChars < 1 {
		maxChars = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		var line strings.Builder
		n := 0
		flush := func() {
			if n > 0 {
				lines = append(lines, line.String())
				line.Reset()
				n = 0
			}
		}
		for _, w := range words {
			for utf8.RuneCountInString(w) > maxChars {
				flush()
				r := []rune(w)
				lines = append(lines, string(r[:maxChars]))
				w = string(r[maxChars:])
			}
			wl := utf8.RuneCountInString(w)
			if n > 0 && n+1+wl > maxChars {
				flush()
			}
			if n > 0 {
				line.WriteByte(' ')
				n++
			}
			line.WriteString(w)
			n += wl
		}
		flush()
	}
	return lines
}
