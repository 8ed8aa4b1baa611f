package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// Verify parses and validates an encoded report and checks that it has the
// expected number of pages.
func Verify(pdf []byte, wantPages int) error {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), pdfConfig())
	if err != nil {
		return fmt.Errorf("pdfcpu read: %w", err)
	}
	if ctx.PageCount != wantPages {
		return fmt.Errorf("pdf has %d pages, layout produced %d", ctx.PageCount, wantPages)
	}
	return nil
}

// PageContents returns the raw content stream of every page.
func PageContents(pdf []byte) ([]string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), pdfConfig())
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}
	pages := make([]string, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		if r == nil {
			pages = append(pages, "")
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNr, err)
		}
		pages = append(pages, string(data))
	}
	return pages, nil
}
