package downloads

import (
	"errors"
	"fmt"
	"io"

	pdflib "github.com/ledongthuc/pdf"
)

// PageSize is a page's MediaBox width and height in points.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info summarizes a PDF's page layout.
type Info struct {
	Pages int        `json:"pages"`
	Sizes []PageSize `json:"sizes"`
}

// Inspect parses a PDF and reports page count and per-page MediaBox size.
func Inspect(r io.ReaderAt, size int64) (info Info, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parse pdf: %v", p)
		}
	}()
	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return Info{}, fmt.Errorf("parse pdf: %w", err)
	}
	info.Pages = reader.NumPage()
	for i := 1; i <= info.Pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			return info, fmt.Errorf("page %d missing", i)
		}
		ps, err := mediaBox(page.V)
		if err != nil {
			return info, fmt.Errorf("page %d: %w", i, err)
		}
		info.Sizes = append(info.Sizes, ps)
	}
	return info, nil
}

// mediaBox resolves the page's MediaBox, which may be inherited from an
// ancestor in the page tree.
func mediaBox(v pdflib.Value) (PageSize, error) {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdflib.Array && box.Len() == 4 {
			llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
			urx, ury := box.Index(2).Float64(), box.Index(3).Float64()
			return PageSize{Width: urx - llx, Height: ury - lly}, nil
		}
		v = v.Key("Parent")
	}
	return PageSize{}, errors.New("no MediaBox")
}
