package render

import (
	"fmt"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

type faceKey struct {
	style Style
	size  float64
}

// fontSet lazily builds faces at device size. Faces are not safe for
// concurrent use; the renderer serializes access.
type fontSet struct {
	regular, bold, italic, boldItalic, mono, monoBold *truetype.Font

	faces map[faceKey]font.Face
}

func loadFonts() (*fontSet, error) {
	parse := func(name string, ttf []byte) (*truetype.Font, error) {
		f, err := truetype.Parse(ttf)
		if err != nil {
			return nil, fmt.Errorf("parse %s font: %w", name, err)
		}
		return f, nil
	}
	fs := &fontSet{faces: make(map[faceKey]font.Face)}
	var err error
	if fs.regular, err = parse("regular", goregular.TTF); err != nil {
		return nil, err
	}
	if fs.bold, err = parse("bold", gobold.TTF); err != nil {
		return nil, err
	}
	if fs.italic, err = parse("italic", goitalic.TTF); err != nil {
		return nil, err
	}
	if fs.boldItalic, err = parse("bold italic", gobolditalic.TTF); err != nil {
		return nil, err
	}
	if fs.mono, err = parse("mono", gomono.TTF); err != nil {
		return nil, err
	}
	if fs.monoBold, err = parse("mono bold", gomonobold.TTF); err != nil {
		return nil, err
	}
	return fs, nil
}

// face returns a face for style at size device pixels.
func (fs *fontSet) face(style Style, size float64) font.Face {
	key := faceKey{style: style, size: size}
	if f, ok := fs.faces[key]; ok {
		return f
	}
	var ttf *truetype.Font
	switch {
	case style&StyleCode != 0 && style&StyleBold != 0:
		ttf = fs.monoBold
	case style&StyleCode != 0:
		ttf = fs.mono
	case style&StyleBold != 0 && style&StyleItalic != 0:
		ttf = fs.boldItalic
	case style&StyleBold != 0:
		ttf = fs.bold
	case style&StyleItalic != 0:
		ttf = fs.italic
	default:
		ttf = fs.regular
	}
	f := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	fs.faces[key] = f
	return f
}

// measure returns the advance width of s in device pixels.
func measure(f font.Face, s string) float64 {
	return float64(font.MeasureString(f, s)) / 64
}
