package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

// Style is a bit set of inline text styles.
type Style uint8

const (
	StyleBold Style = 1 << iota
	StyleItalic
	StyleCode
)

// Run is a span of text sharing one style.
type Run struct {
	Text  string
	Style Style
}

var md = goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))

var blockTags = map[string]bool{
	"p": true, "div": true, "ul": true, "ol": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// ParseInline converts inline markdown (bold, italic, code spans) into styled
// runs. Tags the renderer does not understand are kept as literal text, so
// content like "List<T>" survives.
func ParseInline(s string) []Run {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return []Run{{Text: s}}
	}

	var (
		runs                []Run
		bold, italic, code  int
		pendingBreak, begun bool
	)
	style := func() Style {
		var st Style
		if bold > 0 {
			st |= StyleBold
		}
		if italic > 0 {
			st |= StyleItalic
		}
		if code > 0 {
			st |= StyleCode
		}
		return st
	}
	emit := func(text string) {
		if text == "" {
			return
		}
		if pendingBreak && begun {
			text = "\n" + text
		}
		pendingBreak = false
		begun = true
		st := style()
		if n := len(runs); n > 0 && runs[n-1].Style == st {
			runs[n-1].Text += text
			return
		}
		runs = append(runs, Run{Text: text, Style: st})
	}
	adjust := func(counter *int, start bool) {
		if start {
			*counter++
		} else if *counter > 0 {
			*counter--
		}
	}

	z := xhtml.NewTokenizer(&buf)
	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			return trimRuns(runs)
		case xhtml.TextToken:
			text := string(z.Text())
			if strings.TrimSpace(text) == "" && strings.Contains(text, "\n") {
				continue
			}
			emit(text)
		case xhtml.StartTagToken, xhtml.EndTagToken, xhtml.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			start := tt != xhtml.EndTagToken
			switch {
			case tag == "strong" || tag == "b":
				adjust(&bold, start)
			case tag == "em" || tag == "i":
				adjust(&italic, start)
			case tag == "code":
				adjust(&code, start)
			case tag == "a" || tag == "span" || tag == "del":
			case tag == "br":
				emit("\n")
			case tag == "hr":
				pendingBreak = true
			case tag == "li":
				if start {
					pendingBreak = true
					emit("• ")
				}
			case blockTags[tag]:
				pendingBreak = true
			default:
				emit(string(z.Raw()))
			}
		}
	}
}

// PlainText flattens runs back to a string.
func PlainText(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func trimRuns(runs []Run) []Run {
	for len(runs) > 0 {
		runs[len(runs)-1].Text = strings.TrimRight(runs[len(runs)-1].Text, " \t\n")
		if runs[len(runs)-1].Text != "" {
			break
		}
		runs = runs[:len(runs)-1]
	}
	return runs
}
