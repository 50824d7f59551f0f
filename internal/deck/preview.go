package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrPreviewConversion indicates the preview could not be rendered.
var ErrPreviewConversion = errors.New("preview conversion failed")

// Outcome placeholders use Private Use Area characters, which pass through
// goldmark untouched and need no raw HTML.
const (
	outcomeStart = "\uE000"
	outcomeEnd   = "\uE001"
)

// highlightStyle is the chroma style of preview code blocks.
const highlightStyle = "github"

var (
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// A rewritten annotation line, as left by the pipeline.
	outcomeAnnotation = regexp.MustCompile(`(?m)^<!-- \.element:[^\n]*?\bdoes="([^"]*)"[^\n]*-->[ \t]*$`)
)

const previewTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>%s</style>
</head>
<body>
%s
</body>
</html>`

// Previewer renders processed slide markdown as one static HTML page,
// slides separated by rules, each checked block marked with its outcome.
type Previewer struct {
	md goldmark.Markdown
}

// NewPreviewer creates a Previewer with GFM extensions and class-based
// syntax highlighting.
func NewPreviewer() *Previewer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithXHTML(),
		),
	)
	return &Previewer{md: md}
}

// Render converts markdown to a standalone page styled with css.
// Goldmark does not take a context, so conversion runs in a goroutine and
// the call returns early on cancellation.
func (p *Previewer) Render(ctx context.Context, markdown, title, css string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src := crlfOrCR.ReplaceAllString(markdown, "\n")
	// The blank line keeps a following "---" from turning the placeholder
	// into a setext heading.
	src = outcomeAnnotation.ReplaceAllString(src, outcomeStart+"${1}"+outcomeEnd+"\n")

	type result struct {
		body string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		if err := p.md.Convert([]byte(src), &buf); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrPreviewConversion, err)}
			return
		}
		body, err := markOutcomes(buf.String())
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrPreviewConversion, err)
		}
		done <- result{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		style := sanitizeCSS(highlightCSS() + "\n" + css)
		return fmt.Sprintf(previewTemplate, html.EscapeString(title), style, r.body), nil
	}
}

// highlightCSS returns the chroma stylesheet for class-based highlighting.
func highlightCSS() string {
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, styles.Get(highlightStyle)); err != nil {
		return ""
	}
	return buf.String()
}

// sanitizeCSS escapes sequences that could close the <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// markOutcomes replaces each placeholder paragraph with an outcome badge
// and adds the outcome as a class on the code block right before it.
func markOutcomes(fragment string) (string, error) {
	body := &nethtml.Node{Type: nethtml.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := nethtml.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}
	root := &nethtml.Node{Type: nethtml.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	markNode(root)

	var buf strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := nethtml.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func markNode(n *nethtml.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		token, ok := outcomeToken(c)
		if !ok {
			markNode(c)
			continue
		}
		if pre := previousElement(c); pre != nil && pre.DataAtom == atom.Pre {
			addClass(pre, token)
		}
		c.Attr = []nethtml.Attribute{{Key: "class", Val: "outcome " + token}}
		c.FirstChild.Data = token
	}
}

// outcomeToken reports the token of a <p> holding only a placeholder.
func outcomeToken(n *nethtml.Node) (string, bool) {
	if n.Type != nethtml.ElementNode || n.DataAtom != atom.P {
		return "", false
	}
	c := n.FirstChild
	if c == nil || c.NextSibling != nil || c.Type != nethtml.TextNode {
		return "", false
	}
	data := strings.TrimSpace(c.Data)
	if !strings.HasPrefix(data, outcomeStart) || !strings.HasSuffix(data, outcomeEnd) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(data, outcomeStart), outcomeEnd), true
}

func previousElement(n *nethtml.Node) *nethtml.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == nethtml.ElementNode {
			return s
		}
		if s.Type == nethtml.TextNode && strings.TrimSpace(s.Data) == "" {
			continue
		}
		return nil
	}
	return nil
}

func addClass(n *nethtml.Node, class string) {
	for i, a := range n.Attr {
		if a.Key == "class" {
			n.Attr[i].Val = strings.TrimSpace(a.Val + " " + class)
			return
		}
	}
	n.Attr = append(n.Attr, nethtml.Attribute{Key: "class", Val: class})
}

// Title returns the text of the first level-one heading of markdown, or
// the base name of file without extension.
func Title(markdown, file string) string {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			title = strings.TrimSpace(plainText(h, src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if title != "" {
		return title
	}
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
