package deck

import (
	"path/filepath"
	"strings"

	"github.com/alnah/go-md2slides/internal/assets"
	"github.com/alnah/go-md2slides/internal/fileutil"
)

// Page holds the values substituted into the slides template.
type Page struct {
	Title    string
	RevealJS string // directory or URL ending in "/"
	Markdown string
}

// Assemble wraps markdown with the optional begin and end slides.
func Assemble(begin, markdown, end string) string {
	if begin != "" {
		markdown = begin + SlideSeparator + markdown
	}
	if end != "" {
		markdown = markdown + SlideSeparator + end
	}
	return markdown
}

// Fill substitutes the page into a slides template. The reveal.js path is
// filled first so markdown that happens to contain a placeholder is
// left alone.
func Fill(template string, p Page) string {
	out := strings.ReplaceAll(template, assets.PlaceholderRevealJS, p.RevealJS)
	out = strings.ReplaceAll(out, assets.PlaceholderTitle, p.Title)
	return strings.Replace(out, assets.PlaceholderMarkdown, p.Markdown, 1)
}

// RevealHref makes a reveal.js location usable from a deck written at
// output. URLs and absolute directories only gain a trailing slash;
// relative directories are made relative to the deck's directory.
func RevealHref(reveal, output string) string {
	if reveal == "" {
		return ""
	}
	if fileutil.IsURL(reveal) {
		return withSlash(reveal)
	}
	if !filepath.IsAbs(reveal) {
		if rel, err := filepath.Rel(filepath.Dir(output), reveal); err == nil {
			reveal = rel
		}
	}
	return withSlash(filepath.ToSlash(reveal))
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
