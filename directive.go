package md2slides

import (
	"strings"
	"unicode/utf8"
)

// Directive grammar limits.
const (
	fence             = "```"
	annotationOpen    = "<!-- .element: "
	annotationClose   = "-->"
	classField        = `class="`
	wantsKeyword      = "wants"
	idField           = "id="
	minTagLength      = 2
	maxTagLength      = MaxLanguageLength
	maxTrailerLength  = 40
	minCodeLength     = 3
	unmatchedWantsKey = "wants="
)

// NeutralKeyword replaces "wants" in processed annotations so a second run
// over the output does not execute anything again.
const NeutralKeyword = "does"

// Span is a half-open byte range [Start, End) into the document.
type Span struct {
	Start int
	End   int
}

// Directive is one annotated fenced code block:
//
//	```<tag>[trailer]
//	<code>
//	```
//	<!-- .element: [class="…"] wants="…" [id="…"] -->
type Directive struct {
	Span           // whole match, fence opener through "-->"
	Line       int // 1-based line of the fence opener
	Tag        string
	Trailer    string
	Code       string
	Class      string
	HasClass   bool
	Keyword    Span // the literal "wants"
	Wants      string
	WantsSpan  Span
	ID         string
	HasID      bool
	annotation int // offset of the annotation line
}

// ParseDirectives returns every directive in doc, left to right.
// Blocks whose annotation deviates from the grammar (field order, missing
// wants, backticks in the body) are not returned; FindUnmatched reports them.
func ParseDirectives(doc string) []Directive {
	var directives []Directive
	line := 1
	pos := 0
	for pos < len(doc) {
		if d, ok := parseDirectiveAt(doc, pos); ok {
			d.Line = line
			directives = append(directives, d)
			line += strings.Count(doc[pos:d.End], "\n")
			pos = d.End
		}
		next := strings.IndexByte(doc[pos:], '\n')
		if next < 0 {
			break
		}
		pos += next + 1
		line++
	}
	return directives
}

// parseDirectiveAt parses a directive whose fence opener starts at pos.
func parseDirectiveAt(doc string, pos int) (Directive, bool) {
	var d Directive
	if pos > 0 && doc[pos-1] != '\n' {
		return d, false
	}
	if !strings.HasPrefix(doc[pos:], fence) {
		return d, false
	}
	d.Start = pos
	i := pos + len(fence)

	// Language tag.
	tagStart := i
	for i < len(doc) && i-tagStart < maxTagLength && isTagByte(doc[i]) {
		i++
	}
	if i-tagStart < minTagLength {
		return d, false
	}
	d.Tag = doc[tagStart:i]

	// Same-line trailer.
	eol := strings.IndexByte(doc[i:], '\n')
	if eol < 0 {
		return d, false
	}
	trailer := strings.TrimSuffix(doc[i:i+eol], "\r")
	if utf8.RuneCountInString(trailer) > maxTrailerLength {
		return d, false
	}
	d.Trailer = trailer
	i += eol + 1

	// Body: everything up to the first backtick.
	closer := strings.IndexByte(doc[i:], '`')
	if closer < 0 {
		return d, false
	}
	d.Code = doc[i : i+closer]
	if utf8.RuneCountInString(d.Code) < minCodeLength {
		return d, false
	}
	i += closer

	// Closing fence, alone at the end of its line.
	if !strings.HasPrefix(doc[i:], fence) {
		return d, false
	}
	i += len(fence)
	i, ok := skipNewline(doc, i)
	if !ok {
		return d, false
	}

	// Annotation.
	d.annotation = i
	if !strings.HasPrefix(doc[i:], annotationOpen) {
		return d, false
	}
	i += len(annotationOpen)

	if strings.HasPrefix(doc[i:], classField) {
		i += len(classField)
		end, ok := scanQuoted(doc, i, '"', isClassByte)
		if !ok {
			return d, false
		}
		d.Class, d.HasClass = doc[i:end], true
		i = skipBlanks(doc, end+1)
	}

	if !strings.HasPrefix(doc[i:], wantsKeyword+`="`) {
		return d, false
	}
	d.Keyword = Span{Start: i, End: i + len(wantsKeyword)}
	i += len(wantsKeyword) + 2
	end, ok := scanQuoted(doc, i, '"', isWantsByte)
	if !ok {
		return d, false
	}
	d.Wants = doc[i:end]
	d.WantsSpan = Span{Start: i, End: end}
	i = end + 1

	gap := skipBlanks(doc, i)
	if gap > i && strings.HasPrefix(doc[gap:], idField) {
		id, next, ok := scanID(doc, gap+len(idField))
		if !ok {
			return d, false
		}
		d.ID, d.HasID = id, true
		i = next
		gap = skipBlanks(doc, i)
	}

	if gap == i || !strings.HasPrefix(doc[gap:], annotationClose) {
		return d, false
	}
	d.End = gap + len(annotationClose)
	return d, true
}

// scanQuoted returns the offset of the closing quote, requiring every byte
// before it to satisfy allowed.
func scanQuoted(doc string, i int, quote byte, allowed func(byte) bool) (int, bool) {
	for ; i < len(doc); i++ {
		if doc[i] == quote {
			return i, true
		}
		if !allowed(doc[i]) {
			return 0, false
		}
	}
	return 0, false
}

// scanID reads a quoted or bare id value starting at i.
func scanID(doc string, i int) (id string, next int, ok bool) {
	if i >= len(doc) {
		return "", 0, false
	}
	if q := doc[i]; q == '"' || q == '\'' {
		end, ok := scanQuoted(doc, i+1, q, isIDByte)
		if !ok || end == i+1 {
			return "", 0, false
		}
		return doc[i+1 : end], end + 1, true
	}
	start := i
	for i < len(doc) && isIDByte(doc[i]) {
		i++
	}
	if i == start {
		return "", 0, false
	}
	return doc[start:i], i, true
}

func skipNewline(doc string, i int) (int, bool) {
	if strings.HasPrefix(doc[i:], "\r\n") {
		return i + 2, true
	}
	if strings.HasPrefix(doc[i:], "\n") {
		return i + 1, true
	}
	return 0, false
}

func skipBlanks(doc string, i int) int {
	for i < len(doc) && (doc[i] == ' ' || doc[i] == '\t') {
		i++
	}
	return i
}

func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isWord(b byte) bool   { return isLetter(b) || isDigit(b) || b == '_' }

func isTagByte(b byte) bool   { return isLetter(b) || b == '+' }
func isClassByte(b byte) bool { return isWord(b) || b == '-' || b == ' ' }
func isWantsByte(b byte) bool { return isWord(b) || b == '-' || b == ' ' || b == '\t' }
func isIDByte(b byte) bool    { return isWord(b) || b == '-' }

// FindUnmatched reports every line containing "wants=" that lies outside
// the given directives. These are annotations the grammar rejected.
func FindUnmatched(doc string, directives []Directive) []Warning {
	var warnings []Warning
	offset := 0
	for n, text := range strings.SplitAfter(doc, "\n") {
		start, end := offset, offset+len(text)
		offset = end
		if !strings.Contains(text, unmatchedWantsKey) {
			continue
		}
		if overlapsAny(start, end, directives) {
			continue
		}
		warnings = append(warnings, Warning{
			Kind: WarningUnmatched,
			Line: n + 1,
			Text: strings.TrimSpace(text),
		})
	}
	return warnings
}

func overlapsAny(start, end int, directives []Directive) bool {
	for _, d := range directives {
		if start < d.End && end > d.Start {
			return true
		}
	}
	return false
}
