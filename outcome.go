package md2slides

import (
	"fmt"
	"sort"
	"strings"
)

// Category classifies a wants expression.
type Category int

// Wants categories. Assertions fail the document when they do not hold;
// observations only report what happened.
const (
	CategoryNone Category = iota
	CategoryAssertCompiles
	CategoryAssertRuns
	CategoryAssertErrors
	CategoryAssertNotCompiles
	CategoryObserveRun
	CategoryObserveCompile
)

var categoryNames = map[Category]string{
	CategoryNone:              "none",
	CategoryAssertCompiles:    "assert-compiles",
	CategoryAssertRuns:        "assert-runs",
	CategoryAssertErrors:      "assert-errors",
	CategoryAssertNotCompiles: "assert-not-compiles",
	CategoryObserveRun:        "observe-run",
	CategoryObserveCompile:    "observe-compile",
}

// String returns the category name.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// IsAssertion reports whether c raises when its expectation does not hold.
func (c Category) IsAssertion() bool {
	switch c {
	case CategoryAssertCompiles, CategoryAssertRuns, CategoryAssertErrors, CategoryAssertNotCompiles:
		return true
	}
	return false
}

// categoryTags is the wants vocabulary, after normalization.
var categoryTags = map[string]Category{
	"compiles":         CategoryAssertCompiles,
	"compiling":        CategoryAssertCompiles,
	"running":          CategoryAssertRuns,
	"runs":             CategoryAssertRuns,
	"erroring":         CategoryAssertErrors,
	"errors":           CategoryAssertErrors,
	"error":            CategoryAssertErrors,
	"not-compiling":    CategoryAssertNotCompiles,
	"not-compiles":     CategoryAssertNotCompiles,
	"not-compile":      CategoryAssertNotCompiles,
	"does-not-compile": CategoryAssertNotCompiles,
	"compile-error":    CategoryAssertNotCompiles,
	"run":              CategoryObserveRun,
	"compile":          CategoryObserveCompile,
}

// Modifier tags.
const (
	tagNothing      = "nothing"
	tagAppend       = "append"
	tagAppendPrefix = "append-"
	tagNoMain       = "no-main"
)

// Wants is a parsed wants expression.
type Wants struct {
	Raw      string   // expression as written
	Tags     []string // normalized tokens
	Category Category
	Tag      string // the category tag that selected Category

	Nothing  bool   // skip the block entirely
	Append   bool   // extend a previous fragment
	AppendID string // fragment to extend; empty means LastFragment
	NoMain   bool   // compile only
}

// ParseWants tokenizes and classifies a wants expression.
// Tags are case-insensitive and underscores count as hyphens.
// Exactly one category tag must be present unless the expression
// contains "nothing", in which case classification is skipped.
func ParseWants(expr string) (Wants, error) {
	w := Wants{Raw: expr}
	normalized := strings.ReplaceAll(strings.ToLower(expr), "_", "-")
	w.Tags = strings.Fields(normalized)

	found := make(map[string]Category)
	for _, tag := range w.Tags {
		switch {
		case tag == tagNothing:
			w.Nothing = true
		case tag == tagNoMain:
			w.NoMain = true
		case tag == tagAppend:
			w.Append = true
		case strings.HasPrefix(tag, tagAppendPrefix):
			w.Append = true
			w.AppendID = strings.TrimPrefix(tag, tagAppendPrefix)
		}
		if c, ok := categoryTags[tag]; ok {
			found[tag] = c
		}
	}

	if w.Nothing {
		return w, nil
	}

	switch len(found) {
	case 0:
		return w, fmt.Errorf("%w: %q does not include one of %s", ErrAmbiguousWants, expr, vocabulary())
	case 1:
		for tag, c := range found {
			w.Tag, w.Category = tag, c
		}
		return w, nil
	default:
		tags := make([]string, 0, len(found))
		for tag := range found {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		return w, fmt.Errorf("%w: %q includes %d (not one) of %s: %s",
			ErrAmbiguousWants, expr, len(found), vocabulary(), strings.Join(tags, ", "))
	}
}

func vocabulary() string {
	tags := make([]string, 0, len(categoryTags))
	for tag := range categoryTags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, ", ")
}

// Outcome tokens, without the presentation prefix.
const (
	TokenCompiling    = "compiling"
	TokenNotCompiling = "not-compiling"
	TokenRunning      = "running"
	TokenErroring     = "erroring"
)

// AssertionError reports a wants expectation that did not hold.
// It carries the diagnostics needed to fix the slide without re-running.
type AssertionError struct {
	Message  string
	Want     string
	Category Category
	Result   *ExecutionResult
}

// Error formats the message with compiler and run diagnostics.
func (e *AssertionError) Error() string {
	var compileMsg, runMsg string
	if c := e.Result.Compile; c != nil && !c.Succeeded() {
		compileMsg = c.Output
	}
	if r := e.Result.Run; r != nil && !r.Succeeded() {
		runMsg = fmt.Sprintf("(exit status %d)\n%s", r.Status, r.Output)
	}
	return fmt.Sprintf("%s because wants=%q\n\nCOMPILE:\n%s\n\nRUNNING:\n%s", e.Message, e.Want, compileMsg, runMsg)
}

// Unwrap returns ErrAssertion.
func (e *AssertionError) Unwrap() error {
	return ErrAssertion
}

// ResolveOutcome checks result against w and returns the outcome token.
// Assertion categories return an *AssertionError when they do not hold;
// observation categories never fail.
func ResolveOutcome(result *ExecutionResult, w Wants) (string, error) {
	if err := result.Validate(); err != nil {
		return "", err
	}

	fail := func(msg string) (string, error) {
		return "", &AssertionError{Message: msg, Want: w.Tag, Category: w.Category, Result: result}
	}

	switch w.Category {
	case CategoryAssertCompiles:
		if !result.Compiled() {
			return fail("code did not compile but expected to")
		}
		return TokenCompiling, nil
	case CategoryAssertRuns:
		if !result.Ran() {
			return fail("code did not run but expected to")
		}
		return TokenRunning, nil
	case CategoryAssertErrors:
		if result.Ran() {
			return fail("code ran but expected to error")
		}
		return TokenErroring, nil
	case CategoryAssertNotCompiles:
		if result.Compiled() {
			return fail("code compiled but expected to not compile")
		}
		return TokenNotCompiling, nil
	case CategoryObserveRun:
		switch {
		case result.Ran():
			return TokenRunning, nil
		case result.Compiled():
			return TokenErroring, nil
		default:
			return TokenNotCompiling, nil
		}
	case CategoryObserveCompile:
		if result.Compiled() {
			return TokenCompiling, nil
		}
		return TokenNotCompiling, nil
	}
	return "", fmt.Errorf("%w: %q has no category", ErrAmbiguousWants, w.Raw)
}
