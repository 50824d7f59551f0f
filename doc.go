// Package md2slides verifies the code samples embedded in markdown slide
// decks and rewrites their annotations with the observed outcome.
//
// # Quick Start
//
// Build a registry, register handlers, and process a document:
//
//	reg := md2slides.NewRegistry()
//	if err := reg.Register("cpp", nativeHandler); err != nil {
//	    log.Fatal(err)
//	}
//
//	proc, err := md2slides.NewProcessor(reg, md2slides.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := proc.Process(ctx, md2slides.Document{
//	    Name:     "intro.md",
//	    Markdown: content,
//	    Metadata: md2slides.Metadata{md2slides.MetaFilename: "intro"},
//	})
//
// # Directives
//
// A directive is a fenced code block immediately followed by a reveal.js
// element annotation carrying a wants expression:
//
//	```cpp
//	std::cout << "hi";
//	```
//	<!-- .element: class="fragment" wants="running" id="greet" -->
//
// Fields of the annotation appear in that fixed order; class and id are
// optional. Annotations that deviate from the grammar are left untouched and
// reported as warnings.
//
// # Wants Expressions
//
// A wants expression holds exactly one category tag plus optional modifiers:
//
//   - compiles, runs, errors, not-compiling: assertions that abort the
//     document with an *AssertionError when they do not hold
//   - compile, run: observations that only record what happened
//   - append, append-<id>: prefix the code with a previously stored fragment
//   - no-main: compile to an object file without an entry point
//   - nothing: leave the block exactly as written
//
// After a successful run the annotation reads does="<prefix>-<outcome>",
// where outcome is one of compiling, not-compiling, running or erroring.
// The rewritten keyword makes the output safe to process again.
//
// # Handlers
//
// Handlers implement Handler and are looked up by canonical Language.
// The internal/native, internal/pyexec and internal/goexec packages provide
// handlers for C/C++, Python and Go; cmd/md2slides wires them at startup.
//
// # Errors
//
// Process returns a *BlockError naming the document, line and language of
// the failing directive. Use errors.Is with the sentinel errors of this
// package (ErrAssertion, ErrUnknownLanguage, ErrFragmentNotFound, ...) to
// classify the cause.
package md2slides
