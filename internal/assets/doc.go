// Package assets provides the HTML templates and CSS styles used to build
// slide decks.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (defaults)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the CLI. It tries the custom directory
// first and falls back to the embedded defaults when an asset is missing,
// so a deck author can override the slides template and keep the index.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css           # e.g. preview.css
//	└── templates/
//	    └── {name}.html          # e.g. slides.html, index.html
//
// # Templates
//
// The slides template is filled by placeholder substitution, not by
// html/template, because slide markdown routinely contains "{{":
//
//	@__TITLE__@            deck title
//	@__REVEAL_JS_PATH__@   reveal.js directory or URL, with trailing slash
//	@__MARKDOWN INPUT__@   processed markdown
//
// The index template is an html/template receiving IndexData.
//
// # Security
//
// Asset names are validated to prevent path traversal.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
