package render

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightCSSName is the file name of the generated code highlighting
// stylesheet, relative to the assets directory.
const HighlightCSSName = "highlight.css"

// HighlightCSS returns the stylesheet for the CSS classes emitted on code blocks.
func HighlightCSS() ([]byte, error) {
	style := styles.Get(HighlightStyle)
	var buf bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&buf, style); err != nil {
		return nil, fmt.Errorf("failed to write highlight stylesheet: %w", err)
	}
	return buf.Bytes(), nil
}
