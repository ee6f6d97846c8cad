// Package frontmatter splits content files into their YAML metadata block and
// Markdown body.
//
// A front matter block must open the file:
//
//	---
//	title: Hello
//	---
//	# Body
//
// Files without a well-formed block are returned as all body.
package frontmatter

import (
	"errors"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/MorrisonWill/willmorrison.com/internal/model"
)

// ErrMalformed is returned when a front matter block exists but is not a
// YAML mapping.
var ErrMalformed = errors.New("malformed front matter")

// The header needs at least one character, and the closing marker must end
// with a newline.
var blockPattern = regexp.MustCompile(`(?s)\A---\n(.+?)\n---\n(.*)`)

// Parse splits raw into front matter and body. It never returns a nil
// Frontmatter on success, and the body is always set.
func Parse(raw string) (model.ParsedContent, error) {
	m := blockPattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return model.ParsedContent{Frontmatter: model.Frontmatter{}, Content: raw}, nil
	}

	fm, err := Decode(m[1])
	if err != nil {
		return model.ParsedContent{}, err
	}
	return model.ParsedContent{Frontmatter: fm, Content: m[2]}, nil
}

// Decode deserializes a front matter header without its delimiters. Unquoted
// timestamps are kept as the strings they were written as.
func Decode(header string) (model.Frontmatter, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// Comment-only headers produce no document.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return model.Frontmatter{}, nil
	}
	keepTimestampsAsStrings(&doc)

	var fm model.Frontmatter
	if err := doc.Decode(&fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fm == nil {
		fm = model.Frontmatter{}
	}
	return fm, nil
}

func keepTimestampsAsStrings(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		keepTimestampsAsStrings(c)
	}
}
