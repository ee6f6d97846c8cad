package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ContentType is one of the two categories of content file.
type ContentType string

const (
	Pages ContentType = "pages"
	Posts ContentType = "posts"
)

// ContentTypes lists every content type in build order.
var ContentTypes = []ContentType{Pages, Posts}

// Template returns the name of the template a content type renders through.
func (t ContentType) Template() string {
	if t == Posts {
		return "post.html"
	}
	return "page.html"
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	return t == Pages || t == Posts
}

// RenderMode selects how content is resolved for a request.
type RenderMode int

const (
	// ModeDevelopment renders Markdown on every request.
	ModeDevelopment RenderMode = iota
	// ModeProduction serves the HTML written by a previous build.
	ModeProduction
)

func (m RenderMode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "development"
}

// ParseRenderMode maps a mode name to a RenderMode. An empty name is development.
func ParseRenderMode(s string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dev", "development":
		return ModeDevelopment, nil
	case "prod", "production":
		return ModeProduction, nil
	}
	return ModeDevelopment, fmt.Errorf("unknown mode %q: must be development or production", s)
}

// Frontmatter is the metadata block at the top of a content file.
// Keys and values pass through to templates unchanged.
type Frontmatter map[string]any

// String returns the value of key when it is a string.
func (f Frontmatter) String(key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

// Date interprets the "date" key as a timestamp. Missing or unparseable
// dates return the zero time.
func (f Frontmatter) Date() time.Time {
	switch v := f["date"].(type) {
	case time.Time:
		return v
	case string:
		t, err := dateparse.ParseIn(strings.TrimSpace(v), time.UTC)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	return time.Time{}
}

// Tags returns the "tags" key as strings, skipping non-string entries.
func (f Frontmatter) Tags() []string {
	raw, ok := f["tags"].([]any)
	if !ok {
		return nil
	}
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if s, ok := t.(string); ok {
			tags = append(tags, s)
		}
	}
	return tags
}

// ParsedContent is a content file split into its front matter and body.
type ParsedContent struct {
	Frontmatter Frontmatter
	Content     string
}

// PostSummary is a post as shown on the blog index. It carries no body.
type PostSummary struct {
	Slug        string
	Frontmatter Frontmatter
}

// RenderedPage is a response-ready HTML document.
type RenderedPage struct {
	Body        []byte
	ContentType string
}

// HTMLContentType is the content type of every rendered page.
const HTMLContentType = "text/html; charset=utf-8"

// NewHTMLPage wraps body as a text/html page.
func NewHTMLPage(body []byte) *RenderedPage {
	return &RenderedPage{Body: body, ContentType: HTMLContentType}
}

// SiteData holds site-wide data made available to every template.
type SiteData struct {
	Params map[string]interface{}
}
