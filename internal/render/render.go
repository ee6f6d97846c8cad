// Package render turns parsed content into HTML pages through goldmark and
// html/template.
package render

import (
	"bytes"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MorrisonWill/willmorrison.com/internal/model"
)

// BlogTemplate renders the post listing.
const BlogTemplate = "blog.html"

// Renderer combines the Markdown converter and template engine. It holds no
// per-request state.
type Renderer struct {
	md   goldmark.Markdown
	tpl  *Engine
	site *model.SiteData
}

// New returns a Renderer whose templates are read from fs.
func New(fs afero.Fs, cfg TemplateConfig, site *model.SiteData) *Renderer {
	if site == nil {
		site = &model.SiteData{Params: map[string]interface{}{}}
	}
	return &Renderer{
		md:   NewMarkdown(),
		tpl:  NewEngine(fs, cfg),
		site: site,
	}
}

// RenderContent converts the body of a content file to HTML and executes the
// template for its content type.
func (r *Renderer) RenderContent(t model.ContentType, slug string, parsed model.ParsedContent) ([]byte, error) {
	html, err := r.Markdown(parsed.Content)
	if err != nil {
		return nil, err
	}

	data := model.PageData{
		Title:       Title(parsed.Frontmatter, slug),
		Slug:        slug,
		Content:     html,
		Frontmatter: parsed.Frontmatter,
		Site:        r.site,
	}
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, t.Template(), data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderBlog executes the listing template.
func (r *Renderer) RenderBlog(posts []model.PostSummary) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, BlogTemplate, model.BlogData{Posts: posts, Site: r.site}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Title is the front matter title, or the slug title-cased when there is none.
func Title(fm model.Frontmatter, slug string) string {
	if title := fm.String("title"); title != "" {
		return title
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(words)
}
