package render

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorrisonWill/willmorrison.com/internal/model"
)

const postTemplate = `<article><h1>{{.Title}}</h1>` +
	`{{with .Frontmatter.date}}<time>{{.}}</time>{{end}}` +
	`{{range tags .Frontmatter}}<span class="tag">{{.}}</span>{{end}}` +
	`<div class="post-content">{{.Content}}</div></article>`

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func newTestFS(t *testing.T) afero.Fs {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "templates/post.html", postTemplate)
	writeFile(t, fs, "templates/page.html", `<main>{{.Content}}</main>`)
	writeFile(t, fs, "templates/blog.html",
		`{{range .Posts}}<a href="/blog/{{.Slug}}">{{.Frontmatter.title}}</a>{{end}}`)
	return fs
}

func TestMarkdown(t *testing.T) {
	r := New(afero.NewMemMapFs(), TemplateConfig{Dir: "templates"}, nil)

	html, err := r.Markdown("# Hi there\n\nSome *text* and <span>raw</span>.\n")
	require.NoError(t, err)
	assert.Contains(t, string(html), `<h1 id="hi-there">Hi there</h1>`)
	assert.Contains(t, string(html), "<em>text</em>")
	assert.Contains(t, string(html), "<span>raw</span>")

	html, err = r.Markdown("```go\nfunc main() {}\n```\n")
	require.NoError(t, err)
	assert.Contains(t, string(html), `class="chroma"`)

	html, err = r.Markdown("")
	require.NoError(t, err)
	assert.Empty(t, html)
}

func TestRenderContent(t *testing.T) {
	r := New(newTestFS(t), TemplateConfig{Dir: "templates"}, nil)

	out, err := r.RenderContent(model.Posts, "hello", model.ParsedContent{
		Frontmatter: model.Frontmatter{"title": "Hello", "date": "2024-03-01", "tags": []any{"intro"}},
		Content:     "# Hi there\n",
	})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, "<time>2024-03-01</time>")
	assert.Contains(t, html, `<span class="tag">intro</span>`)
	assert.Contains(t, html, `<h1 id="hi-there">Hi there</h1>`)
}

func TestRenderBlog(t *testing.T) {
	r := New(newTestFS(t), TemplateConfig{Dir: "templates"}, nil)

	out, err := r.RenderBlog([]model.PostSummary{
		{Slug: "b", Frontmatter: model.Frontmatter{"title": "Second"}},
		{Slug: "a", Frontmatter: model.Frontmatter{"title": "First"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `<a href="/blog/b">Second</a><a href="/blog/a">First</a>`, string(out))
}

func TestEngineCache(t *testing.T) {
	tests := []struct {
		name    string
		noCache bool
		want    string
	}{
		{name: "cached", noCache: false, want: "v1"},
		{name: "no cache", noCache: true, want: "v2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, "templates/page.html", "v1")
			e := NewEngine(fs, TemplateConfig{Dir: "templates", NoCache: tt.noCache})

			var buf bytes.Buffer
			require.NoError(t, e.Execute(&buf, "page.html", nil))
			assert.Equal(t, "v1", buf.String())

			writeFile(t, fs, "templates/page.html", "v2")
			buf.Reset()
			require.NoError(t, e.Execute(&buf, "page.html", nil))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEngineLayoutAndPartials(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "templates/base.html", `<html><body>{{template "nav" .}}{{template "main" .}}</body></html>`)
	writeFile(t, fs, "templates/partials/nav.html", `{{define "nav"}}<nav>home</nav>{{end}}`)
	writeFile(t, fs, "templates/page.html", `{{define "main"}}<main>{{.}}</main>{{end}}{{template "base.html" .}}`)

	var buf bytes.Buffer
	e := NewEngine(fs, TemplateConfig{Dir: "templates"})
	require.NoError(t, e.Execute(&buf, "page.html", "hi"))
	assert.Equal(t, `<html><body><nav>home</nav><main>hi</main></body></html>`, buf.String())
}

func TestEngineMissingTemplate(t *testing.T) {
	e := NewEngine(afero.NewMemMapFs(), TemplateConfig{Dir: "templates"})
	err := e.Execute(&bytes.Buffer{}, "post.html", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Hello", Title(model.Frontmatter{"title": "Hello"}, "ignored"))
	assert.Equal(t, "My First Post", Title(model.Frontmatter{}, "my-first-post"))
	assert.Equal(t, "About Me", Title(model.Frontmatter{"title": 7}, "about_me"))
}

func TestHighlightCSS(t *testing.T) {
	css, err := HighlightCSS()
	require.NoError(t, err)
	assert.Contains(t, string(css), ".chroma")

	again, err := HighlightCSS()
	require.NoError(t, err)
	assert.Equal(t, css, again)
}

func TestSiteTemplates(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewBasePathFs(afero.NewOsFs(), "../.."))
	site := &model.SiteData{Params: map[string]interface{}{"siteTitle": "Will Morrison"}}
	r := New(fs, TemplateConfig{Dir: "templates"}, site)

	post, err := r.RenderContent(model.Posts, "hello", model.ParsedContent{
		Frontmatter: model.Frontmatter{"title": "Hello", "date": "2024-03-01", "tags": []any{"go"}},
		Content:     "Hi.\n",
	})
	require.NoError(t, err)
	assert.Contains(t, string(post), "<title>Hello</title>")
	assert.Contains(t, string(post), `<time datetime="2024-03-01">March 1, 2024</time>`)
	assert.Contains(t, string(post), `<span class="tag">go</span>`)
	assert.Contains(t, string(post), `<link rel="stylesheet" href="/assets/highlight.css">`)

	page, err := r.RenderContent(model.Pages, "about", model.ParsedContent{Frontmatter: model.Frontmatter{}, Content: "About.\n"})
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Will Morrison</title>")
	assert.Contains(t, string(page), "<p>About.</p>")

	blog, err := r.RenderBlog([]model.PostSummary{
		{Slug: "hello", Frontmatter: model.Frontmatter{"title": "Hello"}},
		{Slug: "untitled", Frontmatter: model.Frontmatter{}},
	})
	require.NoError(t, err)
	assert.Contains(t, string(blog), `<a href="/blog/hello">Hello</a>`)
	assert.Contains(t, string(blog), `<a href="/blog/untitled">untitled</a>`)

	empty, err := r.RenderBlog(nil)
	require.NoError(t, err)
	assert.Contains(t, string(empty), "No posts yet.")
}
