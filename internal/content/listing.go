package content

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/MorrisonWill/willmorrison.com/internal/config"
	"github.com/MorrisonWill/willmorrison.com/internal/frontmatter"
	"github.com/MorrisonWill/willmorrison.com/internal/model"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

// Glob returns the Markdown files of a content type in scan order.
func Glob(fsys afero.Fs, layout config.Layout, t model.ContentType) ([]string, error) {
	pattern := path.Join(layout.SourceDir(t), "*.md")
	files, err := doublestar.Glob(afero.NewIOFS(fsys), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list '%s': %w", pattern, err)
	}
	return files, nil
}

// Slug derives a slug from a content file path by dropping its directory and
// .md suffix.
func Slug(dir, file string) string {
	return strings.TrimSuffix(strings.TrimPrefix(file, dir+"/"), ".md")
}

// Lister builds the blog index.
type Lister struct {
	fs       afero.Fs
	layout   config.Layout
	renderer *render.Renderer
}

// NewLister returns a Lister over the posts in layout.
func NewLister(fs afero.Fs, layout config.Layout, renderer *render.Renderer) *Lister {
	return &Lister{fs: fs, layout: layout, renderer: renderer}
}

// ListPosts returns every post's front matter, newest first. Posts without a
// usable date sort last.
func (l *Lister) ListPosts(ctx context.Context) ([]model.PostSummary, error) {
	dir := l.layout.SourceDir(model.Posts)
	files, err := Glob(l.fs, l.layout, model.Posts)
	if err != nil {
		return nil, err
	}

	posts := make([]model.PostSummary, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := readFile(l.fs, file)
		if err != nil {
			return nil, err
		}
		parsed, err := frontmatter.Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse '%s': %w", file, err)
		}
		posts = append(posts, model.PostSummary{
			Slug:        Slug(dir, file),
			Frontmatter: parsed.Frontmatter,
		})
	}

	SortPosts(posts)
	return posts, nil
}

// SortPosts orders posts by date, newest first. Equal dates keep their order.
func SortPosts(posts []model.PostSummary) {
	sort.SliceStable(posts, func(i, j int) bool {
		return timestamp(posts[i]) > timestamp(posts[j])
	})
}

func timestamp(p model.PostSummary) int64 {
	d := p.Frontmatter.Date()
	if d.IsZero() {
		return 0
	}
	return d.UnixMilli()
}

// RenderBlog renders the blog index page.
func (l *Lister) RenderBlog(ctx context.Context) (*model.RenderedPage, error) {
	posts, err := l.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	body, err := l.renderer.RenderBlog(posts)
	if err != nil {
		return nil, err
	}
	return model.NewHTMLPage(body), nil
}
