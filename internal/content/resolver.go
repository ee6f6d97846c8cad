// Package content locates content files and turns them into rendered pages.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"

	"github.com/MorrisonWill/willmorrison.com/internal/config"
	"github.com/MorrisonWill/willmorrison.com/internal/frontmatter"
	"github.com/MorrisonWill/willmorrison.com/internal/logger"
	"github.com/MorrisonWill/willmorrison.com/internal/model"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

// ErrNotFound is returned when no source or pre-rendered file backs a slug.
var ErrNotFound = errors.New("content not found")

// Resolver produces the page for a content type and slug.
type Resolver struct {
	fs       afero.Fs
	layout   config.Layout
	mode     model.RenderMode
	renderer *render.Renderer
	log      *logger.Logger
}

// NewResolver returns a Resolver. In ModeProduction it serves files written by
// a build; otherwise it renders Markdown on every call.
func NewResolver(fs afero.Fs, layout config.Layout, mode model.RenderMode, renderer *render.Renderer, log *logger.Logger) *Resolver {
	return &Resolver{
		fs:       fs,
		layout:   layout,
		mode:     mode,
		renderer: renderer,
		log:      log,
	}
}

// Mode reports how the resolver finds content.
func (r *Resolver) Mode() model.RenderMode {
	return r.mode
}

// Resolve returns the rendered page for slug.
func (r *Resolver) Resolve(ctx context.Context, t model.ContentType, slug string) (*model.RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrNotFound, t)
	}
	if !validSlug(slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", ErrNotFound, slug)
	}

	if r.mode == model.ModeProduction {
		return r.prebuilt(t, slug)
	}
	return r.onDemand(t, slug)
}

func (r *Resolver) prebuilt(t model.ContentType, slug string) (*model.RenderedPage, error) {
	p := r.layout.BuiltPath(t, slug)
	body, err := readFile(r.fs, p)
	if err != nil {
		return nil, err
	}
	return model.NewHTMLPage(body), nil
}

func (r *Resolver) onDemand(t model.ContentType, slug string) (*model.RenderedPage, error) {
	p := r.layout.SourcePath(t, slug)
	raw, err := readFile(r.fs, p)
	if err != nil {
		return nil, err
	}
	body, err := RenderFile(r.renderer, t, slug, p, raw)
	if err != nil {
		return nil, err
	}
	r.log.Debug("rendered on demand", "file", p)
	return model.NewHTMLPage(body), nil
}

// RenderFile parses and renders the raw contents of one content file. The
// build and the on-demand resolver share it.
func RenderFile(renderer *render.Renderer, t model.ContentType, slug, path string, raw []byte) ([]byte, error) {
	parsed, err := frontmatter.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}
	body, err := renderer.RenderContent(t, slug, parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to render '%s': %w", path, err)
	}
	return body, nil
}

func readFile(fsys afero.Fs, p string) ([]byte, error) {
	b, err := afero.ReadFile(fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to read '%s': %w", p, err)
	}
	return b, nil
}

func validSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`) && !strings.Contains(slug, "..")
}
