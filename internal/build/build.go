// Package build renders every content file to static HTML and copies public
// assets into the output directory.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/MorrisonWill/willmorrison.com/internal/config"
	"github.com/MorrisonWill/willmorrison.com/internal/content"
	"github.com/MorrisonWill/willmorrison.com/internal/logger"
	"github.com/MorrisonWill/willmorrison.com/internal/model"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

// ErrSetup is returned when the output directory cannot be prepared.
var ErrSetup = errors.New("build setup failed")

// Report summarises a finished build.
type Report struct {
	Pages    int
	Posts    int
	Assets   int
	Duration time.Duration
	// Failures holds every per-file and asset error. They do not fail the build.
	Failures error

	mu sync.Mutex
}

// FailureCount is the number of errors collected in Failures.
func (r *Report) FailureCount() int {
	return len(multierr.Errors(r.Failures))
}

func (r *Report) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = multierr.Append(r.Failures, err)
}

func (r *Report) rendered(t model.ContentType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t == model.Posts {
		r.Posts++
	} else {
		r.Pages++
	}
}

// Builder runs a site build. A Builder may be reused for successive builds.
type Builder struct {
	fs       afero.Fs
	layout   config.Layout
	renderer *render.Renderer
	log      *logger.Logger
}

// New returns a Builder writing through fs.
func New(fs afero.Fs, layout config.Layout, renderer *render.Renderer, log *logger.Logger) *Builder {
	return &Builder{fs: fs, layout: layout, renderer: renderer, log: log}
}

// Build clears the output directory, then renders pages and posts and copies
// assets concurrently. Only setup errors are returned; everything else is
// logged and collected in the report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	start := time.Now()
	b.log.BuildStarted(b.layout.ContentDir, b.layout.OutputDir)

	if err := b.prepareOutput(); err != nil {
		return nil, err
	}

	report := &Report{}
	var wg conc.WaitGroup
	for _, t := range model.ContentTypes {
		wg.Go(func() { b.buildContentType(ctx, t, report) })
	}
	wg.Go(func() { b.copyAssets(report) })
	wg.Wait()

	report.Duration = time.Since(start)
	b.log.BuildCompleted(report.Pages, report.Posts, report.Assets, report.FailureCount(), report.Duration)
	return report, nil
}

func (b *Builder) prepareOutput() error {
	// A missing output dir is fine; any other removal error surfaces on MkdirAll.
	_ = b.fs.RemoveAll(b.layout.OutputDir)
	if err := b.fs.MkdirAll(b.layout.OutputDir, os.ModePerm); err != nil {
		return fmt.Errorf("%w: failed to create output directory '%s': %v", ErrSetup, b.layout.OutputDir, err)
	}
	return nil
}

func (b *Builder) buildContentType(ctx context.Context, t model.ContentType, report *Report) {
	files, err := content.Glob(b.fs, b.layout, t)
	if err != nil {
		b.log.Error("failed to list content", "type", t, "error", err)
		report.fail(err)
		return
	}

	dir := b.layout.SourceDir(t)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			report.fail(err)
			return
		}
		if err := b.processFile(t, dir, file); err != nil {
			b.log.FileError(file, err)
			report.fail(fmt.Errorf("%s: %w", file, err))
			continue
		}
		report.rendered(t)
	}
}

func (b *Builder) processFile(t model.ContentType, dir, file string) error {
	b.log.Debug("processing file", "type", t, "file", file)

	raw, err := afero.ReadFile(b.fs, file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	html, err := content.RenderFile(b.renderer, t, content.Slug(dir, file), file, raw)
	if err != nil {
		return err
	}

	dest := path.Join(b.layout.OutputDir, strings.TrimSuffix(file, ".md")+".html")
	if err := b.fs.MkdirAll(path.Dir(dest), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", path.Dir(dest), err)
	}
	if err := afero.WriteFile(b.fs, dest, html, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", dest, err)
	}
	b.log.FileWritten(file, dest)
	return nil
}

func (b *Builder) copyAssets(report *Report) {
	src := b.layout.PublicDir
	dst := b.layout.AssetsOutputDir()

	// Files under public/ may replace the generated stylesheet.
	if err := b.writeHighlightCSS(dst); err != nil {
		b.log.Error("error writing highlight stylesheet", "error", err)
		report.fail(err)
	}

	if ok, _ := afero.DirExists(b.fs, src); !ok {
		b.log.Warn("static assets directory not found, skipping copy", "dir", src)
		return
	}
	b.log.Debug("copying assets", "from", src, "to", dst)

	n, err := copyDirContents(b.fs, src, dst)
	report.mu.Lock()
	report.Assets += n
	report.mu.Unlock()
	if err != nil {
		b.log.Error("error copying assets", "error", err)
		report.fail(err)
	}
}

func (b *Builder) writeHighlightCSS(dir string) error {
	css, err := render.HighlightCSS()
	if err != nil {
		return err
	}
	if err := b.fs.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}
	dest := path.Join(dir, render.HighlightCSSName)
	if err := afero.WriteFile(b.fs, dest, css, 0o644); err != nil {
		return fmt.Errorf("failed to write '%s': %w", dest, err)
	}
	return nil
}

// copyDirContents recursively copies src into dst and returns the number of
// files copied.
func copyDirContents(fsys afero.Fs, src, dst string) (int, error) {
	copied := 0
	err := afero.Walk(fsys, src, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, p)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", p, err)
		}
		dstPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			if err := fsys.MkdirAll(dstPath, os.ModePerm); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dstPath, err)
			}
			return nil
		}
		if err := copyFile(fsys, p, dstPath, info.Mode()); err != nil {
			return fmt.Errorf("failed to copy file from %s to %s: %w", p, dstPath, err)
		}
		copied++
		return nil
	})
	return copied, err
}

func copyFile(fsys afero.Fs, srcFile, dstFile string, mode fs.FileMode) (err error) {
	srcF, err := fsys.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer srcF.Close()

	dstF, err := fsys.OpenFile(dstFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}
	defer func() {
		if cerr := dstF.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file %s: %w", dstFile, cerr)
		}
	}()

	if _, err := io.Copy(dstF, srcF); err != nil {
		return fmt.Errorf("failed to copy data from %s to %s: %w", srcFile, dstFile, err)
	}
	return nil
}
