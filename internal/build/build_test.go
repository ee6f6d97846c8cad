package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MorrisonWill/willmorrison.com/internal/config"
	"github.com/MorrisonWill/willmorrison.com/internal/frontmatter"
	"github.com/MorrisonWill/willmorrison.com/internal/logger"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

func writeFile(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
}

func readFile(t *testing.T, fsys afero.Fs, name string) string {
	t.Helper()
	b, err := afero.ReadFile(fsys, name)
	require.NoError(t, err)
	return string(b)
}

func newSite(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, "templates/post.html", `<article><h2>{{.Title}}</h2>{{.Content}}</article>`)
	writeFile(t, fsys, "templates/page.html", `<main>{{.Content}}</main>`)
	writeFile(t, fsys, "content/pages/index.md", "---\ntitle: Home\n---\nWelcome.\n")
	writeFile(t, fsys, "content/pages/about.md", "About me.\n")
	writeFile(t, fsys, "content/posts/hello.md", "---\ntitle: Hello\ndate: 2024-03-01\ntags: [intro]\n---\n# Hi there\n")
	writeFile(t, fsys, "content/posts/second.md", "---\ntitle: Second\n---\nMore words.\n")
	writeFile(t, fsys, "public/css/site.css", "body { color: black; }")
	writeFile(t, fsys, "public/favicon.ico", "icon")
	return fsys
}

func newBuilder(fsys afero.Fs) *Builder {
	layout := config.Defaults().Layout()
	r := render.New(fsys, render.TemplateConfig{Dir: layout.TemplatesDir}, nil)
	return New(fsys, layout, r, logger.Discard())
}

func snapshot(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := afero.Walk(fsys, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files[p] = readFile(t, fsys, p)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestBuild(t *testing.T) {
	fsys := newSite(t)

	report, err := newBuilder(fsys).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 2, report.Assets)
	assert.NoError(t, report.Failures)

	hello := readFile(t, fsys, "dist/content/posts/hello.html")
	assert.Contains(t, hello, "<h2>Hello</h2>")
	assert.Contains(t, hello, `<h1 id="hi-there">Hi there</h1>`)

	assert.Contains(t, readFile(t, fsys, "dist/content/pages/index.html"), "<main><p>Welcome.</p>")
	assert.Contains(t, readFile(t, fsys, "dist/content/pages/about.html"), "<p>About me.</p>")
	assert.Equal(t, "body { color: black; }", readFile(t, fsys, "dist/assets/css/site.css"))
	assert.Equal(t, "icon", readFile(t, fsys, "dist/assets/favicon.ico"))
	assert.Contains(t, readFile(t, fsys, "dist/assets/highlight.css"), ".chroma")
}

func TestBuildIdempotent(t *testing.T) {
	fsys := newSite(t)
	b := newBuilder(fsys)

	_, err := b.Build(context.Background())
	require.NoError(t, err)
	first := snapshot(t, fsys, "dist")

	_, err = b.Build(context.Background())
	require.NoError(t, err)
	second := snapshot(t, fsys, "dist")

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestBuildPartialFailure(t *testing.T) {
	fsys := newSite(t)
	writeFile(t, fsys, "content/posts/broken.md", "---\ntitle: [unclosed\n---\nbody\n")

	report, err := newBuilder(fsys).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.FailureCount())
	assert.ErrorIs(t, report.Failures, frontmatter.ErrMalformed)
	assert.Contains(t, report.Failures.Error(), "content/posts/broken.md")
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 2, report.Pages)
	assert.Equal(t, 2, report.Assets)

	exists, _ := afero.Exists(fsys, "dist/content/posts/broken.html")
	assert.False(t, exists)
	assert.Contains(t, readFile(t, fsys, "dist/content/posts/second.html"), "<h2>Second</h2>")
	assert.Equal(t, "icon", readFile(t, fsys, "dist/assets/favicon.ico"))
}

func TestBuildClearsOutput(t *testing.T) {
	fsys := newSite(t)
	writeFile(t, fsys, "dist/content/posts/deleted.html", "stale")

	_, err := newBuilder(fsys).Build(context.Background())
	require.NoError(t, err)

	exists, _ := afero.Exists(fsys, "dist/content/posts/deleted.html")
	assert.False(t, exists)
}

func TestBuildWithoutPublicDir(t *testing.T) {
	fsys := newSite(t)
	require.NoError(t, fsys.RemoveAll("public"))

	report, err := newBuilder(fsys).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Assets)
	assert.NoError(t, report.Failures)
	assert.Contains(t, readFile(t, fsys, "dist/assets/highlight.css"), ".chroma")
}

func TestBuildPublicOverridesHighlightCSS(t *testing.T) {
	fsys := newSite(t)
	writeFile(t, fsys, "public/highlight.css", "/* custom */")

	_, err := newBuilder(fsys).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/* custom */", readFile(t, fsys, "dist/assets/highlight.css"))
}

func TestBuildMissingTemplate(t *testing.T) {
	fsys := newSite(t)
	require.NoError(t, fsys.Remove("templates/page.html"))

	report, err := newBuilder(fsys).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.FailureCount())
	assert.ErrorIs(t, report.Failures, render.ErrTemplateNotFound)
	assert.Equal(t, 2, report.Posts)
	assert.Equal(t, 0, report.Pages)
}

func TestBuildSetupFailure(t *testing.T) {
	fsys := afero.NewReadOnlyFs(newSite(t))

	_, err := newBuilder(fsys).Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSetup)
}

var errFlush = errors.New("flush failed")

// failingCloseFs returns files whose Close fails once written to.
type failingCloseFs struct {
	afero.Fs
}

func (f failingCloseFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return failingCloseFile{File: file}, nil
}

type failingCloseFile struct {
	afero.File
}

func (f failingCloseFile) Close() error {
	_ = f.File.Close()
	return errFlush
}

func TestCopyDirContentsCloseError(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFile(t, mem, "public/app.js", "console.log(1)")

	n, err := copyDirContents(failingCloseFs{Fs: mem}, "public", "dist/assets")
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlush)
	assert.Equal(t, 0, n)
}
