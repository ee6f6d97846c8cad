package render

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"path"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/MorrisonWill/willmorrison.com/internal/model"
)

const (
	baseLayout      = "base.html"
	partialsPattern = "partials/*.html"
)

// ErrTemplateNotFound is returned when a named template file does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateConfig configures a template Engine.
type TemplateConfig struct {
	// Dir is the template directory, relative to the engine's filesystem.
	Dir string
	// NoCache re-parses templates on every execution.
	NoCache bool
}

// Engine executes named html/template files from a directory. Every named
// template is parsed together with base.html and partials/*.html.
type Engine struct {
	fs    afero.Fs
	cfg   TemplateConfig
	funcs template.FuncMap

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewEngine returns an Engine reading templates from fs.
func NewEngine(fs afero.Fs, cfg TemplateConfig) *Engine {
	return &Engine{
		fs:    fs,
		cfg:   cfg,
		funcs: funcMap(),
		cache: make(map[string]*template.Template),
	}
}

// Execute renders the named template with data.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	tpl, err := e.lookup(name)
	if err != nil {
		return err
	}
	if err := tpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to execute template '%s': %w", name, err)
	}
	return nil
}

func (e *Engine) lookup(name string) (*template.Template, error) {
	if e.cfg.NoCache {
		return e.parse(name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tpl, ok := e.cache[name]; ok {
		return tpl, nil
	}
	tpl, err := e.parse(name)
	if err != nil {
		return nil, err
	}
	e.cache[name] = tpl
	return tpl, nil
}

func (e *Engine) parse(name string) (*template.Template, error) {
	target := path.Join(e.cfg.Dir, name)
	if ok, _ := afero.Exists(e.fs, target); !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, target)
	}

	fsys := afero.NewIOFS(e.fs)
	var files []string
	base := path.Join(e.cfg.Dir, baseLayout)
	if name != baseLayout {
		if ok, _ := afero.Exists(e.fs, base); ok {
			files = append(files, base)
		}
	}
	partials, err := doublestar.Glob(fsys, path.Join(e.cfg.Dir, partialsPattern))
	if err != nil {
		return nil, fmt.Errorf("failed to find partials in '%s': %w", e.cfg.Dir, err)
	}
	files = append(files, partials...)
	files = append(files, target)

	tpl, err := template.New(name).Funcs(e.funcs).ParseFS(fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", name, err)
	}
	return tpl, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"tags": func(fm model.Frontmatter) []string {
			return fm.Tags()
		},
		"formatDate": func(layout string, fm model.Frontmatter) string {
			d := fm.Date()
			if d.IsZero() {
				return ""
			}
			return d.Format(layout)
		},
	}
}
