package config

import (
	"fmt"
	"path"
	"strings"

	"github.com/MorrisonWill/willmorrison.com/internal/model"
)

// Config is the decoded application configuration.
type Config struct {
	Root         string `mapstructure:"root"`
	Mode         string `mapstructure:"mode"`
	SiteTitle    string `mapstructure:"siteTitle"`
	BaseURL      string `mapstructure:"baseURL"`
	ContentDir   string `mapstructure:"contentDir"`
	TemplatesDir string `mapstructure:"templatesDir"`
	PublicDir    string `mapstructure:"publicDir"`
	OutputDir    string `mapstructure:"outputDir"`
	Port         int    `mapstructure:"port"`
	Verbose      bool   `mapstructure:"verbose"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Root:         ".",
		Mode:         "development",
		SiteTitle:    "Will Morrison",
		ContentDir:   "content",
		TemplatesDir: "templates",
		PublicDir:    "public",
		OutputDir:    "dist",
		Port:         3000,
	}
}

// Validate checks the configuration and returns the parsed render mode.
func (c Config) Validate() (model.RenderMode, error) {
	mode, err := model.ParseRenderMode(c.Mode)
	if err != nil {
		return mode, err
	}
	for name, dir := range map[string]string{
		"contentDir":   c.ContentDir,
		"templatesDir": c.TemplatesDir,
		"publicDir":    c.PublicDir,
		"outputDir":    c.OutputDir,
	} {
		if dir == "" {
			return mode, fmt.Errorf("%s cannot be empty", name)
		}
		if clean := path.Clean(dir); path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return mode, fmt.Errorf("%s '%s' must be inside the site root", name, dir)
		}
	}
	out := path.Clean(c.OutputDir)
	for _, dir := range []string{c.ContentDir, c.TemplatesDir, c.PublicDir} {
		dir = path.Clean(dir)
		if out == "." || dir == out || strings.HasPrefix(dir, out+"/") {
			return mode, fmt.Errorf("outputDir '%s' would remove '%s' when cleaned", c.OutputDir, dir)
		}
	}
	if c.Root == "" {
		return mode, fmt.Errorf("root cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return mode, fmt.Errorf("port %d out of range", c.Port)
	}
	return mode, nil
}

// Layout returns the directory layout described by the configuration.
func (c Config) Layout() Layout {
	return Layout{
		ContentDir:   path.Clean(c.ContentDir),
		TemplatesDir: path.Clean(c.TemplatesDir),
		PublicDir:    path.Clean(c.PublicDir),
		OutputDir:    path.Clean(c.OutputDir),
	}
}

// Layout locates the site's directories relative to the site root. Paths are
// slash-separated so they can be used with io/fs.
type Layout struct {
	ContentDir   string
	TemplatesDir string
	PublicDir    string
	OutputDir    string
}

// SourceDir is where Markdown files of the given type live.
func (l Layout) SourceDir(t model.ContentType) string {
	return path.Join(l.ContentDir, string(t))
}

// SourcePath is the Markdown file backing a slug.
func (l Layout) SourcePath(t model.ContentType, slug string) string {
	return path.Join(l.SourceDir(t), slug+".md")
}

// BuiltPath is the pre-rendered HTML file for a slug. The build mirrors the
// source path under the output dir, swapping .md for .html.
func (l Layout) BuiltPath(t model.ContentType, slug string) string {
	return path.Join(l.OutputDir, l.SourceDir(t), slug+".html")
}

// AssetsOutputDir is where public files are copied during a build.
func (l Layout) AssetsOutputDir() string {
	return path.Join(l.OutputDir, "assets")
}
