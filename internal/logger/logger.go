package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	l.SetStyles(styles())
	return &Logger{Logger: l}
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	s.Values["error"] = lipgloss.NewStyle().Bold(true)
	s.Keys["file"] = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	return s
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

// FileWritten logs a generated output file
func (l *Logger) FileWritten(source, dest string) {
	l.Debug("file written",
		"source", source,
		"dest", dest)
}

// BuildStarted logs the start of a build
func (l *Logger) BuildStarted(contentDir, outputDir string) {
	l.Info("build started",
		"content_dir", contentDir,
		"output_dir", outputDir)
}

// BuildCompleted logs the completion of a build
func (l *Logger) BuildCompleted(pages, posts, assets, failures int, duration time.Duration) {
	l.Info("build completed",
		"pages", pages,
		"posts", posts,
		"assets", assets,
		"failures", failures,
		"duration", duration.Round(time.Millisecond))
}

// Request logs a served HTTP request
func (l *Logger) Request(method, path string, status int, duration time.Duration) {
	l.Info("request",
		"method", method,
		"path", path,
		"status", status,
		"duration", duration.Round(time.Microsecond))
}
