// Package server maps HTTP requests onto content pages and static files.
package server

import (
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/spf13/afero"

	"github.com/MorrisonWill/willmorrison.com/internal/config"
	"github.com/MorrisonWill/willmorrison.com/internal/content"
	"github.com/MorrisonWill/willmorrison.com/internal/logger"
	"github.com/MorrisonWill/willmorrison.com/internal/model"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

// Server routes requests to the resolver and lister.
type Server struct {
	fs       afero.Fs
	layout   config.Layout
	assets   http.Handler
	resolver *content.Resolver
	lister   *content.Lister
	log      *logger.Logger
	mux      *http.ServeMux
}

// New builds the request handler for a site. Static files are served from fs.
func New(fs afero.Fs, layout config.Layout, resolver *content.Resolver, lister *content.Lister, log *logger.Logger) *Server {
	s := &Server{
		fs:       fs,
		layout:   layout,
		resolver: resolver,
		lister:   lister,
		log:      log,
		mux:      http.NewServeMux(),
	}

	httpFs := afero.NewHttpFs(fs)
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /blog", s.handleBlog)
	s.mux.HandleFunc("GET /blog/{slug}", s.handlePost)
	s.mux.Handle("GET /public/", http.StripPrefix("/public/", noDirListing(http.FileServer(httpFs.Dir(layout.PublicDir)))))
	assets := layout.AssetsOutputDir()
	if resolver.Mode() == model.ModeDevelopment {
		// Nothing is built in development; assets come straight from public/.
		assets = layout.PublicDir
		s.mux.HandleFunc("GET /assets/"+render.HighlightCSSName, s.handleHighlightCSS)
	}
	s.assets = http.StripPrefix("/assets/", noDirListing(http.FileServer(httpFs.Dir(assets))))
	s.mux.Handle("GET /assets/", s.assets)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	if s.resolver.Mode() == model.ModeDevelopment {
		// Set headers to prevent caching during development
		rec.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		rec.Header().Set("Pragma", "no-cache")
		rec.Header().Set("Expires", "0")
	}
	s.mux.ServeHTTP(rec, r)
	s.log.Request(r.Method, r.URL.Path, rec.status, time.Since(start))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	page, err := s.resolver.Resolve(r.Context(), model.Pages, "index")
	s.respond(w, r, page, err)
}

func (s *Server) handleBlog(w http.ResponseWriter, r *http.Request) {
	page, err := s.lister.RenderBlog(r.Context())
	s.respond(w, r, page, err)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	page, err := s.resolver.Resolve(r.Context(), model.Posts, r.PathValue("slug"))
	s.respond(w, r, page, err)
}

// handleHighlightCSS serves the generated stylesheet unless public/ has its own.
func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	if ok, _ := afero.Exists(s.fs, path.Join(s.layout.PublicDir, render.HighlightCSSName)); ok {
		s.assets.ServeHTTP(w, r)
		return
	}
	css, err := render.HighlightCSS()
	if err != nil {
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(css)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, page *model.RenderedPage, err error) {
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.log.Error("request failed", "path", r.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", page.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Body)
}

// noDirListing answers 404 for directory paths instead of listing them.
func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
