// Package webtui serves the terminal UI in a browser: each websocket gets its own TUI
// process on a server-side pty, rendered client-side with xterm.js.
package webtui

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"catalog-cli/internal/logx"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr string
	// Args are passed to every spawned TUI process before the open subcommand
	// (e.g. --base-url, --session).
	Args []string
	// StartNode is opened when the page does not ask for one; negative means the last
	// visited node.
	StartNode int64
	Log       *slog.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("webtui: missing addr")
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		target := "/terminal"
		if q := r.URL.RawQuery; q != "" {
			target += "?" + q
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)

	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))

	return mux
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

type terminalVM struct {
	Node string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	node, ok := s.nodeFor(r)
	if !ok {
		http.Error(w, "invalid node", http.StatusBadRequest)
		return
	}
	vm := terminalVM{}
	if node >= 0 {
		vm.Node = strconv.FormatInt(node, 10)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "terminal.html", vm); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// nodeFor reads ?node=ID, falling back to the configured start node.
func (s *Server) nodeFor(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("node"))
	if raw == "" {
		return s.cfg.StartNode, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func (s *Server) log() *slog.Logger {
	if s.cfg.Log == nil {
		return logx.Discard()
	}
	return s.cfg.Log
}

// childArgs is the argv (without the executable) of the TUI process for node.
func (s *Server) childArgs(node int64) []string {
	args := append([]string{}, s.cfg.Args...)
	if node >= 0 {
		return append(args, "open", strconv.FormatInt(node, 10))
	}
	return args
}
