package server

import (
	"bytes"
	"errors"
	"html/template"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/lightforgemedia/go-pagesync/assets"
)

const htmlContentType = "text/html; charset=utf-8"

var errNotFound = errors.New("could not find file")

// serveFile serves a file from the root folder. HTML pages run as templates
// and get the page script.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/" + s.options.Index
	}

	name, body, err := s.readFile(urlPath)
	if err != nil {
		s.logger.Info("File not found", "path", r.URL.Path, "error", err)
		http.Error(w, errNotFound.Error(), http.StatusNotFound)
		return
	}

	kind := contentType(name, body)
	if kind == htmlContentType {
		body = s.executeTemplate(name, body)
	}

	if s.options.RenderMarkdown && isMarkdown(name) {
		rendered, err := s.markdown.Render(body)
		if err != nil {
			s.logger.Error("Failed to render markdown", "file", name, "error", err)
			http.Error(w, "could not render markdown", http.StatusInternalServerError)
			return
		}
		body = assets.RenderShell(rendered)
		kind = htmlContentType
	}

	if kind == htmlContentType {
		body = assets.InjectScript(body)
	}

	w.Header().Set("Content-Type", kind)
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(body)
}

// readFile resolves urlPath under the root and reads it, falling back to
// index.html when the path names a directory.
func (s *Server) readFile(urlPath string) (string, []byte, error) {
	name := s.resolve(urlPath)
	body, err := os.ReadFile(name)
	if err == nil {
		return name, body, nil
	}

	index := filepath.Join(name, "index.html")
	body, indexErr := os.ReadFile(index)
	if indexErr != nil {
		return "", nil, err
	}
	return index, body, nil
}

// resolve maps a URL path to a file under the root. The path is cleaned
// as rooted, so it can never climb out of the root.
func (s *Server) resolve(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	return filepath.Join(s.options.Root, filepath.FromSlash(clean))
}

func (s *Server) executeTemplate(name string, body []byte) []byte {
	tmpl, err := template.New(filepath.Base(name)).Funcs(s.funcMap()).Parse(string(body))
	if err != nil {
		s.logger.Warn("Page is not a valid template, serving as is", "file", name, "error", err)
		return body
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, nil); err != nil {
		s.logger.Warn("Template execution failed, serving as is", "file", name, "error", err)
		return body
	}
	return buf.Bytes()
}

func (s *Server) funcMap() template.FuncMap {
	return template.FuncMap{
		"MarkdownToHTML": s.MarkdownToHTML,
	}
}

// MarkdownToHTML renders the markdown file name, relative to the root. A
// read or render failure is returned as the page content.
func (s *Server) MarkdownToHTML(name string) template.HTML {
	source, err := os.ReadFile(s.resolve(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Markdown file not found", "file", name)
		}
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	rendered, err := s.markdown.Render(source)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(err.Error()))
	}
	return template.HTML(rendered)
}

func isMarkdown(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func contentType(name string, body []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".md", ".markdown":
		return "text/plain; charset=utf-8"
	case "", ".html", ".htm":
		return htmlContentType
	}
	if kind := mime.TypeByExtension(ext); kind != "" {
		return kind
	}
	return http.DetectContentType(body)
}
