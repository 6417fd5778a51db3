package server

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// StaticPrefix is the URL prefix of the public directory.
const StaticPrefix = "/static/"

// Well-known files of the public directory.
const (
	staticManifest      = "manifest.json"
	staticStylesheet    = "styles.css"
	staticWebManifest   = "manifest.webmanifest"
	staticServiceWorker = "sw.js"
)

// publicFiles serves a directory of static files: styles, icons, the web
// app manifest and the service worker. A manifest.json in the directory
// maps source names to fingerprinted names:
//
//	{"styles.css": "styles.3f9a1c2e.css"}
type publicFiles struct {
	fsys        fs.FS
	fingerprint map[string]string
}

func newPublicFiles(fsys fs.FS) (*publicFiles, error) {
	p := &publicFiles{fsys: fsys, fingerprint: map[string]string{}}
	data, err := fs.ReadFile(fsys, staticManifest)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &p.fingerprint); err != nil {
			return nil, err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}
	return p, nil
}

// asset returns the URL of a source file, or "" when the directory does not
// have it.
func (p *publicFiles) asset(source string) string {
	name := source
	if resolved, ok := p.fingerprint[source]; ok {
		name = resolved
	}
	if !p.exists(name) {
		return ""
	}
	return StaticPrefix + name
}

func (p *publicFiles) exists(name string) bool {
	info, err := fs.Stat(p.fsys, name)
	return err == nil && !info.IsDir()
}

// relPath returns the file a request path names within the directory. It
// rejects traversal, absolute paths and separators other than "/".
func relPath(urlPath string) (string, bool) {
	rel, ok := strings.CutPrefix(urlPath, StaticPrefix)
	if !ok || rel == "" {
		return "", false
	}
	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") || strings.HasPrefix(rel, "/") {
		return "", false
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}
	clean := path.Clean(rel)
	if !fs.ValidPath(clean) || clean == "." {
		return "", false
	}
	return clean, true
}

func (p *publicFiles) serve(w http.ResponseWriter, r *http.Request, rel string) {
	f, err := p.fsys.Open(rel)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	content, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "file not seekable", http.StatusInternalServerError)
		return
	}

	switch {
	case rel == staticServiceWorker:
		w.Header().Set("Cache-Control", "no-cache")
	case isFingerprinted(rel):
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	default:
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, rel, info.ModTime(), content)
}

// serveStatic serves GET and HEAD requests under StaticPrefix.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	rel, ok := relPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.public.serve(w, r, rel)
}

// serveServiceWorker serves sw.js from the site root so that its scope
// covers the whole application.
func (s *Server) serveServiceWorker(w http.ResponseWriter, r *http.Request) {
	s.public.serve(w, r, staticServiceWorker)
}

// isFingerprinted reports whether a file name carries a content hash, as in
// "styles.3f9a1c2e.css".
func isFingerprinted(filePath string) bool {
	parts := strings.Split(path.Base(filePath), ".")
	if len(parts) < 3 {
		return false
	}
	hash := parts[len(parts)-2]
	if len(hash) < 8 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
