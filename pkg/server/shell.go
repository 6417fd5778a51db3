package server

import (
	"crypto/sha256"
	_ "embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/storyapp/storyapp/pkg/session"
)

//go:embed assets/index.html
var indexHTML string

//go:embed assets/client.js
var clientJS []byte

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

var clientETag = func() string {
	sum := sha256.Sum256(clientJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:]))
}()

// serveShell serves the document every tab starts from and makes sure the
// tab carries a client ID.
func (s *Server) serveShell(w http.ResponseWriter, r *http.Request) {
	if _, err := uuid.Parse(s.clientID(r)); err != nil {
		http.SetCookie(w, s.clientCookie(session.NewID()))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if err := indexTemplate.Execute(w, s.shellData()); err != nil {
		s.logger.Error("shell render failed", "error", err)
	}
}

type shellData struct {
	Title         string
	Stylesheet    string
	WebManifest   string
	ServiceWorker bool
}

func (s *Server) shellData() shellData {
	d := shellData{Title: s.cfg.Title}
	if s.public != nil {
		d.Stylesheet = s.public.asset(staticStylesheet)
		d.WebManifest = s.public.asset(staticWebManifest)
		d.ServiceWorker = s.public.exists(staticServiceWorker)
	}
	return d
}

func (s *Server) serveClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", clientETag)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")

	if etagMatches(r.Header.Get("If-None-Match"), clientETag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clientJS)
}

func etagMatches(ifNoneMatchHeader, etag string) bool {
	if ifNoneMatchHeader == "" || etag == "" {
		return false
	}
	for _, part := range strings.Split(ifNoneMatchHeader, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == etag || candidate == "*" {
			return true
		}
		if strings.HasPrefix(candidate, "W/") && strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
