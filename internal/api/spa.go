package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"hablago/internal/ui"
)

// spaFileSystem implements http.FileSystem and falls back to index.html
// for unknown paths so client-side routes resolve.
type spaFileSystem struct {
	root http.FileSystem
}

// Open opens the named file. If the file does not exist, it falls back to index.html.
func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return s.root.Open("index.html")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// newStaticHandler serves the web client from dir, or from the embedded
// build when dir is empty.
func newStaticHandler(dir string) (http.Handler, error) {
	var root http.FileSystem
	if dir != "" {
		slog.Info("Serving web client from disk", "dir", dir)
		root = http.Dir(dir)
	} else {
		distFS, err := fs.Sub(ui.DistFS, "dist")
		if err != nil {
			return nil, fmt.Errorf("subtree dist from embedded assets: %w", err)
		}
		root = http.FS(distFS)
	}
	return http.FileServer(&spaFileSystem{root: root}), nil
}
