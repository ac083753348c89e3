package server

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
)

//go:embed static/*
var staticFiles embed.FS

// ErrAssetNotFound is returned by StreamFile for paths outside the embedded assets
var ErrAssetNotFound = errors.New("static asset not found")

// assetTypes pins the content type of the assets the shell ships, whatever the host's mime table says.
var assetTypes = map[string]string{
	".css": "text/css; charset=utf-8",
	".js":  "text/javascript; charset=utf-8",
}

// StreamFile writes an embedded asset such as "css/portal.css".
func StreamFile(w http.ResponseWriter, r *http.Request, name string) error {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	if !fs.ValidPath(name) {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}

	data, err := fs.ReadFile(staticFiles, path.Join("static", name))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, name)
	}

	ext := strings.ToLower(path.Ext(name))
	ctype, ok := assetTypes[ext]
	if !ok {
		if ctype = mime.TypeByExtension(ext); ctype == "" {
			ctype = http.DetectContentType(data)
		}
	}
	w.Header().Set("Content-Type", ctype)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
