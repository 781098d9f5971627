package server

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

//go:embed static
var staticFiles embed.FS

// staticFS is the embedded asset tree rooted at static/
var staticFS = mustSubFS(staticFiles, "static")

func mustSubFS(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("embedded " + dir + " directory missing: " + err.Error())
	}
	return sub
}

// staticAssetHandler serves css and js assets by request path
func (s *Server) staticAssetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if err := writeStaticAsset(w, name); err != nil {
			log.Debug().Err(err).Str("path", name).Msg("static asset not served")
			http.NotFound(w, r)
		}
	}
}

// writeStaticAsset writes one embedded asset with a content type taken from
// its extension
func writeStaticAsset(w http.ResponseWriter, name string) error {
	if !fs.ValidPath(name) || name == "." {
		return errors.Errorf("[writeStaticAsset] invalid asset path %q", name)
	}
	data, err := fs.ReadFile(staticFS, name)
	if err != nil {
		return errors.Wrapf(err, "[writeStaticAsset] read %s", name)
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	_, err = w.Write(data)
	return errors.Wrapf(err, "[writeStaticAsset] write %s", name)
}
