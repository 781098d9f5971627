package server

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/feature"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/rs/zerolog/log"
)

var templateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// TemplatesPageData contains data for rendering the template gallery
type TemplatesPageData struct {
	Page
	Templates []apiclient.Template
	Denied    *feature.Entry
}

// TemplatesHandler lists the resume templates
func (s *Server) TemplatesHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("templates.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := TemplatesPageData{Page: s.newPage(r, "Templates")}

		templates, err := s.api.ListTemplates(r.Context())
		if err != nil {
			if navigated(w) || r.Context().Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("Failed to list templates")
			data.Error = apiclient.UserMessage(err)
			render(w, r, tmpl, http.StatusBadGateway, data)
			return
		}
		data.Templates = templates
		render(w, r, tmpl, http.StatusOK, data)
	}
}

// TemplateDownloadHandler streams a rendered template once the allowance check passes
func (s *Server) TemplateDownloadHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("templates.html")

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !templateIDPattern.MatchString(id) {
			http.NotFound(w, r)
			return
		}

		denyWith := func(entry feature.Entry) {
			data := TemplatesPageData{Page: s.newPage(r, "Templates"), Denied: &entry}
			render(w, r, tmpl, http.StatusPaymentRequired, data)
		}

		if err := s.runner.Gate().Require(r.Context(), feature.TemplateDownload); err != nil {
			if navigated(w) || r.Context().Err() != nil {
				return
			}
			if apperrors.Is(err, apperrors.ErrUnauthorized) {
				storeFrom(r).Clear()
				return
			}
			var denied *feature.DeniedError
			if apperrors.As(err, &denied) {
				denyWith(denied.Feature)
				return
			}
			denyWith(s.runner.Gate().Catalog().Lookup(feature.TemplateDownload))
			return
		}

		var pdf bytes.Buffer
		contentType, err := s.api.DownloadTemplate(r.Context(), id, &pdf)
		switch {
		case err == nil:
		case navigated(w) || r.Context().Err() != nil:
			return
		case apperrors.Is(err, apperrors.ErrUnauthorized):
			storeFrom(r).Clear()
			return
		case apperrors.Is(err, apperrors.ErrFeatureNotAllowed):
			denyWith(s.runner.Gate().Catalog().Lookup(feature.TemplateDownload))
			return
		case apperrors.Is(err, apperrors.ErrNotFound):
			http.NotFound(w, r)
			return
		default:
			log.Warn().Err(err).Str("template", id).Msg("Failed to download template")
			redirectWithError(w, r, RouteTemplates, apiclient.UserMessage(err))
			return
		}

		if contentType == "" {
			contentType = "application/pdf"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, id))
		_, _ = pdf.WriteTo(w)
	}
}
