package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/feature"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// maxUploadSize bounds resume uploads
const maxUploadSize = 10 << 20

// toolField is one input of a tool form
type toolField struct {
	Name      string
	Label     string
	Multiline bool
	Required  bool
}

// toolInput is a parsed tool submission
type toolInput struct {
	Request  apiclient.GenerateRequest
	FileName string
	File     []byte
}

// tool is a quota-consuming page: a form whose submission is gated by a
// feature check and answered with a backend artifact
type tool struct {
	Path        string
	Title       string
	Description string
	Feature     string
	Upload      bool // Takes a resume file
	Fields      []toolField
	run         func(ctx context.Context, in toolInput) (*apiclient.Artifact, error)
}

var (
	fieldJobDescription = toolField{Name: "job_description", Label: "Job description", Multiline: true, Required: true}
	fieldResumeText     = toolField{Name: "resume_text", Label: "Your resume", Multiline: true}
	fieldJobTitle       = toolField{Name: "job_title", Label: "Job title"}
	fieldCompany        = toolField{Name: "company", Label: "Company"}
	fieldTone           = toolField{Name: "tone", Label: "Tone"}
)

func (s *Server) tools() []tool {
	return []tool{
		{
			Path:        RouteATS,
			Title:       "ATS check",
			Description: "Score your resume against a job description the way applicant tracking systems do.",
			Feature:     feature.ATSCheck,
			Upload:      true,
			Fields:      []toolField{fieldJobDescription},
			run: func(ctx context.Context, in toolInput) (*apiclient.Artifact, error) {
				return s.api.CheckATS(ctx, apiclient.FileUpload{
					FieldName: "resume",
					FileName:  in.FileName,
					Content:   bytes.NewReader(in.File),
				}, in.Request.JobDescription)
			},
		},
		{
			Path:        RouteResume,
			Title:       "Resume builder",
			Description: "Generate a tailored resume for a role.",
			Feature:     feature.ResumeGeneration,
			Fields:      []toolField{{Name: "job_title", Label: "Job title", Required: true}, fieldCompany, fieldResumeText, fieldJobDescription},
			run: func(ctx context.Context, in toolInput) (*apiclient.Artifact, error) {
				return s.api.GenerateResume(ctx, in.Request)
			},
		},
		{
			Path:        RouteCoverLetter,
			Title:       "Cover letter",
			Description: "Write a cover letter for a specific job.",
			Feature:     feature.CoverLetter,
			Fields:      []toolField{fieldJobTitle, fieldCompany, fieldTone, fieldResumeText, fieldJobDescription},
			run: func(ctx context.Context, in toolInput) (*apiclient.Artifact, error) {
				return s.api.GenerateCoverLetter(ctx, in.Request)
			},
		},
		{
			Path:        RouteJobFit,
			Title:       "Job fit",
			Description: "See how well your experience matches a job.",
			Feature:     feature.JobFit,
			Fields:      []toolField{fieldResumeText, fieldJobDescription},
			run: func(ctx context.Context, in toolInput) (*apiclient.Artifact, error) {
				return s.api.AnalyzeJobFit(ctx, in.Request)
			},
		},
		{
			Path:        RouteLinkedIn,
			Title:       "LinkedIn profile",
			Description: "Draft a LinkedIn headline and about section.",
			Feature:     feature.LinkedInProfile,
			Fields:      []toolField{fieldJobTitle, fieldResumeText},
			run: func(ctx context.Context, in toolInput) (*apiclient.Artifact, error) {
				return s.api.GenerateLinkedIn(ctx, in.Request)
			},
		},
	}
}

// ToolPageData contains data for rendering a tool page
type ToolPageData struct {
	Page
	Tool    tool
	Values  map[string]string
	Result  *apiclient.Artifact
	Denied  *feature.Entry // Set when the plan allowance is used up
	Failure string         // Shown in the result area rather than the page banner
}

// ToolPageHandler renders an empty tool form
func (s *Server) ToolPageHandler(t tool) http.HandlerFunc {
	tmpl := mustParseTemplate("tool.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, ToolPageData{
			Page:   s.newPage(r, t.Title),
			Tool:   t,
			Values: map[string]string{},
		})
	}
}

// ToolSubmitHandler checks the feature allowance, then runs the tool. When the
// check denies, the upgrade prompt is shown and the backend action is never called.
func (s *Server) ToolSubmitHandler(t tool) http.HandlerFunc {
	tmpl := mustParseTemplate("tool.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := ToolPageData{
			Page:   s.newPage(r, t.Title),
			Tool:   t,
			Values: map[string]string{},
		}

		input, err := parseToolInput(r, t, data.Values)
		if err != nil {
			data.Failure = err.Error()
			render(w, r, tmpl, http.StatusBadRequest, data)
			return
		}

		// The gated call may be shared with a duplicate submission and outlive this
		// request, so it reads the token from a snapshot. A 401 comes back as an
		// error and each request signs itself out below.
		ctx := session.NewContext(r.Context(), storeFrom(r).Snapshot())
		dedupeKey := submissionKey(r, t, data.Values, input.File)
		artifact, shared, err := s.runner.Run(ctx, t.Feature, dedupeKey, func(ctx context.Context) (*apiclient.Artifact, error) {
			return t.run(ctx, input)
		})
		if shared {
			log.Debug().Str("feature", t.Feature).Msg("duplicate submission coalesced")
		}

		var denied *feature.DeniedError
		switch {
		case err == nil:
			data.Result = artifact
			render(w, r, tmpl, http.StatusOK, data)
		case navigated(w) || r.Context().Err() != nil:
			return // Signed out, or the browser left
		case apperrors.Is(err, apperrors.ErrUnauthorized):
			storeFrom(r).Clear()
		case apperrors.As(err, &denied):
			data.Denied = &denied.Feature
			render(w, r, tmpl, http.StatusPaymentRequired, data)
		case apperrors.Is(err, apperrors.ErrFeatureNotAllowed):
			// Allowance ran out between the check and the action
			entry := s.runner.Gate().Catalog().Lookup(t.Feature)
			data.Denied = &entry
			render(w, r, tmpl, http.StatusPaymentRequired, data)
		case apperrors.Is(err, apperrors.ErrInvalidInput):
			data.Failure = apiclient.UserMessage(err)
			render(w, r, tmpl, http.StatusBadRequest, data)
		default:
			log.Warn().Err(err).Str("feature", t.Feature).Msg("tool action failed")
			data.Failure = apiclient.UserMessage(err)
			render(w, r, tmpl, http.StatusBadGateway, data)
		}
	}
}

// parseToolInput reads the form into values and the request sent to the backend
func parseToolInput(r *http.Request, t tool, values map[string]string) (toolInput, error) {
	var input toolInput
	if t.Upload {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return input, errors.New("Please attach your resume (max 10 MB)")
		}
	} else if err := r.ParseForm(); err != nil {
		return input, errors.New("Invalid form data")
	}

	for _, f := range t.Fields {
		value := strings.TrimSpace(r.FormValue(f.Name))
		if f.Required && value == "" {
			return input, errors.New(f.Label + " is required")
		}
		values[f.Name] = value
	}
	input.Request = apiclient.GenerateRequest{
		ResumeText:     values["resume_text"],
		JobDescription: values["job_description"],
		JobTitle:       values["job_title"],
		Company:        values["company"],
		Tone:           values["tone"],
	}

	if t.Upload {
		file, header, err := r.FormFile("resume")
		if err != nil {
			return input, errors.New("Please attach your resume")
		}
		defer file.Close()
		content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
		if err != nil || len(content) == 0 {
			return input, errors.New("The uploaded resume is empty")
		}
		input.FileName = header.Filename
		input.File = content
	}
	return input, nil
}

// submissionKey identifies a submission by its session token and inputs. Only
// requests sent with the same token are coalesced, so a shared backend call
// runs with credentials every waiting request holds.
func submissionKey(r *http.Request, t tool, values map[string]string, file []byte) string {
	parts := []string{t.Feature, storeFrom(r).Token()}
	for _, f := range t.Fields {
		parts = append(parts, values[f.Name])
	}
	if len(file) > 0 {
		sum := sha256.Sum256(file)
		parts = append(parts, hex.EncodeToString(sum[:]))
	}
	return feature.DedupeKey(parts...)
}
