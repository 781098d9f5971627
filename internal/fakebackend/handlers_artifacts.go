package fakebackend

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/resumeforge-web/users"
)

type generateRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"job_description"`
	JobTitle       string `json:"job_title"`
	Company        string `json:"company"`
	Tone           string `json:"tone"`
}

type artifactFunc func(req generateRequest) map[string]any

func (b *Backend) quotaExceeded(w http.ResponseWriter, feature string) {
	writeError(w, http.StatusPaymentRequired, "quota_exceeded", fmt.Sprintf("Your plan does not allow more %s", strings.ReplaceAll(feature, "_", " ")))
}

func (b *Backend) generator(feature string, build artifactFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
			return
		}
		if !b.consume(accountFrom(r), feature) {
			b.quotaExceeded(w, feature)
			return
		}
		writeJSON(w, http.StatusOK, build(req))
	}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func resumeArtifact(req generateRequest) map[string]any {
	title := orDefault(req.JobTitle, "Professional")
	return map[string]any{
		"headline": fmt.Sprintf("%s with a record of measurable impact", title),
		"summary":  fmt.Sprintf("Results-driven %s seeking to bring proven skills to %s.", strings.ToLower(title), orDefault(req.Company, "a growing team")),
		"sections": []string{"Experience", "Skills", "Education"},
	}
}

func coverLetterArtifact(req generateRequest) map[string]any {
	return map[string]any{
		"letter": fmt.Sprintf("Dear Hiring Manager,\n\nI am excited to apply for the %s role at %s.\n\nKind regards",
			orDefault(req.JobTitle, "open"), orDefault(req.Company, "your company")),
		"tone": orDefault(req.Tone, "professional"),
	}
}

func jobFitArtifact(req generateRequest) map[string]any {
	score := 40 + len(req.JobDescription)%55
	return map[string]any{
		"fit_score": score,
		"strengths": []string{"Relevant experience", "Transferable skills"},
		"gaps":      []string{"Industry certifications"},
	}
}

func linkedInArtifact(req generateRequest) map[string]any {
	return map[string]any{
		"headline": fmt.Sprintf("%s | Building things that matter", orDefault(req.JobTitle, "Professional")),
		"about":    "I turn ambiguous problems into shipped products.",
	}
}

func (b *Backend) handleATS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Expected multipart form")
		return
	}
	file, header, err := r.FormFile("resume")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Resume file is required")
		return
	}
	defer file.Close()
	content, _ := io.ReadAll(io.LimitReader(file, 10<<20))
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "Resume file is empty")
		return
	}

	if !b.consume(accountFrom(r), "ats_using") {
		b.quotaExceeded(w, "ats_using")
		return
	}

	description := strings.ToLower(r.FormValue("job_description"))
	text := strings.ToLower(string(content))
	var matched, missing []string
	for _, keyword := range strings.Fields(description) {
		if len(keyword) < 4 {
			continue
		}
		if strings.Contains(text, keyword) {
			matched = append(matched, keyword)
		} else {
			missing = append(missing, keyword)
		}
	}
	score := 100
	if total := len(matched) + len(missing); total > 0 {
		score = len(matched) * 100 / total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_name":        header.Filename,
		"score":            score,
		"matched_keywords": matched,
		"missing_keywords": missing,
	})
}

type template struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Premium bool   `json:"premium"`
}

var templates = []template{
	{ID: "classic", Name: "Classic"},
	{ID: "modern", Name: "Modern"},
	{ID: "executive", Name: "Executive", Premium: true},
}

func (b *Backend) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (b *Backend) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var found *template
	for i := range templates {
		if templates[i].ID == id {
			found = &templates[i]
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, "not_found", "Template not found")
		return
	}

	account := accountFrom(r)
	if found.Premium && account.Plan != users.PlanPremium && account.Plan != users.PlanPro {
		b.quotaExceeded(w, "template_download")
		return
	}
	if !b.consume(account, "template_download") {
		b.quotaExceeded(w, "template_download")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, found.ID))
	_, _ = fmt.Fprintf(w, "%%PDF-1.4\n%% %s resume template\n%%%%EOF\n", found.Name)
}
