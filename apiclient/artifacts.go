package apiclient

import (
	"context"
	"io"
	"net/http"

	"github.com/jrsteele09/resumeforge-web/users"
)

// Artifact kinds
const (
	KindATS         = "ats"
	KindResume      = "resume"
	KindCoverLetter = "cover_letter"
	KindJobFit      = "job_fit"
	KindLinkedIn    = "linkedin"
)

// CheckATS uploads a resume and job description for an ATS compatibility score
func (c *Client) CheckATS(ctx context.Context, resume FileUpload, jobDescription string) (*Artifact, error) {
	if resume.FieldName == "" {
		resume.FieldName = "resume"
	}
	fields := map[string]string{"job_description": jobDescription}

	data := map[string]any{}
	if err := c.doMultipart(ctx, "/ats/check", fields, &resume, &data); err != nil {
		return nil, err
	}
	return &Artifact{Kind: KindATS, Data: data}, nil
}

// GenerateResume produces resume content
func (c *Client) GenerateResume(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	return c.generate(ctx, KindResume, "/resume/generate", req)
}

// GenerateCoverLetter produces a cover letter
func (c *Client) GenerateCoverLetter(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	return c.generate(ctx, KindCoverLetter, "/cover-letter/generate", req)
}

// AnalyzeJobFit scores a resume against a job description
func (c *Client) AnalyzeJobFit(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	return c.generate(ctx, KindJobFit, "/job-fit/analyze", req)
}

// GenerateLinkedIn produces LinkedIn profile text
func (c *Client) GenerateLinkedIn(ctx context.Context, req GenerateRequest) (*Artifact, error) {
	return c.generate(ctx, KindLinkedIn, "/linkedin/generate", req)
}

func (c *Client) generate(ctx context.Context, kind, path string, req GenerateRequest) (*Artifact, error) {
	data := map[string]any{}
	if err := c.doJSON(ctx, http.MethodPost, path, req, &data); err != nil {
		return nil, err
	}
	return &Artifact{Kind: kind, Data: data}, nil
}

// UpdateProfile saves profile edits and returns the stored profile
func (c *Client) UpdateProfile(ctx context.Context, changes users.ProfileChanges) (*users.Profile, error) {
	var profile users.Profile
	if err := c.doJSON(ctx, http.MethodPut, "/profile", changes, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListTemplates returns the available resume templates
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var resp struct {
		Templates []Template `json:"templates"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}

// DownloadTemplate streams the rendered PDF for templateID into w
func (c *Client) DownloadTemplate(ctx context.Context, templateID string, w io.Writer) (contentType string, err error) {
	return c.stream(ctx, "/templates/"+escape(templateID)+"/download", w)
}
