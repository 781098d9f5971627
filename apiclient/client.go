// Package apiclient is the HTTP client for the AI backend. Every call goes
// through one transport that attaches the caller's bearer token and signs the
// caller out when the backend answers 401. Failed calls are never retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client is the backend API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithBaseTransport replaces the underlying transport (the auth interceptor still wraps it)
func WithBaseTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.httpClient.Transport = &authTransport{base: rt}
	}
}

// New creates a client for baseURL + versionPrefix (e.g. "http://localhost:5000" + "/api/v1").
// A zero timeout leaves calls bounded only by their context.
func New(baseURL, versionPrefix string, timeout time.Duration, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + versionPrefix,
		httpClient: &http.Client{
			Transport: &authTransport{base: http.DefaultTransport},
			Timeout:   timeout,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// BaseURL returns the versioned base address calls are made against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FileUpload is a file sent as a multipart part
type FileUpload struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends body (if any) as JSON and decodes the response into out (if any)
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := c.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// doMultipart sends fields and an optional file as multipart/form-data
func (c *Client) doMultipart(ctx context.Context, path string, fields map[string]string, file *FileUpload, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return errors.Wrapf(err, "failed to write field %s", name)
		}
	}
	if file != nil {
		part, err := mw.CreateFormFile(file.FieldName, file.FileName)
		if err != nil {
			return errors.Wrap(err, "failed to create file part")
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return errors.Wrap(err, "failed to copy file content")
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "failed to close multipart body")
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrapf(err, "failed to decode response from %s", req.URL.Path)
		}
	}
	return nil
}

// stream performs a GET and copies a successful body into w
func (c *Client) stream(ctx context.Context, path string, w io.Writer) (contentType string, err error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", errors.Wrapf(err, "failed to stream %s", path)
	}
	return resp.Header.Get("Content-Type"), nil
}

func escape(segment string) string {
	return url.PathEscape(segment)
}
