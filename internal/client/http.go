package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/codescope/internal/idgen"
	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/request"
)

// RequestIDHeader carries the correlation ID of each request.
const RequestIDHeader = "X-Request-ID"

// HTTPClient implements AnalysisClient against the analysis service REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting the given base URL
// (e.g. "http://localhost:8080/api/v1"). When token is non-empty, an
// Authorization header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// BaseURL returns the service base URL.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// projectResponse is the body of the project endpoints. Status is kept raw
// because the service uses values outside ProjectStatus ("ERROR", "NOT_FOUND").
type projectResponse struct {
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func (r projectResponse) project(fallbackID string) *model.Project {
	p := &model.Project{ID: r.ProjectID, Message: r.Message}
	if p.ID == "" {
		p.ID = fallbackID
	}
	if status, ok := model.ParseProjectStatus(r.Status); ok {
		p.Status = status
	} else {
		p.Status = model.StatusProcessing
	}
	return p
}

// --- Projects ---

// CreateProject uploads archive as a multipart "file" field.
func (c *HTTPClient) CreateProject(ctx context.Context, filename string, archive io.Reader) (*model.Project, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, archive); err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, request.PathProjects, mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	if err := raw.Err(); err != nil {
		return nil, err
	}
	var resp projectResponse
	if err := json.Unmarshal(raw.Body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if resp.ProjectID == "" {
		return nil, fmt.Errorf("upload response has no project id")
	}
	return resp.project(""), nil
}

func (c *HTTPClient) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var resp projectResponse
	if err := c.doJSON(ctx, http.MethodGet, projectPath(id), nil, &resp); err != nil {
		return nil, err
	}
	return resp.project(id), nil
}

func (c *HTTPClient) DeleteProject(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, projectPath(id), nil, nil)
}

func projectPath(id string) string {
	return strings.Replace(request.PathProject, request.ProjectPlaceholder, url.PathEscape(id), 1)
}

// --- Analysis ---

func (c *HTTPClient) Invoke(ctx context.Context, projectID string, d request.Descriptor) (*RawResponse, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("invoke: empty request descriptor")
	}
	return c.do(ctx, d.Method(), d.Path(projectID), "", nil)
}

// --- transport ---

// do performs a request and reads the whole response. Transport failures
// are returned as *NetworkError; HTTP error statuses are not errors here.
func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	reqID := idgen.RequestID()
	if reqID != "" {
		req.Header.Set(RequestIDHeader, reqID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: req.URL.String(), Err: fmt.Errorf("reading response: %w", err)}
	}
	return &RawResponse{StatusCode: resp.StatusCode, Body: respBody, RequestID: reqID}, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	raw, err := c.do(ctx, method, path, contentType, bodyReader)
	if err != nil {
		return err
	}
	if err := raw.Err(); err != nil {
		return err
	}

	// 204 No Content: success with no body.
	if raw.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}
	if err := json.Unmarshal(raw.Body, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// parseAPIError extracts the service's message from an error body. The
// service answers with {"message": ...}; {"error": ...} and a bare body are
// accepted too.
func parseAPIError(status int, body []byte) *APIError {
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil {
		if errResp.Message != "" {
			return &APIError{StatusCode: status, Message: errResp.Message}
		}
		if errResp.Error != "" {
			return &APIError{StatusCode: status, Message: errResp.Error}
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
