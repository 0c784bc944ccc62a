// Package client provides the interface the orchestration layer uses to reach
// the code analysis service, and an HTTP/JSON implementation of it.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/request"
)

// AnalysisClient is implemented by HTTPClient and by test doubles.
type AnalysisClient interface {
	// Projects
	CreateProject(ctx context.Context, filename string, archive io.Reader) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// Invoke sends the request described by d for project projectID and
	// returns the response whatever its status. Only transport failures are
	// returned as errors, as *NetworkError.
	Invoke(ctx context.Context, projectID string, d request.Descriptor) (*RawResponse, error)

	// Lifecycle
	Close() error
}

// RawResponse is an undecoded response from the analysis service.
type RawResponse struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// OK reports whether the response has a 2xx status.
func (r *RawResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Err returns the *APIError carried by a non-2xx response, or nil.
func (r *RawResponse) Err() error {
	if r.OK() {
		return nil
	}
	return parseAPIError(r.StatusCode, r.Body)
}

// APIError is an error response from the analysis service. Message is the
// service's own message, unmodified.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure: the service could not be
// reached or the connection broke before a response was read.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err is or wraps a *NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsNotFound reports whether err is an *APIError with status 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}
