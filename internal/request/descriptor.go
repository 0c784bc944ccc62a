// Package request validates user-supplied search and analysis parameters and
// turns them into immutable request descriptors for the analysis service.
// Nothing in this package performs I/O.
package request

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// ProjectPlaceholder is substituted with the escaped project id by Path.
const ProjectPlaceholder = "{id}"

// Param is one query parameter. Descriptors keep parameters in the order
// they were added.
type Param struct {
	Key   string
	Value string
}

// Descriptor describes one call to the analysis service. It is built only by
// the Build* functions and cannot be modified afterwards.
type Descriptor struct {
	view     model.View
	kind     model.ResultKind
	method   string
	template string
	params   []Param
	anchor   string // method the request is centred on
}

func newDescriptor(view model.View, kind model.ResultKind, template string, params ...Param) Descriptor {
	return Descriptor{
		view:     view,
		kind:     kind,
		method:   http.MethodGet,
		template: template,
		params:   params,
	}
}

// View returns the view the request belongs to.
func (d Descriptor) View() model.View { return d.view }

// Kind returns the result kind the response must be normalized as.
func (d Descriptor) Kind() model.ResultKind { return d.kind }

// Method returns the HTTP method.
func (d Descriptor) Method() string { return d.method }

// PathTemplate returns the path with the project placeholder unexpanded.
func (d Descriptor) PathTemplate() string { return d.template }

// Anchor returns the method id the request is centred on, if any.
func (d Descriptor) Anchor() string { return d.anchor }

// Params returns a copy of the ordered parameter list.
func (d Descriptor) Params() []Param {
	out := make([]Param, len(d.params))
	copy(out, d.params)
	return out
}

// Param returns the value of the first parameter named key.
func (d Descriptor) Param(key string) (string, bool) {
	for _, p := range d.params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// IsZero reports whether d was not produced by a builder.
func (d Descriptor) IsZero() bool { return d.template == "" }

// Path expands the template for projectID and appends the encoded query
// string, preserving parameter order.
func (d Descriptor) Path(projectID string) string {
	path := strings.ReplaceAll(d.template, ProjectPlaceholder, url.PathEscape(projectID))
	if len(d.params) == 0 {
		return path
	}
	parts := make([]string, len(d.params))
	for i, p := range d.params {
		parts[i] = url.QueryEscape(p.Key) + "=" + url.QueryEscape(p.Value)
	}
	return path + "?" + strings.Join(parts, "&")
}
