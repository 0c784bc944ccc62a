package model

import "strings"

// ProjectStatus is the readiness of an uploaded project as reported by the
// analysis service. The zero value means no project is held by the session.
type ProjectStatus string

const (
	StatusNone       ProjectStatus = ""
	StatusUploading  ProjectStatus = "UPLOADING"
	StatusProcessing ProjectStatus = "PROCESSING"
	StatusReady      ProjectStatus = "READY"
	StatusFailed     ProjectStatus = "FAILED"
)

// String returns the string representation of the status.
func (s ProjectStatus) String() string {
	if s == StatusNone {
		return "NO_PROJECT"
	}
	return string(s)
}

// IsValid reports whether s is one of the known statuses (including StatusNone).
func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusNone, StatusUploading, StatusProcessing, StatusReady, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further status changes are expected.
func (s ProjectStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// ParseProjectStatus maps a status string returned by the analysis service
// to a ProjectStatus. The service reports analysis errors as "ERROR"; those
// are folded into StatusFailed. Unknown values report ok=false.
func ParseProjectStatus(raw string) (ProjectStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "UPLOADING":
		return StatusUploading, true
	case "PROCESSING":
		return StatusProcessing, true
	case "READY":
		return StatusReady, true
	case "FAILED", "ERROR":
		return StatusFailed, true
	}
	return StatusNone, false
}

// Project is the single project a session works against.
type Project struct {
	ID      string        `json:"projectId"`
	Status  ProjectStatus `json:"status"`
	Message string        `json:"message,omitempty"`
}

// View identifies one of the navigable views of an exploration session.
type View string

const (
	ViewUpload   View = "upload"
	ViewSearch   View = "search"
	ViewSemantic View = "semantic"
	ViewQuality  View = "quality"
)

// AllViews lists every view in navigation order.
var AllViews = []View{ViewUpload, ViewSearch, ViewSemantic, ViewQuality}

// String returns the string representation of the view.
func (v View) String() string {
	return string(v)
}

// IsValid reports whether v is a known view.
func (v View) IsValid() bool {
	switch v {
	case ViewUpload, ViewSearch, ViewSemantic, ViewQuality:
		return true
	}
	return false
}
