// Package events publishes session and view activity to an event bus so
// that other processes (for example `scope watch`) can follow an
// exploration session.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// Event topic constants
const (
	// TopicPrefix is shared by every topic; subscribe to TopicAll to receive
	// everything.
	TopicPrefix = "scope."
	TopicAll    = "scope.>"

	TopicSessionTransition = "scope.session.transition"
	TopicSessionPollError  = "scope.session.poll_error"

	TopicViewResult = "scope.view.result"
	TopicViewFailed = "scope.view.failed"
)

// Event types

// SessionTransition is published whenever the project status changes.
type SessionTransition struct {
	SessionID  string              `json:"session_id"`
	Generation uint64              `json:"generation"`
	ProjectID  string              `json:"project_id,omitempty"`
	From       model.ProjectStatus `json:"from"`
	To         model.ProjectStatus `json:"to"`
	Error      string              `json:"error,omitempty"`
	At         time.Time           `json:"at"`
}

// SessionPollError is published when a status poll could not reach the
// analysis service.
type SessionPollError struct {
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	Error     string    `json:"error"`
	At        time.Time `json:"at"`
}

// ViewResult is published when a view's live result is replaced.
type ViewResult struct {
	ProjectID  string              `json:"project_id"`
	View       model.View          `json:"view"`
	Kind       model.ResultKind    `json:"kind"`
	Generation uint64              `json:"generation"`
	Count      int                 `json:"count"`
	NoMatches  bool                `json:"no_matches"`
	Score      *model.QualityScore `json:"score,omitempty"`
}

// ViewFailed is published when the live request of a view fails.
type ViewFailed struct {
	ProjectID  string     `json:"project_id"`
	View       model.View `json:"view"`
	Generation uint64     `json:"generation"`
	Error      string     `json:"error"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Discard drops every event. It stands in when no event bus is configured.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, string, any) error { return nil }
func (discard) Close() error                               { return nil }
