// Package coordinator dispatches analysis requests for the views of a
// session and keeps the live result of each view.
//
// Each view has its own request generation counter. When a request
// completes after a newer one for the same view was issued, its result is
// dropped: the last issued request wins, not the last to complete. Results
// belonging to an earlier session generation are dropped as well.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/alfredjeanlab/codescope/internal/client"
	"github.com/alfredjeanlab/codescope/internal/events"
	"github.com/alfredjeanlab/codescope/internal/gate"
	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/normalize"
	"github.com/alfredjeanlab/codescope/internal/request"
	"github.com/alfredjeanlab/codescope/internal/session"
)

// UnavailableMessage is shown in place of transport errors.
const UnavailableMessage = "could not reach the analysis service"

// UnavailableError reports that a request never got a response. Its message
// is generic; the transport error is kept as the cause.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string { return UnavailableMessage }
func (e *UnavailableError) Unwrap() error { return e.Cause }

// Invoker sends a request to the analysis service. *client.HTTPClient
// implements it.
type Invoker interface {
	Invoke(ctx context.Context, projectID string, d request.Descriptor) (*client.RawResponse, error)
}

// SessionState exposes the session the coordinator dispatches for.
// *session.Machine implements it.
type SessionState interface {
	Snapshot() session.Snapshot
}

// Outcome is the settled result of one request.
type Outcome struct {
	View              model.View       `json:"view"`
	Kind              model.ResultKind `json:"kind"`
	Generation        uint64           `json:"generation"`
	SessionGeneration uint64           `json:"session_generation"`
	ProjectID         string           `json:"project_id"`
	Result            normalize.Result `json:"result,omitempty"`
	// NoMatches is set for a successful response that matched nothing.
	NoMatches bool  `json:"no_matches"`
	Err       error `json:"-"`
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithPublisher publishes every live result to p.
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// Coordinator is safe for concurrent use.
type Coordinator struct {
	state     SessionState
	invoker   Invoker
	logger    logrus.FieldLogger
	publisher events.Publisher

	mu   sync.Mutex
	gens map[model.View]uint64
	live map[model.View]*Outcome
}

// New creates a coordinator for the session exposed by state.
func New(state SessionState, invoker Invoker, opts ...Option) *Coordinator {
	c := &Coordinator{
		state:     state,
		invoker:   invoker,
		logger:    logrus.StandardLogger(),
		publisher: events.Discard,
		gens:      make(map[model.View]uint64),
		live:      make(map[model.View]*Outcome),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Dispatch sends the request described by d and waits for its result.
//
// A view the session's status does not allow is rejected with an error
// wrapping model.ErrNotReady before anything is sent. Transport failures are
// returned as *UnavailableError, error responses as *client.APIError carrying
// the service's message. When the request has been superseded by the time
// it completes, Dispatch returns nil, nil.
func (c *Coordinator) Dispatch(ctx context.Context, d request.Descriptor) (*Outcome, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("dispatch: empty request descriptor")
	}
	snap := c.state.Snapshot()
	if err := gate.Check(snap.Status, d.View()); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.gens[d.View()]++
	gen := c.gens[d.View()]
	c.mu.Unlock()

	log := c.logger.WithFields(logrus.Fields{
		"view":       d.View(),
		"generation": gen,
		"project":    snap.ProjectID,
	})
	log.WithField("path", d.Path(snap.ProjectID)).Debug("dispatching request")

	out := &Outcome{
		View:              d.View(),
		Kind:              d.Kind(),
		Generation:        gen,
		SessionGeneration: snap.Generation,
		ProjectID:         snap.ProjectID,
	}
	out.Result, out.Err = c.invoke(ctx, snap.ProjectID, d)
	if out.Err == nil {
		out.NoMatches = out.Result.Empty()
	}

	// Read the session before taking c.mu so the two locks are never nested.
	current := c.state.Snapshot().Generation

	c.mu.Lock()
	if gen != c.gens[d.View()] || current != snap.Generation {
		c.mu.Unlock()
		log.Debug("dropping superseded result")
		return nil, nil
	}
	c.live[d.View()] = out
	c.mu.Unlock()

	c.publish(ctx, out)
	if out.Err != nil {
		log.WithError(out.Err).Warn("request failed")
		return nil, out.Err
	}
	return out, nil
}

func (c *Coordinator) invoke(ctx context.Context, projectID string, d request.Descriptor) (normalize.Result, error) {
	raw, err := c.invoker.Invoke(ctx, projectID, d)
	if err != nil {
		var ne *client.NetworkError
		if errors.As(err, &ne) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &UnavailableError{Cause: err}
		}
		return nil, err
	}
	if err := raw.Err(); err != nil {
		return nil, err
	}
	return normalize.Normalize(d.Kind(), d.Anchor(), raw.Body)
}

func (c *Coordinator) publish(ctx context.Context, out *Outcome) {
	var (
		topic string
		event any
	)
	if out.Err != nil {
		topic = events.TopicViewFailed
		event = events.ViewFailed{
			ProjectID:  out.ProjectID,
			View:       out.View,
			Generation: out.Generation,
			Error:      out.Err.Error(),
		}
	} else {
		ev := events.ViewResult{
			ProjectID:  out.ProjectID,
			View:       out.View,
			Kind:       out.Kind,
			Generation: out.Generation,
			Count:      out.Result.Len(),
			NoMatches:  out.NoMatches,
		}
		if q, ok := out.Result.(normalize.QualityResult); ok {
			score := q.Score
			ev.Score = &score
		}
		topic, event = events.TopicViewResult, ev
	}
	if err := c.publisher.Publish(context.WithoutCancel(ctx), topic, event); err != nil {
		c.logger.WithError(err).WithField("topic", topic).Warn("publishing view event failed")
	}
}

// Live returns the current result of view, or nil when the view has no
// result for the current session.
func (c *Coordinator) Live(view model.View) *Outcome {
	current := c.state.Snapshot().Generation

	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.live[view]
	if out == nil || out.SessionGeneration != current {
		return nil
	}
	return out
}

// Generation returns the generation of the last request issued for view.
func (c *Coordinator) Generation(view model.View) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[view]
}
