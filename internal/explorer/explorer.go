// Package explorer wires the session state machine, the request coordinator
// and the analysis service client into the single object the CLI drives.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/alfredjeanlab/codescope/internal/client"
	"github.com/alfredjeanlab/codescope/internal/coordinator"
	"github.com/alfredjeanlab/codescope/internal/events"
	"github.com/alfredjeanlab/codescope/internal/gate"
	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/request"
	"github.com/alfredjeanlab/codescope/internal/session"
)

// ErrNoProject is returned by operations that need a project when the
// session holds none.
var ErrNoProject = errors.New("no project")

// Options configures an Explorer. Zero values select the defaults.
type Options struct {
	PollInterval    time.Duration
	MaxArchiveBytes int64
	// MaxResults is sent with searches that do not set their own limit.
	MaxResults int
	Clock      clock.WithTicker
	Logger     logrus.FieldLogger
	Publisher  events.Publisher
}

// Explorer is one exploration session against the analysis service.
type Explorer struct {
	client     client.AnalysisClient
	machine    *session.Machine
	coord      *coordinator.Coordinator
	publisher  events.Publisher
	logger     logrus.FieldLogger
	maxArchive int64
	maxResults int

	mu      sync.Mutex
	changed chan struct{}
	// projects known to exist whose analysis may not be stored yet
	pending map[string]bool
}

// New creates an explorer using c to reach the analysis service.
func New(c client.AnalysisClient, opts Options) *Explorer {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Discard
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.MaxArchiveBytes <= 0 {
		opts.MaxArchiveBytes = request.DefaultMaxArchiveBytes
	}

	e := &Explorer{
		client:     c,
		publisher:  opts.Publisher,
		logger:     opts.Logger,
		maxArchive: opts.MaxArchiveBytes,
		maxResults: opts.MaxResults,
		changed:    make(chan struct{}),
		pending:    make(map[string]bool),
	}
	e.machine = session.New(statusChecker{c: c, pending: e.isPending},
		session.WithClock(opts.Clock),
		session.WithPollInterval(opts.PollInterval),
		session.WithLogger(opts.Logger),
		session.WithListener(e.onSessionEvent),
	)
	e.coord = coordinator.New(e.machine, c,
		coordinator.WithLogger(opts.Logger),
		coordinator.WithPublisher(opts.Publisher),
	)
	return e
}

// statusChecker adapts the client for status polling. The service answers
// 404 for a project whose analysis has not been stored yet, so for a project
// known to exist not found means still processing. For any other id it is
// an error.
type statusChecker struct {
	c       client.AnalysisClient
	pending func(id string) bool
}

func (s statusChecker) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := s.c.GetProject(ctx, id)
	if client.IsNotFound(err) && s.pending(id) {
		return &model.Project{ID: id, Status: model.StatusProcessing}, nil
	}
	return p, err
}

func (e *Explorer) isPending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[id]
}

func (e *Explorer) markPending(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending[id] = true
}

func (e *Explorer) onSessionEvent(ev session.Event) {
	ctx := context.Background()
	var err error
	switch ev.Kind {
	case session.EventPollError:
		err = e.publisher.Publish(ctx, events.TopicSessionPollError, events.SessionPollError{
			SessionID: ev.SessionID,
			ProjectID: ev.ProjectID,
			Error:     ev.Error,
			At:        ev.At,
		})
	default:
		err = e.publisher.Publish(ctx, events.TopicSessionTransition, events.SessionTransition{
			SessionID:  ev.SessionID,
			Generation: ev.Generation,
			ProjectID:  ev.ProjectID,
			From:       ev.From,
			To:         ev.To,
			Error:      ev.Error,
			At:         ev.At,
		})
	}
	if err != nil {
		e.logger.WithError(err).Warn("publishing session event failed")
	}

	e.mu.Lock()
	close(e.changed)
	e.changed = make(chan struct{})
	e.mu.Unlock()
}

func (e *Explorer) changedCh() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changed
}

// Snapshot returns the session state.
func (e *Explorer) Snapshot() session.Snapshot { return e.machine.Snapshot() }

// Views returns the views reachable in the current state.
func (e *Explorer) Views() []model.View { return gate.ReachableViews(e.machine.Status()) }

// Subscribe registers a listener for session events.
func (e *Explorer) Subscribe(l session.Listener) { e.machine.Subscribe(l) }

// Live returns the current result of view.
func (e *Explorer) Live(view model.View) *coordinator.Outcome { return e.coord.Live(view) }

// Upload validates the archive, then uploads it as a new project. An
// invalid archive is rejected before the session changes.
func (e *Explorer) Upload(ctx context.Context, name string, size int64, archive io.Reader) (session.Snapshot, error) {
	if err := request.ValidateArchive(name, size, e.maxArchive); err != nil {
		return e.machine.Snapshot(), err
	}
	gen, err := e.machine.SubmitUpload()
	if err != nil {
		return session.Snapshot{}, err
	}

	p, err := e.client.CreateProject(ctx, filepath.Base(name), archive)
	if err != nil {
		e.machine.UploadFailed(gen, err)
		return e.machine.Snapshot(), fmt.Errorf("uploading %s: %w", filepath.Base(name), err)
	}
	e.markPending(p.ID)
	e.machine.UploadAccepted(gen, p.ID, p.Status, p.Message)
	return e.machine.Snapshot(), nil
}

// UploadFile uploads the archive at path.
func (e *Explorer) UploadFile(ctx context.Context, path string) (session.Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return e.machine.Snapshot(), fmt.Errorf("reading archive: %w", err)
	}
	if info.IsDir() {
		return e.machine.Snapshot(), request.ValidateArchive(path, 0, e.maxArchive)
	}
	if err := request.ValidateArchive(path, info.Size(), e.maxArchive); err != nil {
		return e.machine.Snapshot(), err
	}
	f, err := os.Open(path)
	if err != nil {
		return e.machine.Snapshot(), fmt.Errorf("reading archive: %w", err)
	}
	defer f.Close()
	return e.Upload(ctx, path, info.Size(), f)
}

// Resume attaches the session to an existing project. A project the
// service does not know fails with a not found *client.APIError and leaves
// the session without a project.
func (e *Explorer) Resume(ctx context.Context, projectID string) (session.Snapshot, error) {
	snap, err := e.machine.Resume(ctx, projectID)
	if err == nil && snap.Status == model.StatusProcessing {
		e.markPending(projectID)
	}
	return snap, err
}

// ResumeUploaded attaches the session to a project this client uploaded
// earlier. Its analysis may not be stored yet, so not found is reported as
// Processing and polled until it appears.
func (e *Explorer) ResumeUploaded(ctx context.Context, projectID string) (session.Snapshot, error) {
	e.markPending(projectID)
	return e.machine.Resume(ctx, projectID)
}

// WaitReady blocks until the project leaves Uploading and Processing, and
// returns the final state. A Failed project is not an error.
func (e *Explorer) WaitReady(ctx context.Context) (session.Snapshot, error) {
	for {
		ch := e.changedCh()
		snap := e.machine.Snapshot()
		switch snap.Status {
		case model.StatusReady, model.StatusFailed:
			return snap, nil
		case model.StatusNone:
			if snap.LastError != "" {
				return snap, fmt.Errorf("%w: upload failed: %s", ErrNoProject, snap.LastError)
			}
			return snap, ErrNoProject
		}
		select {
		case <-ctx.Done():
			return snap, ctx.Err()
		case <-ch:
		}
	}
}

// Discard deletes the project from the analysis service and returns the
// session to NoProject.
func (e *Explorer) Discard(ctx context.Context) error {
	snap := e.machine.Snapshot()
	if snap.ProjectID == "" {
		return ErrNoProject
	}
	if err := e.client.DeleteProject(ctx, snap.ProjectID); err != nil {
		return fmt.Errorf("deleting project %s: %w", snap.ProjectID, err)
	}
	e.machine.Reset()
	return nil
}

// Search runs a search in the search view.
func (e *Explorer) Search(ctx context.Context, q model.SearchQuery) (*coordinator.Outcome, error) {
	if q.Limit == 0 {
		q.Limit = e.maxResults
	}
	d, err := request.BuildSearch(q)
	if err != nil {
		return nil, err
	}
	return e.coord.Dispatch(ctx, d)
}

// Semantic runs a semantic analysis in the semantic view.
func (e *Explorer) Semantic(ctx context.Context, r model.SemanticRequest) (*coordinator.Outcome, error) {
	d, err := request.BuildSemantic(r)
	if err != nil {
		return nil, err
	}
	return e.coord.Dispatch(ctx, d)
}

// Quality fetches quality issues and their score in the quality view.
func (e *Explorer) Quality(ctx context.Context, q model.QualityQuery) (*coordinator.Outcome, error) {
	d, err := request.BuildQuality(q)
	if err != nil {
		return nil, err
	}
	return e.coord.Dispatch(ctx, d)
}

// Close stops status polling and releases the client.
func (e *Explorer) Close() error {
	e.machine.Close()
	return e.client.Close()
}
