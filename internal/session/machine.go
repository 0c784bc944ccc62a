// Package session owns the project a user is exploring: its identity, its
// readiness status, and the status polling that runs while the analysis
// service is still processing it.
//
// Every upload starts a new generation. Results that belong to an older
// generation (a late upload response, a poll that was in flight when the
// user started over) are dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// DefaultPollInterval is how often project status is checked while the
// project is processing.
const DefaultPollInterval = 3000 * time.Millisecond

// ErrClosed is returned by operations on a machine that has been closed.
var ErrClosed = errors.New("session closed")

// StatusChecker fetches the current state of a project from the analysis
// service.
type StatusChecker interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
}

// EventKind distinguishes status transitions from transient poll failures.
type EventKind string

const (
	EventTransition EventKind = "transition"
	EventPollError  EventKind = "poll_error"
)

// Event is delivered to listeners after the machine's state changes or a
// status poll fails.
type Event struct {
	Kind       EventKind           `json:"kind"`
	SessionID  string              `json:"session_id"`
	Generation uint64              `json:"generation"`
	ProjectID  string              `json:"project_id,omitempty"`
	From       model.ProjectStatus `json:"from"`
	To         model.ProjectStatus `json:"to"`
	Error      string              `json:"error,omitempty"`
	At         time.Time           `json:"at"`
}

// Listener receives machine events. Listeners are called without the
// machine lock held and may call back into the machine.
type Listener func(Event)

// Snapshot is a consistent view of the machine's state.
type Snapshot struct {
	SessionID  string              `json:"session_id,omitempty"`
	Generation uint64              `json:"generation"`
	Status     model.ProjectStatus `json:"status"`
	ProjectID  string              `json:"project_id,omitempty"`
	Message    string              `json:"message,omitempty"`
	// LastError is the reason the last upload was rejected.
	LastError string `json:"last_error,omitempty"`
	// PollError is the most recent transient polling failure; cleared by
	// the next successful poll.
	PollError string `json:"poll_error,omitempty"`
	Polling   bool   `json:"polling"`
}

// Project returns the project held by the session, or nil.
func (s Snapshot) Project() *model.Project {
	if s.ProjectID == "" {
		return nil
	}
	return &model.Project{ID: s.ProjectID, Status: s.Status, Message: s.Message}
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the clock used for the polling ticker and event times.
func WithClock(c clock.WithTicker) Option {
	return func(m *Machine) { m.clock = c }
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) Option {
	return func(m *Machine) { m.listeners = append(m.listeners, l) }
}

// Machine is the session state machine:
//
//	NoProject  --SubmitUpload-->    Uploading
//	Uploading  --UploadAccepted-->  Processing | Ready | Failed
//	Uploading  --UploadFailed-->    NoProject
//	Processing --poll-->            Processing | Ready | Failed
//	any        --SubmitUpload-->    Uploading
//	any        --Reset-->           NoProject
//
// A polling ticker runs only while the status is Processing. A Machine is
// safe for concurrent use.
type Machine struct {
	checker  StatusChecker
	clock    clock.WithTicker
	interval time.Duration
	logger   logrus.FieldLogger

	mu        sync.Mutex
	listeners []Listener
	sessionID string
	gen       uint64
	status    model.ProjectStatus
	projectID string
	message   string
	lastErr   string
	pollErr   string
	poller    *poller
	// highest poll sequence applied for the current poller
	lastPollSeq uint64
	pollStarts  int
	closed      bool
}

// New creates a machine with no project. checker is consulted by status
// polling and Resume.
func New(checker StatusChecker, opts ...Option) *Machine {
	m := &Machine{
		checker:  checker,
		clock:    clock.RealClock{},
		interval: DefaultPollInterval,
		logger:   logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Subscribe registers a listener for subsequent events.
func (m *Machine) Subscribe(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	return Snapshot{
		SessionID:  m.sessionID,
		Generation: m.gen,
		Status:     m.status,
		ProjectID:  m.projectID,
		Message:    m.message,
		LastError:  m.lastErr,
		PollError:  m.pollErr,
		Polling:    m.poller != nil,
	}
}

// Status returns the current project status.
func (m *Machine) Status() model.ProjectStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Generation returns the current session generation.
func (m *Machine) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// SubmitUpload starts a new generation in the Uploading state, discarding
// the previous project and cancelling its polling. The returned generation
// must be passed to UploadAccepted or UploadFailed.
func (m *Machine) SubmitUpload() (uint64, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, ErrClosed
	}
	m.stopPollingLocked()
	from := m.status
	m.gen++
	m.sessionID = uuid.New().String()
	m.projectID = ""
	m.message = ""
	m.lastErr = ""
	m.pollErr = ""
	m.status = model.StatusUploading
	ev := m.eventLocked(EventTransition, from, "")
	gen := m.gen
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{"session": ev.SessionID, "generation": gen}).Info("upload started")
	m.emit(ev)
	return gen, nil
}

// UploadAccepted records the service's answer to the upload of generation
// gen. It reports false when gen has been superseded and the answer was
// dropped. A status that is neither Ready nor Failed is treated as
// Processing and starts polling.
func (m *Machine) UploadAccepted(gen uint64, projectID string, status model.ProjectStatus, message string) bool {
	m.mu.Lock()
	if m.closed || gen != m.gen || m.status != model.StatusUploading {
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{"generation": gen, "project": projectID}).Debug("dropping stale upload response")
		return false
	}
	if !status.IsTerminal() {
		status = model.StatusProcessing
	}
	m.projectID = projectID
	m.message = message
	ev := m.transitionLocked(status)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session":    ev.SessionID,
		"generation": gen,
		"project":    projectID,
		"status":     status,
	}).Info("upload accepted")
	m.emit(ev)
	return true
}

// UploadFailed returns generation gen to NoProject, recording err as the
// reason. It reports false when gen has been superseded.
func (m *Machine) UploadFailed(gen uint64, err error) bool {
	m.mu.Lock()
	if m.closed || gen != m.gen || m.status != model.StatusUploading {
		m.mu.Unlock()
		return false
	}
	if err != nil {
		m.lastErr = err.Error()
	}
	ev := m.transitionLocked(model.StatusNone)
	ev.Error = m.lastErr
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{"session": ev.SessionID, "generation": gen}).WithError(err).Warn("upload failed")
	m.emit(ev)
	return true
}

// Resume attaches a new generation to an existing project: the machine
// passes through Uploading and applies the project's current status as if
// it had just been accepted.
func (m *Machine) Resume(ctx context.Context, projectID string) (Snapshot, error) {
	gen, err := m.SubmitUpload()
	if err != nil {
		return Snapshot{}, err
	}
	p, err := m.checker.GetProject(ctx, projectID)
	if err != nil {
		m.UploadFailed(gen, err)
		return m.Snapshot(), fmt.Errorf("resuming project %s: %w", projectID, err)
	}
	status := p.Status
	if !status.IsValid() || status == model.StatusNone {
		status = model.StatusProcessing
	}
	m.UploadAccepted(gen, projectID, status, p.Message)
	return m.Snapshot(), nil
}

// Reset discards the project and returns to NoProject.
func (m *Machine) Reset() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.projectID = ""
	m.message = ""
	m.lastErr = ""
	m.pollErr = ""
	ev := m.transitionLocked(model.StatusNone)
	m.mu.Unlock()

	m.logger.WithField("generation", ev.Generation).Info("session reset")
	m.emit(ev)
}

// Close stops polling. Later operations are no-ops or return ErrClosed.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopPollingLocked()
	m.closed = true
}

// transitionLocked moves to status, starting or stopping the poller to
// match, and returns the event to emit once the lock is released.
func (m *Machine) transitionLocked(status model.ProjectStatus) Event {
	from := m.status
	m.status = status
	if status == model.StatusProcessing {
		if m.poller == nil {
			m.startPollingLocked()
		}
	} else {
		m.stopPollingLocked()
	}
	return m.eventLocked(EventTransition, from, "")
}

func (m *Machine) eventLocked(kind EventKind, from model.ProjectStatus, errMsg string) Event {
	return Event{
		Kind:       kind,
		SessionID:  m.sessionID,
		Generation: m.gen,
		ProjectID:  m.projectID,
		From:       from,
		To:         m.status,
		Error:      errMsg,
		At:         m.clock.Now(),
	}
}

func (m *Machine) startPollingLocked() {
	gen, id := m.gen, m.projectID
	m.lastPollSeq = 0
	m.pollStarts++
	m.poller = startPoller(m.clock, m.interval, func(ctx context.Context, seq uint64) {
		m.check(ctx, gen, seq, id)
	})
	m.logger.WithFields(logrus.Fields{"project": id, "interval": m.interval, "starts": m.pollStarts}).Debug("status polling started")
}

// stopPollingLocked stops the poller. The poller loop never takes m.mu, so
// waiting for it here cannot deadlock.
func (m *Machine) stopPollingLocked() {
	if m.poller == nil {
		return
	}
	m.poller.stop()
	m.poller = nil
	m.logger.WithField("project", m.projectID).Debug("status polling stopped")
}

func (m *Machine) check(ctx context.Context, gen, seq uint64, projectID string) {
	p, err := m.checker.GetProject(ctx, projectID)
	if err != nil && ctx.Err() != nil {
		// Polling was stopped while the check was in flight.
		return
	}
	m.applyPoll(gen, seq, p, err)
}

// applyPoll applies the result of poll seq of generation gen. Results from
// an older generation, from a poll older than one already applied, or
// arriving after the machine left Processing are dropped.
func (m *Machine) applyPoll(gen, seq uint64, p *model.Project, err error) {
	m.mu.Lock()
	if m.closed || gen != m.gen || m.status != model.StatusProcessing || seq <= m.lastPollSeq {
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{"generation": gen, "seq": seq}).Debug("dropping stale poll result")
		return
	}
	m.lastPollSeq = seq

	if err != nil {
		m.pollErr = err.Error()
		ev := m.eventLocked(EventPollError, m.status, m.pollErr)
		m.mu.Unlock()
		m.logger.WithFields(logrus.Fields{"project": ev.ProjectID, "seq": seq}).WithError(err).Warn("status poll failed")
		m.emit(ev)
		return
	}

	m.pollErr = ""
	if p == nil || !p.Status.IsTerminal() {
		m.mu.Unlock()
		return
	}
	if p.Message != "" {
		m.message = p.Message
	}
	ev := m.transitionLocked(p.Status)
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session":    ev.SessionID,
		"generation": gen,
		"project":    ev.ProjectID,
		"status":     ev.To,
	}).Info("project status changed")
	m.emit(ev)
}

func (m *Machine) emit(ev Event) {
	m.mu.Lock()
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l(ev)
	}
}
