// Package collabtest runs an in-process fake of the code analysis service
// for tests. It serves the same REST API under /api/v1, answering every
// project with the data of a Fixture.
package collabtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// BasePath is the API prefix served by the fake.
const BasePath = "/api/v1"

// Request is a request received by the fake.
type Request struct {
	Method    string
	Path      string
	Query     string
	RequestID string
}

type project struct {
	id      string
	polls   int
	failed  bool
	deleted bool
}

type failure struct {
	status  int
	message string
}

// Server is a fake analysis service. Projects become ready after
// ReadyAfterPolls status checks; until then the status endpoint answers 404
// NOT_FOUND, as the real service does while analysis is running.
type Server struct {
	fx     Fixture
	router chi.Router

	mu              sync.Mutex
	readyAfterPolls int
	failAnalysis    bool
	nextID          int
	projects        map[string]*project
	requests        []Request
	failures        map[string]failure
}

// New creates a fake serving fx.
func New(fx Fixture) *Server {
	s := &Server{
		fx:       fx,
		projects: make(map[string]*project),
		failures: make(map[string]failure),
	}
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route(BasePath, func(r chi.Router) {
		r.Post("/projects", s.handleUpload)
		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", s.handleStatus)
			r.Delete("/", s.handleDelete)
			r.Group(func(r chi.Router) {
				r.Use(s.requireReady)
				r.Get("/search", s.handleSearch)
				r.Get("/search/semantic", s.handleSemanticSearch)
				r.Get("/search/relation", s.handleRelationSearch)
				r.Get("/semantic/calls", s.handleCalls)
				r.Get("/semantic/dataflow", s.handleDataFlow)
				r.Get("/semantic/similar", s.handleSimilar)
				r.Get("/semantic/concepts", s.handleConcepts)
				r.Get("/semantic/quality", s.handleQuality)
			})
		})
	})
	s.router = r
	return s
}

// Start serves a fake on an httptest server that is closed when t ends. It
// returns the fake and the API base URL.
func Start(t testing.TB, fx Fixture) (*Server, string) {
	t.Helper()
	s := New(fx)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return s, srv.URL + BasePath
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetReadyAfterPolls sets how many status checks a new project answers
// NOT_FOUND before it is ready.
func (s *Server) SetReadyAfterPolls(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyAfterPolls = n
}

// SetFailAnalysis makes new projects end in the ERROR status.
func (s *Server) SetFailAnalysis(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAnalysis = fail
}

// FailPath makes every request whose path ends with suffix answer status with
// {"message": message}.
func (s *Server) FailPath(suffix string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[suffix] = failure{status: status, message: message}
}

// AddReadyProject registers a project that is already analyzed.
func (s *Server) AddReadyProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[id] = &project{id: id, polls: s.readyAfterPolls}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountPath returns how many requests were received for path (relative to
// BasePath).
func (s *Server) CountPath(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Path == BasePath+path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			Query:     r.URL.RawQuery,
			RequestID: r.Header.Get("X-Request-ID"),
		})
		var injected *failure
		for suffix, f := range s.failures {
			if strings.HasSuffix(r.URL.Path, suffix) {
				injected = &f
				break
			}
		}
		s.mu.Unlock()

		if injected != nil {
			writeMessage(w, injected.status, injected.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

type projectResponse struct {
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// --- Projects ---

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, projectResponse{Status: "ERROR", Message: "Error uploading project: missing file"})
		return
	}
	defer file.Close()
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		writeJSON(w, http.StatusInternalServerError, projectResponse{Status: "ERROR", Message: "Error uploading project: not a zip archive"})
		return
	}

	s.mu.Lock()
	s.nextID++
	p := &project{id: fmt.Sprintf("proj-%d", s.nextID), failed: s.failAnalysis}
	s.projects[p.id] = p
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, projectResponse{
		ProjectID: p.id,
		Status:    "PROCESSING",
		Message:   "Project upload successful. Analysis started.",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	p, ok := s.projects[id]
	ready := false
	if ok {
		ready = p.polls >= s.readyAfterPolls
		p.polls++
	}
	s.mu.Unlock()

	switch {
	case !ok || !ready:
		writeJSON(w, http.StatusNotFound, projectResponse{ProjectID: id, Status: "NOT_FOUND", Message: "Project not found"})
	case p.failed:
		writeJSON(w, http.StatusOK, projectResponse{ProjectID: id, Status: "ERROR", Message: "Analysis failed"})
	default:
		writeJSON(w, http.StatusOK, projectResponse{ProjectID: id, Status: "READY", Message: "Project analysis completed"})
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	delete(s.projects, id)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Project deleted successfully"})
}

// requireReady rejects analysis requests for unknown or unfinished projects.
func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s.mu.Lock()
		p, ok := s.projects[id]
		ready := ok && !p.failed && p.polls >= s.readyAfterPolls
		s.mu.Unlock()
		if !ready {
			writeMessage(w, http.StatusNotFound, "Project not found: "+id)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Search ---

func limit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("maxResults"))
	if err != nil || n <= 0 {
		return 10
	}
	return n
}

func truncate(hits []model.SearchHit, n int) []model.SearchHit {
	if len(hits) > n {
		return hits[:n]
	}
	return hits
}

func (s *Server) matchHits(query, level string) []model.SearchHit {
	query = strings.ToLower(query)
	hits := []model.SearchHit{}
	for _, h := range s.fx.Hits {
		if level != "" && level != "ALL" && h.Type != level {
			continue
		}
		if strings.Contains(strings.ToLower(h.Name), query) {
			hits = append(hits, h)
		}
	}
	return hits
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("query") == "" {
		writeMessage(w, http.StatusBadRequest, "Required parameter 'query' is not present")
		return
	}
	level := q.Get("level")
	if level != "" {
		if !model.IndexLevel(level).IsValid() {
			writeMessage(w, http.StatusBadRequest, "Invalid level: "+level)
			return
		}
	}
	writeJSON(w, http.StatusOK, truncate(s.matchHits(q.Get("query"), level), limit(r)))
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("query") == "" {
		writeMessage(w, http.StatusBadRequest, "Required parameter 'query' is not present")
		return
	}
	writeJSON(w, http.StatusOK, truncate(s.matchHits(q.Get("query"), ""), limit(r)))
}

func (s *Server) handleRelationSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	relationType, target := q.Get("relationType"), q.Get("target")
	if relationType == "" || target == "" {
		writeMessage(w, http.StatusBadRequest, "Required parameters 'relationType' and 'target' are not present")
		return
	}
	hits := []model.SearchHit{}
	for _, h := range s.fx.Hits {
		if v, ok := h.Attributes["relation:"+relationType]; ok && v == target {
			hits = append(hits, h)
		}
	}
	writeJSON(w, http.StatusOK, truncate(hits, limit(r)))
}

// --- Semantic analysis ---

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	method := q.Get("methodId")
	calls := s.fx.Callees[method]
	if q.Get("direction") == "callers" {
		calls = s.fx.Callers[method]
	}
	if calls == nil {
		calls = []string{}
	}
	writeJSON(w, http.StatusOK, calls)
}

func (s *Server) handleDataFlow(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("methodId")
	df, ok := s.fx.DataFlow[method]
	if !ok {
		writeMessage(w, http.StatusNotFound, "No data flow information for method: "+method)
		return
	}
	writeJSON(w, http.StatusOK, df)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	method := q.Get("methodId")
	threshold := 0.7
	if v := q.Get("minSimilarity"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid minSimilarity: "+v)
			return
		}
		threshold = f
	}
	pairs := []model.SimilarityPair{}
	for _, p := range s.fx.Similar {
		if (p.Method1ID == method || p.Method2ID == method) && p.Similarity >= threshold {
			pairs = append(pairs, p)
		}
	}
	writeJSON(w, http.StatusOK, pairs)
}

func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	concept := strings.ToLower(r.URL.Query().Get("concept"))
	matches := []model.ConceptMatch{}
	for _, m := range s.fx.Concepts {
		if strings.ToLower(m.Concept) == concept {
			matches = append(matches, m)
		}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	entity := r.URL.Query().Get("entityId")
	issues := []Issue{}
	for _, i := range s.fx.Issues {
		if entity == "" || i.EntityID == entity {
			issues = append(issues, i)
		}
	}
	writeJSON(w, http.StatusOK, issues)
}
