package explorer

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/codescope/internal/client"
	"github.com/alfredjeanlab/codescope/internal/collabtest"
	"github.com/alfredjeanlab/codescope/internal/events"
	"github.com/alfredjeanlab/codescope/internal/events/eventstest"
	"github.com/alfredjeanlab/codescope/internal/logging"
	"github.com/alfredjeanlab/codescope/internal/model"
	"github.com/alfredjeanlab/codescope/internal/normalize"
)

func newTestExplorer(t *testing.T, opts Options) (*Explorer, *collabtest.Server) {
	t.Helper()
	srv, base := collabtest.Start(t, collabtest.DefaultFixture())
	if opts.PollInterval == 0 {
		opts.PollInterval = 10 * time.Millisecond
	}
	opts.Logger = logging.Discard()
	e := New(client.NewHTTPClient(base, ""), opts)
	t.Cleanup(func() { _ = e.Close() })
	return e, srv
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func uploadReady(t *testing.T, e *Explorer) {
	t.Helper()
	ctx := waitCtx(t)
	_, err := e.Upload(ctx, "shop.zip", 2, strings.NewReader("PK"))
	require.NoError(t, err)
	snap, err := e.WaitReady(ctx)
	require.NoError(t, err)
	require.Equal(t, model.StatusReady, snap.Status)
}

func TestUpload_PollsUntilReady(t *testing.T) {
	pub := &eventstest.Recorder{}
	e, srv := newTestExplorer(t, Options{Publisher: pub})
	srv.SetReadyAfterPolls(2)
	ctx := waitCtx(t)

	snap, err := e.Upload(ctx, "shop.zip", 2, strings.NewReader("PK"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, snap.Status)
	assert.Equal(t, "proj-1", snap.ProjectID)
	assert.Equal(t, []model.View{model.ViewUpload}, e.Views())

	snap, err = e.WaitReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, snap.Status)
	assert.False(t, snap.Polling)
	assert.Len(t, e.Views(), 4)
	assert.GreaterOrEqual(t, srv.CountPath("/projects/proj-1"), 3)

	require.Eventually(t, func() bool { return len(pub.Events()) == 3 }, time.Second, 5*time.Millisecond)
	var to []model.ProjectStatus
	for _, p := range pub.Events() {
		assert.Equal(t, events.TopicSessionTransition, p.Topic)
		to = append(to, p.Event.(events.SessionTransition).To)
	}
	assert.Equal(t, []model.ProjectStatus{model.StatusUploading, model.StatusProcessing, model.StatusReady}, to)
}

func TestUpload_InvalidArchiveLeavesSession(t *testing.T) {
	e, srv := newTestExplorer(t, Options{MaxArchiveBytes: 10})

	for _, tc := range []struct {
		name string
		size int64
	}{
		{"shop.tar.gz", 2},
		{"shop.zip", 0},
		{"shop.zip", 11},
	} {
		_, err := e.Upload(context.Background(), tc.name, tc.size, strings.NewReader("PK"))
		var ve *model.ValidationError
		assert.ErrorAs(t, err, &ve, tc.name)
	}
	assert.Equal(t, model.StatusNone, e.Snapshot().Status)
	assert.Empty(t, srv.Requests())
}

func TestUpload_ServiceRejects(t *testing.T) {
	e, srv := newTestExplorer(t, Options{})
	srv.FailPath("/projects", http.StatusInternalServerError, "Error uploading project: disk full")
	ctx := waitCtx(t)

	snap, err := e.Upload(ctx, "shop.zip", 2, strings.NewReader("PK"))
	require.Error(t, err)
	assert.Equal(t, model.StatusNone, snap.Status)
	assert.Equal(t, "HTTP 500: Error uploading project: disk full", snap.LastError)

	_, err = e.WaitReady(ctx)
	assert.ErrorIs(t, err, ErrNoProject)
}

func TestUploadFile(t *testing.T) {
	e, _ := newTestExplorer(t, Options{})
	dir := t.TempDir()
	path := filepath.Join(dir, "shop.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04"), 0o600))

	snap, err := e.UploadFile(waitCtx(t), path)
	require.NoError(t, err)
	assert.Equal(t, "proj-1", snap.ProjectID)

	_, err = e.UploadFile(waitCtx(t), filepath.Join(dir, "missing.zip"))
	assert.Error(t, err)
	_, err = e.UploadFile(waitCtx(t), dir)
	assert.Error(t, err)
}

func TestFailedAnalysis(t *testing.T) {
	e, srv := newTestExplorer(t, Options{})
	srv.SetFailAnalysis(true)
	ctx := waitCtx(t)

	_, err := e.Upload(ctx, "shop.zip", 2, strings.NewReader("PK"))
	require.NoError(t, err)
	snap, err := e.WaitReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, snap.Status)
	assert.Equal(t, "Analysis failed", snap.Message)

	_, err = e.Search(ctx, model.SearchQuery{Modality: model.ModalityLexical, Text: "order"})
	assert.ErrorIs(t, err, model.ErrNotReady)
}

func TestSearch_BeforeUploadIsNotReady(t *testing.T) {
	e, srv := newTestExplorer(t, Options{})
	_, err := e.Search(context.Background(), model.SearchQuery{Modality: model.ModalityLexical, Text: "order"})
	assert.ErrorIs(t, err, model.ErrNotReady)
	assert.Empty(t, srv.Requests())
}

func TestSearch_DefaultLimit(t *testing.T) {
	e, srv := newTestExplorer(t, Options{MaxResults: 2})
	uploadReady(t, e)
	ctx := waitCtx(t)

	out, err := e.Search(ctx, model.SearchQuery{Modality: model.ModalityLexical, Text: "order"})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, model.ViewSearch, out.View)
	assert.Equal(t, 2, out.Result.Len())
	assert.False(t, out.NoMatches)

	out, err = e.Search(ctx, model.SearchQuery{Modality: model.ModalityLexical, Text: "order", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Result.Len())

	var queries []string
	for _, r := range srv.Requests() {
		if r.Path == collabtest.BasePath+"/projects/proj-1/search" {
			queries = append(queries, r.Query)
		}
	}
	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "maxResults=2")
	assert.Contains(t, queries[1], "maxResults=5")
}

func TestSearch_NoMatches(t *testing.T) {
	e, _ := newTestExplorer(t, Options{})
	uploadReady(t, e)

	out, err := e.Search(waitCtx(t), model.SearchQuery{Modality: model.ModalityLexical, Text: "zzz"})
	require.NoError(t, err)
	assert.True(t, out.NoMatches)
	assert.Same(t, out, e.Live(model.ViewSearch))
}

func TestSemantic(t *testing.T) {
	e, _ := newTestExplorer(t, Options{})
	uploadReady(t, e)
	ctx := waitCtx(t)

	out, err := e.Semantic(ctx, model.SemanticRequest{
		Kind:      model.SemanticCallGraph,
		MethodID:  "PaymentGateway#charge",
		Direction: model.DirectionCallers,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"OrderService#placeOrder"}, out.Result.(normalize.CallGraphResult).Methods)

	_, err = e.Semantic(ctx, model.SemanticRequest{Kind: model.SemanticDataFlow, MethodID: "Util#format"})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No data flow information for method: Util#format", apiErr.Message)

	_, err = e.Semantic(ctx, model.SemanticRequest{Kind: model.SemanticCallGraph})
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestQuality(t *testing.T) {
	e, _ := newTestExplorer(t, Options{})
	uploadReady(t, e)

	out, err := e.Quality(waitCtx(t), model.QualityQuery{})
	require.NoError(t, err)
	q := out.Result.(normalize.QualityResult)
	assert.Len(t, q.Issues, 4)
	assert.Equal(t, model.QualityScore{Value: 86, Grade: model.GradeB}, q.Score)
}

func TestResumeAndDiscard(t *testing.T) {
	e, srv := newTestExplorer(t, Options{})
	srv.AddReadyProject("proj-existing")
	ctx := waitCtx(t)

	assert.ErrorIs(t, e.Discard(ctx), ErrNoProject)

	snap, err := e.Resume(ctx, "proj-existing")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, snap.Status)
	assert.Equal(t, "proj-existing", snap.ProjectID)

	require.NoError(t, e.Discard(ctx))
	assert.Equal(t, model.StatusNone, e.Snapshot().Status)
	assert.Equal(t, 2, srv.CountPath("/projects/proj-existing"), "one status check and one delete")
}

func TestResume_UnknownProject(t *testing.T) {
	e, srv := newTestExplorer(t, Options{})
	ctx := waitCtx(t)

	snap, err := e.Resume(ctx, "no-such-id")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err), "got %v", err)
	assert.Equal(t, model.StatusNone, snap.Status)
	assert.False(t, snap.Polling)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, srv.CountPath("/projects/no-such-id"), "an unknown project must not be polled")
}

func TestResumeUploaded_Processing(t *testing.T) {
	e, srv := newTestExplorer(t, Options{})
	srv.AddReadyProject("proj-slow")
	srv.SetReadyAfterPolls(2)
	ctx := waitCtx(t)

	snap, err := e.ResumeUploaded(ctx, "proj-slow")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, snap.Status)

	snap, err = e.WaitReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, snap.Status)
}

func TestWaitReady_ContextCanceled(t *testing.T) {
	e, srv := newTestExplorer(t, Options{PollInterval: time.Hour})
	srv.SetReadyAfterPolls(100)

	_, err := e.Upload(waitCtx(t), "shop.zip", 2, strings.NewReader("PK"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := e.WaitReady(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, model.StatusProcessing, snap.Status)
}

func TestStatusChecker_NotFound(t *testing.T) {
	_, base := collabtest.Start(t, collabtest.DefaultFixture())
	sc := statusChecker{
		c:       client.NewHTTPClient(base, ""),
		pending: func(id string) bool { return id == "proj-pending" },
	}

	p, err := sc.GetProject(context.Background(), "proj-pending")
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, p.Status)
	assert.Equal(t, "proj-pending", p.ID)

	_, err = sc.GetProject(context.Background(), "proj-unknown")
	assert.True(t, client.IsNotFound(err), "got %v", err)
}
