package events_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/codescope/internal/client"
	"github.com/alfredjeanlab/codescope/internal/collabtest"
	"github.com/alfredjeanlab/codescope/internal/events"
	"github.com/alfredjeanlab/codescope/internal/events/eventstest"
	"github.com/alfredjeanlab/codescope/internal/explorer"
	"github.com/alfredjeanlab/codescope/internal/logging"
	"github.com/alfredjeanlab/codescope/internal/model"
)

// watchSession wires an explorer to the fake analysis service and an
// embedded NATS server, and subscribes to topic on the same bus.
func watchSession(t *testing.T, topic string) (*explorer.Explorer, <-chan events.Message) {
	t.Helper()
	url := eventstest.StartNATS(t)
	_, base := collabtest.Start(t, collabtest.DefaultFixture())

	pub, err := events.NewNATSPublisher(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pub.Close() })

	sub, err := events.NewNATSSubscriber(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })
	ch, cancel, err := sub.Subscribe(topic)
	require.NoError(t, err)
	t.Cleanup(cancel)

	e := explorer.New(client.NewHTTPClient(base, ""), explorer.Options{
		PollInterval: 10 * time.Millisecond,
		Logger:       logging.Discard(),
		Publisher:    pub,
	})
	t.Cleanup(func() { _ = e.Close() })

	ctx, cancelCtx := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancelCtx)
	_, err = e.Upload(ctx, "shop.zip", 2, strings.NewReader("PK"))
	require.NoError(t, err)
	snap, err := e.WaitReady(ctx)
	require.NoError(t, err)
	require.Equal(t, model.StatusReady, snap.Status)
	return e, ch
}

func receive[T any](t *testing.T, ch <-chan events.Message, topic string) T {
	t.Helper()
	var v T
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "subscription closed")
		require.Equal(t, topic, msg.Topic)
		require.NoError(t, json.Unmarshal(msg.Data, &v))
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s event", topic)
	}
	return v
}

func TestViewResultRoundTrip(t *testing.T) {
	e, ch := watchSession(t, events.TopicViewResult)

	out, err := e.Search(context.Background(), model.SearchQuery{Text: "order", Limit: 5})
	require.NoError(t, err)

	got := receive[events.ViewResult](t, ch, events.TopicViewResult)
	assert.Equal(t, "proj-1", got.ProjectID)
	assert.Equal(t, model.ViewSearch, got.View)
	assert.Equal(t, model.ResultSearch, got.Kind)
	assert.Equal(t, out.Generation, got.Generation)
	assert.Equal(t, 3, got.Count)
	assert.Nil(t, got.Score)

	_, err = e.Quality(context.Background(), model.QualityQuery{})
	require.NoError(t, err)
	got = receive[events.ViewResult](t, ch, events.TopicViewResult)
	assert.Equal(t, model.ViewQuality, got.View)
	require.NotNil(t, got.Score)
	assert.Equal(t, model.QualityScore{Value: 86, Grade: model.GradeB}, *got.Score)
}

func TestViewFailedRoundTrip(t *testing.T) {
	e, ch := watchSession(t, events.TopicViewFailed)

	_, err := e.Semantic(context.Background(), model.SemanticRequest{Kind: model.SemanticDataFlow, MethodID: "Util#format"})
	require.Error(t, err)

	got := receive[events.ViewFailed](t, ch, events.TopicViewFailed)
	assert.Equal(t, model.ViewSemantic, got.View)
	assert.Contains(t, got.Error, "No data flow information for method: Util#format")
}

func TestSubscribe_OnlyMatchingTopic(t *testing.T) {
	e, ch := watchSession(t, events.TopicViewFailed)

	// A successful search publishes on the result topic only.
	_, err := e.Search(context.Background(), model.SearchQuery{Text: "order"})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		t.Fatalf("unexpected %s event on the failure subscription", msg.Topic)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	sub, err := events.NewNATSSubscriber(eventstest.StartNATS(t))
	require.NoError(t, err)
	defer sub.Close()

	ch, cancel, err := sub.Subscribe(events.TopicAll)
	require.NoError(t, err)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after cancel")
}
