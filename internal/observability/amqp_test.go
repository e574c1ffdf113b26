package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	routingKeys []string
	messages    []interface{}
	headers     []map[string]string
	err         error
}

func (p *recordingPublisher) PublishJSON(_ context.Context, routingKey string, message interface{}, headers map[string]string) error {
	p.routingKeys = append(p.routingKeys, routingKey)
	p.messages = append(p.messages, message)
	p.headers = append(p.headers, headers)
	return p.err
}

func TestPublishEventWithoutPublisherIsNoop(t *testing.T) {
	SetPublisher(nil)

	err := PublishEvent(context.Background(), "ws_events.feeds", EventEnvelope{EventType: "ws_events"}, nil)
	assert.NoError(t, err)
}

func TestPublishEventForwardsToInstalledPublisher(t *testing.T) {
	recorder := &recordingPublisher{}
	SetPublisher(recorder)
	t.Cleanup(func() { SetPublisher(nil) })

	envelope := EventEnvelope{EventType: "ws_events", EventName: "ws_connect"}
	headers := BuildHeaders("req-1", "trace-1")
	err := PublishEvent(context.Background(), "ws_events.feeds", envelope, headers)
	require.NoError(t, err)

	require.Len(t, recorder.routingKeys, 1)
	assert.Equal(t, "ws_events.feeds", recorder.routingKeys[0])
	assert.Equal(t, envelope, recorder.messages[0])
	assert.Equal(t, "req-1", recorder.headers[0]["x-request-id"])
}

func TestPublishEventSurfacesPublisherError(t *testing.T) {
	recorder := &recordingPublisher{err: assert.AnError}
	SetPublisher(recorder)
	t.Cleanup(func() { SetPublisher(nil) })

	err := PublishEvent(context.Background(), "ws_events.feeds", EventEnvelope{}, nil)
	assert.ErrorIs(t, err, assert.AnError)
}
