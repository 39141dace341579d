//go:build integration

package eventbus_test

import (
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/integration_tests/testutils"
)

var testEnv *testutils.TestEnvironment

func TestMain(m *testing.M) {
	env, err := testutils.NewTestEnvironment(testutils.Options{NATS: true})
	if err != nil {
		log.Fatalf("failed to set up test environment: %v", err)
	}
	testEnv = env

	code := m.Run()
	env.Cleanup()
	os.Exit(code)
}

func TestNATSPublisherDeliversDomainEvents(t *testing.T) {
	conn, err := nats.Connect(testEnv.NatsURL)
	require.NoError(t, err)
	defer conn.Close()

	tests := []struct {
		topic   string
		payload any
		decode  func(t *testing.T, data []byte) any
	}{
		{
			topic:   eventbus.TopicAssignment,
			payload: eventbus.AssignmentPayload{TournamentID: "t-1", ParticipantID: "p-1", Room: 2, Version: 3},
			decode: func(t *testing.T, data []byte) any {
				var got eventbus.AssignmentPayload
				require.NoError(t, json.Unmarshal(data, &got))
				return got
			},
		},
		{
			topic:   eventbus.TopicRoster,
			payload: eventbus.RosterPayload{TournamentID: "t-1", Action: "reset", Count: 4, Version: 9},
			decode: func(t *testing.T, data []byte) any {
				var got eventbus.RosterPayload
				require.NoError(t, json.Unmarshal(data, &got))
				return got
			},
		},
	}

	publisher, err := eventbus.NewNATSPublisher(testEnv.NatsURL, testEnv.Logger)
	require.NoError(t, err)
	defer publisher.Close()

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			sub, err := conn.SubscribeSync(tt.topic)
			require.NoError(t, err)
			defer sub.Unsubscribe()
			require.NoError(t, conn.Flush())

			ctx := observability.WithCorrelationID(testEnv.Ctx, "corr-"+tt.topic)
			require.NoError(t, publisher.Publish(ctx, tt.topic, tt.payload))

			msg, err := sub.NextMsg(5 * time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.payload, tt.decode(t, msg.Data))
			assert.Equal(t, "corr-"+tt.topic, msg.Header.Get("correlation_id"))
			assert.Equal(t, tt.topic, msg.Header.Get("topic"))
		})
	}
}
