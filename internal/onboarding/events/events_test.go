package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("AEDT", 11*3600))
	e := New(TypeAccountCreated, "fund-1", "inv-1", at, map[string]any{"user_id": "u-1"})

	_, err := uuid.Parse(e.ID)
	require.NoError(t, err)
	require.Equal(t, time.UTC, e.OccurredAt.Location())
	require.True(t, at.Equal(e.OccurredAt))
	require.Equal(t, source, e.Source)
	require.NotEqual(t, e.ID, New(TypeAccountCreated, "fund-1", "inv-1", at, nil).ID)
}

func TestNewMessage(t *testing.T) {
	e := New(TypeInviteSent, "fund-1", "prospect-1", time.Now(), map[string]any{"token_id": "tok-1"})

	msg, err := newMessage(e)
	require.NoError(t, err)
	require.Equal(t, []byte("fund-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	require.Equal(t, TypeInviteSent, string(msg.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	require.Equal(t, "investor.invite_sent", decoded["type"])
	require.Equal(t, "prospect-1", decoded["subject"])
	require.Equal(t, "tok-1", decoded["data"].(map[string]any)["token_id"])
}

func TestKafkaPublisher(t *testing.T) {
	_, err := NewKafkaPublisher(nil, "onboarding")
	require.Error(t, err)

	var p *KafkaPublisher
	require.NoError(t, p.Publish(context.Background(), Event{}))
	require.NoError(t, p.Close())
}

func TestLogPublisher(t *testing.T) {
	var p Publisher = LogPublisher{}
	require.NoError(t, p.Publish(context.Background(), New(TypeInviteSent, "f", "s", time.Now(), nil)))
	require.NoError(t, p.Close())
}
