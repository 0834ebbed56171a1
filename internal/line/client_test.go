package line

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGetMessageContentReturnsRawBytes(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x01}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/msg-123/content", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := NewClient("token-abc", server.URL, server.URL, zap.NewNop())

	data, err := client.GetMessageContent(context.Background(), "msg-123")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestGetMessageContentFailsOnStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("token", server.URL, server.URL, zap.NewNop())

	_, err := client.GetMessageContent(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestGetMessageContentFailsOnNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient("token", server.URL, server.URL, zap.NewNop())

	_, err := client.GetMessageContent(context.Background(), "id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFetch))
}

func TestReplyMessageSendsTextPayload(t *testing.T) {
	var got replyRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/bot/message/reply", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("token-abc", server.URL, server.URL, zap.NewNop())

	err := client.ReplyMessage(context.Background(), "reply-token-1", "Cumulus (80.00%)")
	require.NoError(t, err)

	assert.Equal(t, "reply-token-1", got.ReplyToken)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "text", got.Messages[0].Type)
	assert.Equal(t, "Cumulus (80.00%)", got.Messages[0].Text)
}

func TestReplyMessageFailsOnStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("token", server.URL, server.URL, zap.NewNop())

	err := client.ReplyMessage(context.Background(), "token", "text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReply))
}

func TestIsImageMessage(t *testing.T) {
	image := Event{Type: "message", Message: &Message{ID: "1", Type: "image"}}
	text := Event{Type: "message", Message: &Message{ID: "2", Type: "text"}}
	follow := Event{Type: "follow"}

	assert.True(t, image.IsImageMessage())
	assert.False(t, text.IsImageMessage())
	assert.False(t, follow.IsImageMessage())
}
