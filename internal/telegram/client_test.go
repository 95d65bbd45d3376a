package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aligner-bot/internal/apperr"
)

func TestClient_SendMessage(t *testing.T) {
	var got SendMessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":321}}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", srv.URL, 5*time.Second)
	id, err := c.SendMessage(context.Background(), SendMessageRequest{
		ChatID:          -100,
		MessageThreadID: 7,
		Text:            "hi",
		ReplyMarkup:     JoinKeyboard(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(321), id)
	require.Equal(t, int64(-100), got.ChatID)
	require.Equal(t, 7, got.MessageThreadID)
	require.Equal(t, CallbackJoin, got.ReplyMarkup.InlineKeyboard[0][0].CallbackData)
}

func TestClient_APIErrorIsDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", srv.URL, 5*time.Second)
	_, err := c.SendMessage(context.Background(), SendMessageRequest{ChatID: 1, Text: "hi"})
	require.Error(t, err)
	require.Equal(t, apperr.MessageDeliveryFailed, apperr.KindOf(err))
	require.Contains(t, err.Error(), "blocked")
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient("TOKEN", url, time.Second)
	err := c.AnswerCallbackQuery(context.Background(), "cb", "")
	require.Equal(t, apperr.MessageDeliveryFailed, apperr.KindOf(err))
}

func TestClient_GetUpdates(t *testing.T) {
	var got GetUpdatesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botTOKEN/getUpdates", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"message_thread_id":77,"from":{"id":5,"first_name":"A"},"chat":{"id":-100,"type":"supergroup"},"text":"/kudo","entities":[{"type":"bot_command","offset":0,"length":5}]}},
			{"update_id":11,"callback_query":{"id":"cb1","from":{"id":5,"first_name":"A"},"data":"/join"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", srv.URL, 5*time.Second)
	updates, err := c.GetUpdates(context.Background(), 10, 30)
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Offset)
	require.Equal(t, 30, got.Timeout)
	require.Equal(t, allowedUpdates, got.AllowedUpdates)

	require.Len(t, updates, 2)
	require.Equal(t, 77, updates[0].Message.MessageThreadID)
	name, ok := updates[0].Message.Command(testBot)
	require.True(t, ok)
	require.Equal(t, "kudo", name)
	require.Equal(t, CallbackJoin, updates[1].CallbackQuery.Data)
}
