package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient("TEST-TOKEN")
	client.APIBase = srv.URL
	return client
}

func TestClient_CallURLAndBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	})

	resp, err := client.Call(context.Background(), "sendChatAction",
		map[string]any{"chat_id": 7, "action": "typing"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !resp.OK {
		t.Fatal("expected ok=true")
	}
	if gotPath != "/botTEST-TOKEN/sendChatAction" {
		t.Errorf("got path %q, want /botTEST-TOKEN/sendChatAction", gotPath)
	}
	if gotBody["action"] != "typing" {
		t.Errorf("got body %v, want action=typing", gotBody)
	}
}

func TestClient_GetUpdatesParams(t *testing.T) {
	var got GetUpdatesParams

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		fmt.Fprint(w, `{"ok":true,"result":[{"update_id":5,"message":{"message_id":1,"chat":{"id":2},"text":"hello"}}]}`)
	})

	updates, err := client.GetUpdates(context.Background(), GetUpdatesParams{
		Offset:         6,
		Limit:          100,
		Timeout:        30,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		t.Fatalf("GetUpdates: %v", err)
	}

	if got.Offset != 6 || got.Limit != 100 || got.Timeout != 30 {
		t.Errorf("got params %+v, want offset=6 limit=100 timeout=30", got)
	}
	if len(got.AllowedUpdates) != 2 {
		t.Errorf("got allowed_updates %v, want two entries", got.AllowedUpdates)
	}

	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	if updates[0].UpdateID != 5 || updates[0].Message == nil || updates[0].Message.Text != "hello" {
		t.Fatalf("got %+v, want update 5 with message text %q", updates[0], "hello")
	}
}

func TestClient_ErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	})

	_, err := client.GetUpdates(context.Background(), GetUpdatesParams{})
	if err == nil {
		t.Fatal("expected an error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %T, want *APIError", err)
	}
	if apiErr.Code != 401 || apiErr.Description != "Unauthorized" {
		t.Errorf("got %+v, want code=401 description=Unauthorized", apiErr)
	}
}

func TestClient_GetMe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":{"id":12345,"is_bot":true,"first_name":"streambot","username":"tgstreambot"}}`)
	})

	me, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if me.ID != 12345 || !me.IsBot || me.Username != "tgstreambot" {
		t.Fatalf("got %+v, want id=12345 bot username=tgstreambot", me)
	}
}

func TestClient_SendMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTEST-TOKEN/sendMessage" {
			t.Errorf("got path %q", r.URL.Path)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":77,"chat":{"id":9},"text":"hi"}}`)
	})

	msg, err := client.SendMessage(context.Background(), SendMessageParams{ChatID: 9, Text: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.MessageID != 77 || msg.Chat.ID != 9 {
		t.Fatalf("got %+v, want message 77 in chat 9", msg)
	}
}

func TestClient_NonEnvelopeResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>bad gateway</html>")
	})

	_, err := client.Call(context.Background(), "getMe", nil)
	if err == nil {
		t.Fatal("expected an error for a non-envelope response")
	}
}

func TestAPIError_Message(t *testing.T) {
	err := &APIError{Code: 409, Description: "conflict: webhook is active"}
	want := "telegram: 409: conflict: webhook is active"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
