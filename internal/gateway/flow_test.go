package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/wuwenbin0122/flexchat/internal/conversation"
	"github.com/wuwenbin0122/flexchat/internal/gateway"
	"github.com/wuwenbin0122/flexchat/internal/models"
	"github.com/wuwenbin0122/flexchat/internal/utils"
)

func TestConversationRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","model":"gpt-3.5-turbo","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	gw := gateway.New(utils.OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, nil)
	conv := conversation.New()

	conv.Append(models.UserTurn("hi"))
	if got := conv.Snapshot(); !reflect.DeepEqual(got, []models.Turn{{Role: models.RoleUser, Content: "hi"}}) {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	reply := gw.Complete(context.Background(), conv.Snapshot())
	if !reply.OK() {
		t.Fatalf("unexpected failure %v", reply.Failure)
	}
	conv.Append(reply.Turn)

	want := []models.Turn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello"},
	}
	if got := conv.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestConversationRoundTripConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL + "/v1"
	srv.Close()

	gw := gateway.New(utils.OpenAIConfig{APIKey: "test-key", BaseURL: baseURL}, nil)
	conv := conversation.New()
	conv.Append(models.UserTurn("hi"))

	reply := gw.Complete(context.Background(), conv.Snapshot())
	if reply.OK() {
		t.Fatalf("expected failure against a closed server")
	}

	want := models.Turn{Role: models.RoleAssistant, Content: "Error getting response: " + reply.Failure.Error()}
	if reply.Turn != want {
		t.Fatalf("expected %+v, got %+v", want, reply.Turn)
	}
	if !strings.Contains(reply.Turn.Content, "connection refused") {
		t.Fatalf("expected connection error in content, got %q", reply.Turn.Content)
	}

	conv.Append(reply.Turn)
	if conv.Len() != 2 {
		t.Fatalf("expected the diagnostic to be appended, got %d turns", conv.Len())
	}
}
