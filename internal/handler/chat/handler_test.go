package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wtwq666/smartdata/internal/model/chat"
	agentService "github.com/wtwq666/smartdata/internal/service/agent"
	chatservice "github.com/wtwq666/smartdata/internal/service/chat"
)

type stubAgent struct {
	reply    string
	err      error
	invoked  bool
	question string
	history  []chat.Turn
}

func (s *stubAgent) Invoke(_ context.Context, question string, history []chat.Turn) (string, error) {
	s.invoked = true
	s.question = question
	s.history = history
	return s.reply, s.err
}

type sseEvent struct {
	name string
	data map[string]any
}

func newTestHandler(t *testing.T, stub *stubAgent) (*Handler, *chatservice.Service) {
	t.Helper()

	svc, err := chatservice.NewService(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	t.Cleanup(func() { svc.Close() })

	provider := func(context.Context) (agentService.Invoker, error) { return stub, nil }
	return New(svc, provider, 10), svc
}

func postStream(t *testing.T, h *Handler, sessionID, message string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]string{"session_id": sessionID, "message": message})
	if err != nil {
		t.Fatalf("marshal body err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/chat/stream", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.handleChatStream(rec, req)
	return rec
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()

	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(body), "\n\n") {
		var event sseEvent
		for _, line := range strings.Split(block, "\n") {
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				event.name = name
			}
			if data, ok := strings.CutPrefix(line, "data: "); ok {
				if err := json.Unmarshal([]byte(data), &event.data); err != nil {
					t.Fatalf("invalid event data %q: %v", data, err)
				}
			}
		}
		if event.name != "" {
			events = append(events, event)
		}
	}
	return events
}

func TestChatStreamEventOrderWithChart(t *testing.T) {
	stub := &stubAgent{
		reply: "七月销量最高。[CHART]{\"series\": [{\"data\": [1, 2, 3]}]}[/CHART]",
	}
	h, svc := newTestHandler(t, stub)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "t")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := postStream(t, h, session.ID, "  哪个月销量最高？ ")

	events := parseSSE(t, rec.Body.String())
	if len(events) != 3 {
		t.Fatalf("expected message/chart/done, got %d events: %v", len(events), events)
	}
	if events[0].name != "message" || events[1].name != "chart" || events[2].name != "done" {
		t.Fatalf("unexpected event order: %s, %s, %s", events[0].name, events[1].name, events[2].name)
	}

	content, _ := events[0].data["content"].(string)
	if content != "七月销量最高。" {
		t.Fatalf("unexpected message content: %q", content)
	}

	option, ok := events[1].data["option"].(map[string]any)
	if !ok {
		t.Fatalf("chart event missing option: %v", events[1].data)
	}
	if _, ok := option["tooltip"]; !ok {
		t.Fatal("emitted chart must carry the repaired tooltip")
	}

	messageID, _ := events[2].data["message_id"].(string)
	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected user + assistant messages, got %d", len(transcript))
	}
	if transcript[0].Content != "哪个月销量最高？" {
		t.Fatalf("user input must be trimmed before persisting, got %q", transcript[0].Content)
	}
	if transcript[1].ID != messageID {
		t.Fatalf("done message_id %q does not match persisted id %q", messageID, transcript[1].ID)
	}
	if transcript[1].Content != content {
		t.Fatalf("persisted content %q differs from emitted content %q", transcript[1].Content, content)
	}
	if transcript[1].Chart == nil {
		t.Fatal("assistant message must persist the chart option")
	}

	if !strings.Contains(stub.question, "哪个月销量最高？") || !strings.Contains(stub.question, "[CHART]") {
		t.Fatalf("agent question must carry the chart instruction suffix, got %q", stub.question)
	}
	if len(stub.history) != 1 || stub.history[0].Role != chat.RoleUser {
		t.Fatalf("context window should contain the persisted user turn, got %+v", stub.history)
	}
}

func TestChatStreamWithoutChart(t *testing.T) {
	stub := &stubAgent{reply: "共有 60 名员工。"}
	h, svc := newTestHandler(t, stub)

	session, err := svc.CreateSession(context.Background(), "t")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := postStream(t, h, session.ID, "员工总数？")

	events := parseSSE(t, rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("expected message/done, got %v", events)
	}
	if events[0].name != "message" || events[1].name != "done" {
		t.Fatalf("unexpected event order: %s, %s", events[0].name, events[1].name)
	}
}

func TestChatStreamSessionNotFound(t *testing.T) {
	stub := &stubAgent{reply: "unused"}
	h, _ := newTestHandler(t, stub)

	rec := postStream(t, h, "missing", "hello")

	events := parseSSE(t, rec.Body.String())
	if len(events) != 1 || events[0].name != "error" {
		t.Fatalf("expected a single error event, got %v", events)
	}
	if stub.invoked {
		t.Fatal("agent must not be invoked for an unknown session")
	}
}

func TestChatStreamEmptyMessage(t *testing.T) {
	stub := &stubAgent{reply: "unused"}
	h, svc := newTestHandler(t, stub)

	session, err := svc.CreateSession(context.Background(), "t")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := postStream(t, h, session.ID, "   ")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	transcript, err := svc.LoadTranscript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 0 {
		t.Fatalf("empty input must not be persisted, got %d messages", len(transcript))
	}
}

func TestChatStreamAgentFailureKeepsUserTurn(t *testing.T) {
	stub := &stubAgent{err: errors.New("model unavailable")}
	h, svc := newTestHandler(t, stub)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "t")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	rec := postStream(t, h, session.ID, "你好")

	events := parseSSE(t, rec.Body.String())
	if len(events) != 1 || events[0].name != "error" {
		t.Fatalf("expected a single error event and no done, got %v", events)
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 1 || transcript[0].Role != chat.RoleUser {
		t.Fatalf("user turn must stay persisted after agent failure, got %+v", transcript)
	}
}
