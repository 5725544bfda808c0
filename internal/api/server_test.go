package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/brewchat/brewchat/internal/chat"
	"github.com/brewchat/brewchat/internal/knowledge"
	"github.com/brewchat/brewchat/internal/log"
	"github.com/brewchat/brewchat/internal/memory"
	"github.com/brewchat/brewchat/internal/rag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Fakes satisfying the chat package interfaces.

type echoStrategy struct{}

func (echoStrategy) Answer(_ context.Context, _, question string) (string, error) {
	return "echo: " + question, nil
}

type failingStrategy struct{}

func (failingStrategy) Answer(_ context.Context, _, _ string) (string, error) {
	return "", errors.New("model unavailable")
}

type nopGenerator struct{}

func (nopGenerator) Generate(_ context.Context, _ chat.CompletionRequest) (string, error) {
	return "", nil
}

type nopRetriever struct{}

func (nopRetriever) Retrieve(_ context.Context, _ rag.Query) ([]rag.Document, error) {
	return nil, nil
}

type memAdder struct {
	docs []knowledge.Document
}

func (a *memAdder) Add(_ context.Context, docs []knowledge.Document) error {
	a.docs = append(a.docs, docs...)
	return nil
}

func newTestServer(t *testing.T, strategies map[chat.Kind]chat.Strategy) (*Server, *memAdder) {
	t.Helper()

	if strategies == nil {
		strategies = map[chat.Kind]chat.Strategy{}
	}
	for _, kind := range chat.Kinds() {
		if strategies[kind] == nil {
			strategies[kind] = echoStrategy{}
		}
	}

	recorder := memory.NewInMemory()
	adder := &memAdder{}
	ingester, err := chat.NewVectorStore(nopGenerator{}, nopRetriever{}, adder, recorder, log.NewNop())
	if err != nil {
		t.Fatalf("NewVectorStore() error = %v", err)
	}
	conversations, err := chat.NewConversations(strategies, ingester, recorder, log.NewNop())
	if err != nil {
		t.Fatalf("NewConversations() error = %v", err)
	}
	srv, err := NewServer(ServerConfig{Logger: log.NewNop(), Conversations: conversations})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv, adder
}

func TestAskEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := `{"strategy": "DISABLED", "conversation_id": "c1", "question": "hi"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "echo: hi" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if resp.ConversationID != "c1" {
		t.Errorf("conversation_id = %q", resp.ConversationID)
	}
}

func TestAskGeneratesConversationID(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := `{"strategy": "DISABLED", "question": "hi"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ConversationID == "" {
		t.Error("conversation_id not generated")
	}
}

func TestAskRejectsUnknownStrategy(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := `{"strategy": "TELEPATHY", "conversation_id": "c1", "question": "hi"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Error.Code != "unknown_strategy" {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestAskValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing question", `{"strategy": "DISABLED", "conversation_id": "c1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAskStrategyFailure(t *testing.T) {
	srv, _ := newTestServer(t, map[chat.Kind]chat.Strategy{
		chat.KindTools: failingStrategy{},
	})

	body := `{"strategy": "TOOLS", "conversation_id": "c1", "question": "hi"}`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body)))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestIngestEndpoint(t *testing.T) {
	srv, adder := newTestServer(t, nil)

	body := `[{"name": "Yirgacheffe"}, {"name": "Geisha"}]`
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(body)))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(adder.docs) != 2 {
		t.Errorf("stored %d documents, want 2", len(adder.docs))
	}
}

func TestIngestRejectsInvalidRecord(t *testing.T) {
	srv, adder := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(`[]`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(adder.docs) != 0 {
		t.Errorf("stored %d documents, want none", len(adder.docs))
	}
}

func TestHealthProbes(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/ready status = %d", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(log.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, "127.0.0.1:0", log.NewNop())
	}()

	// Give the listener a moment to start, then trigger shutdown.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not shut down")
	}
}
