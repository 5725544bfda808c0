package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"

	"github.com/brewchat/brewchat/internal/log"
	"github.com/brewchat/brewchat/internal/rag"
)

func newTestTools(t *testing.T, gen Generator, catalog, web rag.Retriever) *Tools {
	t.Helper()
	s, err := NewTools(gen, catalog, web, &fakeRewriter{}, &fakeHistory{}, 5, log.NewNop())
	if err != nil {
		t.Fatalf("NewTools() error = %v", err)
	}
	return s
}

func TestCoffeeDetailsCapability(t *testing.T) {
	catalog := &fakeRetriever{docs: []rag.Document{
		{Text: "name: Yirgacheffe\norigin: Ethiopia"},
		{Text: "name: Geisha\norigin: Panama"},
	}}
	s := newTestTools(t, &fakeGenerator{}, catalog, &fakeRetriever{})

	out, err := s.coffeeDetails(&ai.ToolContext{Context: context.Background()}, searchInput{Query: "floral"})
	if err != nil {
		t.Fatalf("coffeeDetails() error = %v", err)
	}
	if !strings.Contains(out, "Yirgacheffe") || !strings.Contains(out, "Geisha") {
		t.Errorf("output missing documents:\n%s", out)
	}
	if catalog.query.Text != "floral" {
		t.Errorf("catalog queried with %q", catalog.query.Text)
	}
}

func TestCapabilitiesNeverError(t *testing.T) {
	failing := &fakeRetriever{err: errors.New("backend down")}
	s := newTestTools(t, &fakeGenerator{}, failing, failing)
	tc := &ai.ToolContext{Context: context.Background()}

	out, err := s.coffeeDetails(tc, searchInput{Query: "q"})
	if err != nil || out != "" {
		t.Errorf("coffeeDetails() = (%q, %v), want empty and nil", out, err)
	}
	out, err = s.searchInternet(tc, searchInput{Query: "q"})
	if err != nil || out != "" {
		t.Errorf("searchInternet() = (%q, %v), want empty and nil", out, err)
	}
}

func TestSearchInternetRewritesQuery(t *testing.T) {
	web := &fakeRetriever{docs: []rag.Document{
		{Text: "Champ de Mars", Metadata: map[string]string{"url": "https://example.com/a"}},
	}}
	s := newTestTools(t, &fakeGenerator{}, &fakeRetriever{}, web)

	out, err := s.searchInternet(&ai.ToolContext{Context: context.Background()}, searchInput{Query: "eiffel tower"})
	if err != nil {
		t.Fatalf("searchInternet() error = %v", err)
	}
	if web.query.Text != "rewritten: eiffel tower" {
		t.Errorf("web queried with %q", web.query.Text)
	}
	if !strings.Contains(out, "Source: https://example.com/a") {
		t.Errorf("output missing source url:\n%s", out)
	}
}

func TestRenderDocuments(t *testing.T) {
	if got := renderDocuments(nil); got != "" {
		t.Errorf("renderDocuments(nil) = %q", got)
	}
	got := renderDocuments([]rag.Document{
		{Text: "first"},
		{Text: "second", Metadata: map[string]string{"url": "https://example.com"}},
	})
	want := "first\n---\nsecond\nSource: https://example.com"
	if got != want {
		t.Errorf("renderDocuments() = %q, want %q", got, want)
	}
}

func TestToolsAnswerRequiresRegistration(t *testing.T) {
	s := newTestTools(t, &fakeGenerator{text: "x"}, &fakeRetriever{}, &fakeRetriever{})

	if _, err := s.Answer(context.Background(), "c1", "q"); err == nil {
		t.Fatal("Answer() = nil error before Register, want error")
	}
}
