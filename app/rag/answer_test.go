package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
)

type stubCompleter struct {
	answer string
	err    error

	system string
	user   string
}

func (s *stubCompleter) Available() bool { return s.err == nil }

func (s *stubCompleter) Complete(_ context.Context, system, user string) (string, error) {
	s.system = system
	s.user = user
	return s.answer, s.err
}

type stubTitles struct {
	titles map[int64]string
	err    error
}

func (s stubTitles) DocumentTitles(_ context.Context, ids []int64) (map[int64]string, error) {
	return s.titles, s.err
}

func synthesizerWithMatches(matches []Match, completer *stubCompleter, titles stubTitles) *Synthesizer {
	idx := new(MockIndex)
	idx.On("Query", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(matches, nil)
	return NewSynthesizer(NewClient(stubEmbedder{}, idx), completer, titles)
}

func TestGenerateAnswerNoContext(t *testing.T) {
	s := synthesizerWithMatches(nil, &stubCompleter{}, stubTitles{})

	answer := s.GenerateAnswer(context.Background(), "what is go?", 7, nil, 5)
	if answer.Declined != DeclinedNoContext {
		t.Fatalf("unexpected declined reason: %q", answer.Declined)
	}
	if answer.Text != noContextAnswer {
		t.Fatalf("unexpected answer text: %q", answer.Text)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Fatalf("expected empty sources, got %#v", answer.Sources)
	}
	if answer.Question != "what is go?" {
		t.Fatalf("unexpected question echo: %q", answer.Question)
	}
}

func TestGenerateAnswer(t *testing.T) {
	matches := []Match{
		{ChunkID: 10, DocumentID: 2, Text: "Go was designed at Google.", Score: 0.91},
		{ChunkID: 14, DocumentID: 3, Text: "Gophers love concurrency.", Score: 0.85},
	}
	completer := &stubCompleter{answer: "Go is a language designed at Google."}
	titles := stubTitles{titles: map[int64]string{2: "History", 3: "Culture"}}

	s := synthesizerWithMatches(matches, completer, titles)
	answer := s.GenerateAnswer(context.Background(), "where was go designed?", 7, nil, 5)

	if answer.Declined != "" {
		t.Fatalf("unexpected declined reason: %q", answer.Declined)
	}
	if answer.Text != completer.answer {
		t.Fatalf("unexpected answer text: %q", answer.Text)
	}
	if len(answer.Sources) != 2 ||
		answer.Sources[0] != (Source{DocumentID: 2, Title: "History", ChunkID: 10}) ||
		answer.Sources[1] != (Source{DocumentID: 3, Title: "Culture", ChunkID: 14}) {
		t.Fatalf("unexpected sources: %#v", answer.Sources)
	}

	if !strings.Contains(completer.system, "based on provided context") {
		t.Fatalf("unexpected system prompt: %q", completer.system)
	}
	for _, want := range []string{
		"Source 1 (Document: History):\nGo was designed at Google.",
		"Source 2 (Document: Culture):\nGophers love concurrency.",
		"Question: where was go designed?",
	} {
		if !strings.Contains(completer.user, want) {
			t.Fatalf("prompt missing %q:\n%s", want, completer.user)
		}
	}
}

func TestGenerateAnswerUnknownTitles(t *testing.T) {
	matches := []Match{{ChunkID: 10, DocumentID: 2, Text: "text"}}
	completer := &stubCompleter{answer: "ok"}

	s := synthesizerWithMatches(matches, completer, stubTitles{err: errors.New("db closed")})
	answer := s.GenerateAnswer(context.Background(), "q", 7, nil, 5)
	if answer.Sources[0].Title != "Unknown" {
		t.Fatalf("expected Unknown title fallback, got %q", answer.Sources[0].Title)
	}
}

func TestGenerateAnswerCompletionFailure(t *testing.T) {
	matches := []Match{{ChunkID: 10, DocumentID: 2, Text: "text"}}
	completer := &stubCompleter{err: errors.New("model overloaded")}

	s := synthesizerWithMatches(matches, completer, stubTitles{})
	answer := s.GenerateAnswer(context.Background(), "q", 7, nil, 5)

	if answer.Declined != "completion provider error: model overloaded" {
		t.Fatalf("unexpected declined reason: %q", answer.Declined)
	}
	if !strings.Contains(answer.Text, "I encountered an error while generating the answer: model overloaded") {
		t.Fatalf("unexpected answer text: %q", answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources on failure, got %#v", answer.Sources)
	}
}
