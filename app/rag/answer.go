package rag

import (
	"context"
	"fmt"
	"log"
	"strings"

	"KnowledgeAPI/app/models"
)

const (
	DeclinedNoContext = "no relevant context"

	systemPrompt = "You are a helpful assistant that answers questions based on provided context from documents. " +
		"Always base your answers on the given context and be concise but comprehensive."

	noContextAnswer = "I couldn't find any relevant information in your documents to answer this question."

	unknownTitle = "Unknown"
)

type Source struct {
	DocumentID int64  `json:"document_id"`
	Title      string `json:"title"`
	ChunkID    int64  `json:"chunk_id"`
}

// Answer is the terminal state of one question: either answered with cited
// sources or declined with a reason. Declined answers still carry the
// user-facing text, so the caller always gets a well-formed object.
type Answer struct {
	Text     string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Question string   `json:"question"`
	Declined string   `json:"declined_reason,omitempty"`
}

// TitleLookup resolves document ids to titles for citations; ids missing
// from the result are simply absent. Satisfied by storage.Interface.
type TitleLookup interface {
	DocumentTitles(ctx context.Context, ids []int64) (map[int64]string, error)
}

// Synthesizer answers one question at a time: retrieve, assemble a grounded
// prompt, complete, attach sources.
type Synthesizer struct {
	client    *Client
	completer models.Completer
	titles    TitleLookup
}

func NewSynthesizer(client *Client, completer models.Completer, titles TitleLookup) *Synthesizer {
	return &Synthesizer{client: client, completer: completer, titles: titles}
}

// GenerateAnswer runs the full question pipeline. maxChunks <= 0 falls back
// to DefaultTopK. The completion call is synchronous and never retried.
func (s *Synthesizer) GenerateAnswer(ctx context.Context, question string, ownerID int64, documentIDs []int64, maxChunks int) *Answer {
	matches := s.client.Retrieve(ctx, question, ownerID, maxChunks, documentIDs)
	if len(matches) == 0 {
		return &Answer{
			Text:     noContextAnswer,
			Sources:  []Source{},
			Question: question,
			Declined: DeclinedNoContext,
		}
	}

	titles := s.resolveTitles(ctx, matches)

	text, err := s.completer.Complete(ctx, systemPrompt, buildPrompt(question, matches, titles))
	if err != nil {
		log.Printf("⚠️ Error generating answer: %v", err)
		return &Answer{
			Text:     fmt.Sprintf("I encountered an error while generating the answer: %s", err),
			Sources:  []Source{},
			Question: question,
			Declined: fmt.Sprintf("completion provider error: %s", err),
		}
	}

	sources := make([]Source, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, Source{
			DocumentID: m.DocumentID,
			Title:      titles[m.DocumentID],
			ChunkID:    m.ChunkID,
		})
	}

	return &Answer{Text: text, Sources: sources, Question: question}
}

// resolveTitles maps every referenced document id to a title, defaulting to
// "Unknown" so a stale or failed lookup never fails the whole request.
func (s *Synthesizer) resolveTitles(ctx context.Context, matches []Match) map[int64]string {
	seen := make(map[int64]bool, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		if !seen[m.DocumentID] {
			seen[m.DocumentID] = true
			ids = append(ids, m.DocumentID)
		}
	}

	resolved, err := s.titles.DocumentTitles(ctx, ids)
	if err != nil {
		log.Printf("⚠️ Error resolving document titles: %v", err)
		resolved = nil
	}

	titles := make(map[int64]string, len(ids))
	for _, id := range ids {
		if title, ok := resolved[id]; ok {
			titles[id] = title
		} else {
			titles[id] = unknownTitle
		}
	}
	return titles
}

func buildPrompt(question string, matches []Match, titles map[int64]string) string {
	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = fmt.Sprintf("Source %d (Document: %s):\n%s", i+1, titles[m.DocumentID], m.Text)
	}

	return fmt.Sprintf(`Based on the following context from the user's documents, please answer the question. If the context doesn't contain enough information to fully answer the question, say so and provide what information is available.

Context:
%s

Question: %s

Answer:`, strings.Join(blocks, "\n\n"), question)
}
