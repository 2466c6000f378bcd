package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"unified-assistant/internal/llm"
	"unified-assistant/internal/models"
	"unified-assistant/internal/persona"
	"unified-assistant/internal/vectorstore"
	"unified-assistant/internal/vectorstore/memory"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type stubLLM struct {
	embedding   []float32
	embedErr    error
	completion  string
	completeErr error

	embedCalls    int
	completeCalls int
	lastMessages  []llm.Message
}

func (s *stubLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embedCalls++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	if s.embedding != nil {
		return s.embedding, nil
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	s.completeCalls++
	s.lastMessages = messages
	if s.completeErr != nil {
		return "", s.completeErr
	}
	return s.completion, nil
}

func newTestService(t *testing.T, client *stubLLM) (*AnswerService, map[models.Domain]vectorstore.Index) {
	t.Helper()

	indexes := map[models.Domain]vectorstore.Index{
		models.DomainSOP: memory.NewIndex(),
		models.DomainHC:  memory.NewIndex(),
	}
	registry := persona.NewRegistry("", zap.NewNop())
	topK := map[models.Domain]int{
		models.DomainSOP: 4,
		models.DomainHC:  4,
	}
	return NewAnswerService(registry, indexes, client, topK, 6, zap.NewNop()), indexes
}

func seedChunk(t *testing.T, index vectorstore.Index, domain models.Domain, docID, text string, embedding []float32) {
	t.Helper()
	err := index.Upsert(context.Background(), []models.Chunk{{
		ID:         uuid.New(),
		Domain:     domain,
		DocumentID: docID,
		Title:      docID + " title",
		Text:       text,
		Embedding:  embedding,
	}})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}

func TestAnswerGroundedWithCitations(t *testing.T) {
	client := &stubLLM{completion: "1. Sanitize the line.\n2. Record the batch.\n\nSOP-PROD-001, Section 5"}
	svc, indexes := newTestService(t, client)

	seedChunk(t, indexes[models.DomainSOP], models.DomainSOP, "SOP-PROD-001", "Line sanitation procedure.", []float32{1, 0, 0})
	seedChunk(t, indexes[models.DomainSOP], models.DomainSOP, "SOP-PROD-002", "Batch record handling.", []float32{0.9, 0.1, 0})

	answer, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainSOP,
		Question: "How do I sanitize the filling line?",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if answer.Fallback {
		t.Fatal("expected grounded answer, got fallback")
	}
	if answer.Persona != "SOP Assistant" {
		t.Errorf("expected SOP Assistant persona, got %q", answer.Persona)
	}
	if len(answer.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d", len(answer.Citations))
	}
	if answer.Citations[0].SourceRef != "SOP-PROD-001" {
		t.Errorf("expected best match cited first, got %q", answer.Citations[0].SourceRef)
	}
	if answer.Citations[0].Score < answer.Citations[1].Score {
		t.Error("citations not ordered by score")
	}
	if client.completeCalls != 1 {
		t.Errorf("expected exactly one completion call, got %d", client.completeCalls)
	}

	prompt := client.lastMessages[len(client.lastMessages)-1].Content
	if !strings.Contains(prompt, "[Source 1: SOP-PROD-001]") {
		t.Errorf("prompt missing source tag:\n%s", prompt)
	}
	if !strings.Contains(prompt, "How do I sanitize the filling line?") {
		t.Error("prompt missing the question")
	}
	if client.lastMessages[0].Role != llm.RoleSystem {
		t.Error("first message must be the persona system prompt")
	}
}

func TestAnswerCitesMatchingDocument(t *testing.T) {
	client := &stubLLM{completion: "1. Fill the leave request form.\n2. Submit it to your supervisor."}
	svc, indexes := newTestService(t, client)

	seedChunk(t, indexes[models.DomainSOP], models.DomainSOP, "SOP-HC-014",
		"Leave requests are submitted through the leave request form, approved by the direct supervisor.", []float32{1, 0, 0})

	answer, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainSOP,
		Question: "How do I submit a leave request?",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	var cited bool
	for _, c := range answer.Citations {
		if c.SourceRef == "SOP-HC-014" {
			cited = true
		}
	}
	if !cited {
		t.Errorf("expected SOP-HC-014 in citations, got %+v", answer.Citations)
	}
}

func TestAnswerDomainIsolation(t *testing.T) {
	client := &stubLLM{completion: "should never be used"}
	svc, indexes := newTestService(t, client)

	// Only the SOP partition has content. An HC question must not see it.
	seedChunk(t, indexes[models.DomainSOP], models.DomainSOP, "SOP-PROD-001", "Line sanitation procedure.", []float32{1, 0, 0})

	answer, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainHC,
		Question: "What is the line sanitation procedure?",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if !answer.Fallback {
		t.Fatal("expected fallback answer for empty HC partition")
	}
	if answer.Text != "The requested information is not available in the provided Employee Manual." {
		t.Errorf("unexpected fallback text: %q", answer.Text)
	}
	if len(answer.Citations) != 0 {
		t.Errorf("fallback must carry no citations, got %d", len(answer.Citations))
	}
	if client.completeCalls != 0 {
		t.Errorf("no completion call expected on zero matches, got %d", client.completeCalls)
	}
}

func TestAnswerFallbackSkipsCompletion(t *testing.T) {
	client := &stubLLM{}
	svc, _ := newTestService(t, client)

	answer, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainSOP,
		Question: "Anything at all?",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if !answer.Fallback {
		t.Fatal("expected fallback on empty index")
	}
	if !strings.Contains(answer.Text, "No relevant SOP or Work Instruction") {
		t.Errorf("unexpected SOP fallback text: %q", answer.Text)
	}
	if client.completeCalls != 0 {
		t.Errorf("expected zero completion calls, got %d", client.completeCalls)
	}
}

func TestAnswerUnknownDomain(t *testing.T) {
	client := &stubLLM{}
	svc, _ := newTestService(t, client)

	_, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.Domain("FINANCE"),
		Question: "Quarterly numbers?",
	})
	if !errors.Is(err, models.ErrDomainNotConfigured) {
		t.Fatalf("expected ErrDomainNotConfigured, got %v", err)
	}
	if client.embedCalls != 0 {
		t.Errorf("no provider calls expected for unknown domain, got %d embeds", client.embedCalls)
	}
}

func TestAnswerRetrievalErrorWrapped(t *testing.T) {
	client := &stubLLM{embedErr: errors.New("connection refused")}
	svc, _ := newTestService(t, client)

	_, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainSOP,
		Question: "How?",
	})
	if !errors.Is(err, models.ErrRetrievalUnavailable) {
		t.Fatalf("expected ErrRetrievalUnavailable, got %v", err)
	}
}

func TestAnswerGenerationErrorPreservesTimeout(t *testing.T) {
	client := &stubLLM{completeErr: context.DeadlineExceeded}
	svc, indexes := newTestService(t, client)

	seedChunk(t, indexes[models.DomainHC], models.DomainHC, "Employee Manual", "Annual leave is 12 days.", []float32{1, 0, 0})

	_, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainHC,
		Question: "How many leave days?",
	})
	if !errors.Is(err, models.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("timeout cause must stay in the chain, got %v", err)
	}
}

func TestAnswerHistoryCapped(t *testing.T) {
	client := &stubLLM{completion: "ok"}
	svc, indexes := newTestService(t, client)

	seedChunk(t, indexes[models.DomainHC], models.DomainHC, "Employee Manual", "Annual leave is 12 days.", []float32{1, 0, 0})

	history := make([]models.Turn, 0, 10)
	for i := 0; i < 10; i++ {
		role := llm.RoleUser
		if i%2 == 1 {
			role = llm.RoleAssistant
		}
		history = append(history, models.Turn{Role: role, Text: "turn"})
	}

	_, err := svc.Answer(context.Background(), models.Query{
		Domain:   models.DomainHC,
		Question: "How many leave days?",
		History:  history,
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	// system prompt + 6 capped turns + rendered template
	if len(client.lastMessages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(client.lastMessages))
	}
}

func TestAnswerDeterministicAcrossRuns(t *testing.T) {
	client := &stubLLM{completion: "stable answer"}
	svc, indexes := newTestService(t, client)

	// Identical embeddings force a score tie; insertion order must decide.
	seedChunk(t, indexes[models.DomainSOP], models.DomainSOP, "SOP-A", "First inserted.", []float32{1, 0, 0})
	seedChunk(t, indexes[models.DomainSOP], models.DomainSOP, "SOP-B", "Second inserted.", []float32{1, 0, 0})

	query := models.Query{Domain: models.DomainSOP, Question: "Which one?"}

	first, err := svc.Answer(context.Background(), query)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Answer(context.Background(), query)
		if err != nil {
			t.Fatalf("Answer failed: %v", err)
		}
		if len(again.Citations) != len(first.Citations) {
			t.Fatal("citation count changed between runs")
		}
		for j := range again.Citations {
			if again.Citations[j].SourceRef != first.Citations[j].SourceRef {
				t.Fatalf("citation order changed between runs: %q vs %q",
					again.Citations[j].SourceRef, first.Citations[j].SourceRef)
			}
		}
	}
	if first.Citations[0].SourceRef != "SOP-A" {
		t.Errorf("tie must resolve to insertion order, got %q first", first.Citations[0].SourceRef)
	}
}
