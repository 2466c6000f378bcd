package service

import (
	"context"
	"fmt"
	"strings"

	"unified-assistant/internal/llm"
	"unified-assistant/internal/models"
	"unified-assistant/internal/persona"
	"unified-assistant/internal/vectorstore"

	"go.uber.org/zap"
)

// LLMClient is the slice of the hosted provider this service needs.
type LLMClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

const excerptLimit = 240

// AnswerService is the retrieval-augmented orchestrator: embed the question,
// search the domain's index, assemble a grounded prompt with the domain
// persona and make one completion call. It holds no mutable state; every
// request is independent.
type AnswerService struct {
	registry     *persona.Registry
	indexes      map[models.Domain]vectorstore.Index
	llm          LLMClient
	topK         map[models.Domain]int
	historyTurns int
	logger       *zap.Logger
}

func NewAnswerService(
	registry *persona.Registry,
	indexes map[models.Domain]vectorstore.Index,
	llmClient LLMClient,
	topK map[models.Domain]int,
	historyTurns int,
	logger *zap.Logger,
) *AnswerService {
	return &AnswerService{
		registry:     registry,
		indexes:      indexes,
		llm:          llmClient,
		topK:         topK,
		historyTurns: historyTurns,
		logger:       logger,
	}
}

// Answer resolves one query. Upstream failures are translated into the
// models error taxonomy before returning; nothing else crosses the boundary.
func (s *AnswerService) Answer(ctx context.Context, query models.Query) (*models.Answer, error) {
	p, err := s.registry.PersonaFor(query.Domain)
	if err != nil {
		return nil, err
	}

	index, ok := s.indexes[query.Domain]
	if !ok {
		return nil, fmt.Errorf("%w: no index for %s", models.ErrDomainNotConfigured, query.Domain)
	}

	vector, err := s.llm.Embed(ctx, query.Question)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %w", models.ErrRetrievalUnavailable, err)
	}

	topK := s.topK[query.Domain]
	if topK <= 0 {
		topK = 4
	}

	matches, err := index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrRetrievalUnavailable, err)
	}

	// Never send an ungrounded prompt to the completion API: with no
	// retrieved context the model would have nothing to answer from.
	if len(matches) == 0 {
		s.logger.Info("No relevant chunks found, returning fallback answer",
			zap.String("domain", string(query.Domain)),
		)
		return &models.Answer{
			Text:     p.FallbackAnswer,
			Persona:  p.AgentName,
			Fallback: true,
		}, nil
	}

	messages := s.buildMessages(p, query, matches)

	text, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrGenerationFailed, err)
	}

	s.logger.Info("Answer generated",
		zap.String("domain", string(query.Domain)),
		zap.Int("chunks", len(matches)),
	)

	return &models.Answer{
		Text:      strings.TrimSpace(text),
		Citations: buildCitations(matches),
		Persona:   p.AgentName,
	}, nil
}

// buildMessages assembles: persona system prompt, capped prior turns, then
// the response template rendered with the retrieved context and question.
func (s *AnswerService) buildMessages(p persona.Persona, query models.Query, matches []models.Match) []llm.Message {
	messages := []llm.Message{{Role: llm.RoleSystem, Content: p.SystemPrompt}}

	history := query.History
	if s.historyTurns > 0 && len(history) > s.historyTurns {
		history = history[len(history)-s.historyTurns:]
	}
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Role == llm.RoleAssistant {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}

	prompt := strings.NewReplacer(
		"{context}", buildContext(matches),
		"{question}", query.Question,
	).Replace(p.ResponseTemplate)

	return append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})
}

// buildContext renders retrieved chunks in the source-tagged block format the
// personas reference in their instructions.
func buildContext(matches []models.Match) string {
	var b strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&b, "\n[Source %d: %s]\n%s\n\n%s\n\n---", i+1, m.Chunk.DocumentID, m.Chunk.Title, m.Chunk.Text)
	}
	return b.String()
}

func buildCitations(matches []models.Match) []models.Citation {
	citations := make([]models.Citation, 0, len(matches))
	for _, m := range matches {
		citations = append(citations, models.Citation{
			SourceRef: m.Chunk.DocumentID,
			Title:     m.Chunk.Title,
			Excerpt:   excerpt(m.Chunk.Text),
			Score:     m.Score,
		})
	}
	return citations
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= excerptLimit {
		return text
	}
	return string(runes[:excerptLimit]) + "…"
}
