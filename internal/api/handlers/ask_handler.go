package handlers

import (
	"context"
	"errors"
	"strings"

	"unified-assistant/internal/dto"
	"unified-assistant/internal/llm"
	"unified-assistant/internal/models"
	"unified-assistant/internal/repository"
	"unified-assistant/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AskHandler struct {
	answerService *service.AnswerService
	history       *repository.HistoryRepository
	historyTurns  int
	logger        *zap.Logger
}

// NewAskHandler wires the question endpoints. history may be nil when no
// Redis is configured; session context is then skipped.
func NewAskHandler(answerService *service.AnswerService, history *repository.HistoryRepository, historyTurns int, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		answerService: answerService,
		history:       history,
		historyTurns:  historyTurns,
		logger:        logger,
	}
}

// Ask godoc
// @Summary Ask a question in a selected domain
// @Description Retrieval-augmented answer over the chosen domain's documents
// @Tags ask
// @Accept json
// @Produce json
// @Param request body dto.AskRequest true "Question"
// @Success 200 {object} dto.AskResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Failure 504 {object} map[string]string
// @Router /ask [post]
func (h *AskHandler) Ask(c *fiber.Ctx) error {
	var req dto.AskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	domain, err := models.ParseDomain(req.Domain)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown domain, expected SOP or HC",
		})
	}

	return h.answer(c, domain, req.Question, req.History, req.SessionID)
}

// AskSOP godoc
// @Summary Ask the SOP Assistant
// @Tags ask
// @Accept json
// @Produce json
// @Param request body dto.DomainAskRequest true "Question"
// @Success 200 {object} dto.AskResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /sop/ask [post]
func (h *AskHandler) AskSOP(c *fiber.Ctx) error {
	return h.askDomain(c, models.DomainSOP)
}

// AskHC godoc
// @Summary Ask the Human Capital Assistant
// @Tags ask
// @Accept json
// @Produce json
// @Param request body dto.DomainAskRequest true "Question"
// @Success 200 {object} dto.AskResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /hc/ask [post]
func (h *AskHandler) AskHC(c *fiber.Ctx) error {
	return h.askDomain(c, models.DomainHC)
}

func (h *AskHandler) askDomain(c *fiber.Ctx, domain models.Domain) error {
	var req dto.DomainAskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	return h.answer(c, domain, req.Question, req.History, req.SessionID)
}

func (h *AskHandler) answer(c *fiber.Ctx, domain models.Domain, question string, history []models.Turn, sessionID string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Question is required",
		})
	}

	ctx := c.Context()

	// Session history is best effort: a failed read never blocks an answer.
	if len(history) == 0 && sessionID != "" && h.history != nil {
		stored, err := h.history.Recent(ctx, domain, sessionID, h.historyTurns)
		if err != nil {
			h.logger.Warn("Failed to load session history", zap.Error(err))
		} else {
			history = stored
		}
	}

	answer, err := h.answerService.Answer(ctx, models.Query{
		Domain:   domain,
		Question: question,
		History:  history,
	})
	if err != nil {
		return h.mapError(c, err)
	}

	if sessionID != "" && h.history != nil {
		if err := h.history.Append(ctx, domain, sessionID, models.Turn{Role: llm.RoleUser, Text: question}); err != nil {
			h.logger.Warn("Failed to store session history", zap.Error(err))
		} else if err := h.history.Append(ctx, domain, sessionID, models.Turn{Role: llm.RoleAssistant, Text: answer.Text}); err != nil {
			h.logger.Warn("Failed to store session history", zap.Error(err))
		}
	}

	citations := make([]dto.CitationResponse, 0, len(answer.Citations))
	for _, cit := range answer.Citations {
		citations = append(citations, dto.CitationResponse{
			SourceReference: cit.SourceRef,
			Title:           cit.Title,
			Excerpt:         cit.Excerpt,
			Score:           cit.Score,
		})
	}

	return c.JSON(dto.AskResponse{
		Answer:    answer.Text,
		Citations: citations,
		Agent:     answer.Persona,
		Chunks:    len(citations),
	})
}

// mapError translates the orchestrator taxonomy into HTTP statuses. Raw
// upstream errors never reach the client.
func (h *AskHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrDomainNotConfigured):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown domain, expected SOP or HC",
		})
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Error("Upstream call timed out", zap.Error(err))
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{
			"error": "Upstream request timed out",
		})
	case errors.Is(err, models.ErrRetrievalUnavailable):
		h.logger.Error("Retrieval failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Document retrieval is temporarily unavailable",
		})
	case errors.Is(err, models.ErrGenerationFailed):
		h.logger.Error("Generation failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Answer generation failed",
		})
	default:
		h.logger.Error("Failed to answer question", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to answer question",
		})
	}
}
