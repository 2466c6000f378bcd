package handlers

import (
	"strings"

	"unified-assistant/internal/dto"
	"unified-assistant/internal/models"
	"unified-assistant/internal/persona"
	"unified-assistant/internal/vectorstore"
	"unified-assistant/pkg/config"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type StatusHandler struct {
	registry *persona.Registry
	indexes  map[models.Domain]vectorstore.Index
	cfg      *config.Config
	logger   *zap.Logger
}

func NewStatusHandler(registry *persona.Registry, indexes map[models.Domain]vectorstore.Index, cfg *config.Config, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		registry: registry,
		indexes:  indexes,
		cfg:      cfg,
		logger:   logger,
	}
}

// Status godoc
// @Summary Service and knowledge base status
// @Tags status
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /status [get]
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	resp := dto.StatusResponse{
		Status:         "running",
		IndexBackend:   h.cfg.RAG.IndexBackend,
		EmbeddingModel: h.cfg.AzureOpenAI.EmbeddingDeployment,
		ChatModel:      h.cfg.AzureOpenAI.ChatDeployment,
		Agents:         h.agents(),
	}

	resp.SOP = h.domainStatus(c, models.DomainSOP)
	resp.HC = h.domainStatus(c, models.DomainHC)

	return c.JSON(resp)
}

func (h *StatusHandler) domainStatus(c *fiber.Ctx, domain models.Domain) dto.DomainStatus {
	index, ok := h.indexes[domain]
	if !ok {
		return dto.DomainStatus{}
	}
	count, err := index.Count(c.Context())
	if err != nil {
		h.logger.Warn("Failed to count chunks",
			zap.String("domain", string(domain)),
			zap.Error(err),
		)
		return dto.DomainStatus{}
	}
	return dto.DomainStatus{Ready: count > 0, Chunks: count}
}

// Root godoc
// @Summary Service banner
// @Tags status
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *StatusHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "Unified Assistant API",
		"version": "1.0.0",
		"agents":  h.agents(),
	})
}

func (h *StatusHandler) agents() []dto.AgentInfo {
	agents := make([]dto.AgentInfo, 0, 2)
	for _, domain := range h.registry.Domains() {
		p, err := h.registry.PersonaFor(domain)
		if err != nil {
			continue
		}
		prefix := "/" + strings.ToLower(string(domain))
		info := dto.AgentInfo{
			Name:        p.AgentName,
			Persona:     p.DisplayName + ", " + p.RoleTitle,
			Description: "Answers " + string(domain) + " questions from the indexed knowledge base",
			Endpoints: map[string]string{
				"ask": prefix + "/ask",
			},
		}
		if domain == models.DomainHC {
			info.Endpoints["upload"] = prefix + "/upload"
		}
		agents = append(agents, info)
	}
	return agents
}
