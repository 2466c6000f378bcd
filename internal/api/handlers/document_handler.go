package handlers

import (
	"errors"
	"strconv"

	"unified-assistant/internal/dto"
	"unified-assistant/internal/models"
	"unified-assistant/internal/repository"
	"unified-assistant/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	ingestService *service.IngestService
	documentRepo  *repository.DocumentRepository
	logger        *zap.Logger
}

// NewDocumentHandler wires upload and listing. documentRepo may be nil when
// the memory index backend is used; listing then returns an empty set.
func NewDocumentHandler(ingestService *service.IngestService, documentRepo *repository.DocumentRepository, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		documentRepo:  documentRepo,
		logger:        logger,
	}
}

// UploadHC godoc
// @Summary Upload the Employee Manual
// @Description Replaces the HC knowledge base with the uploaded document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document (pdf, md or txt)"
// @Success 200 {object} dto.UploadResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Security BearerAuth
// @Router /hc/upload [post]
func (h *DocumentHandler) UploadHC(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	result, err := h.ingestService.IngestUpload(c.Context(), models.DomainHC, file, fileHeader.Filename)
	if err != nil {
		h.logger.Error("Upload ingestion failed",
			zap.String("file", fileHeader.Filename),
			zap.Error(err),
		)
		// Only caller mistakes become 400; upstream failures stay 5xx and
		// never leak provider response text.
		switch {
		case errors.Is(err, service.ErrUnsupportedDocument):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		case errors.Is(err, models.ErrRetrievalUnavailable):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Document indexing is temporarily unavailable",
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process uploaded document",
			})
		}
	}

	return c.JSON(dto.UploadResponse{
		Status:        "success",
		Message:       "Employee Manual indexed",
		ChunksCreated: result.Chunks,
	})
}

// ListDocuments godoc
// @Summary List ingested documents
// @Tags documents
// @Produce json
// @Param domain query string false "Domain filter (SOP or HC)" default(HC)
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/documents [get]
func (h *DocumentHandler) ListDocuments(c *fiber.Ctx) error {
	domain, err := models.ParseDomain(c.Query("domain", string(models.DomainHC)))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown domain, expected SOP or HC",
		})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	resp := make([]dto.DocumentResponse, 0)
	if h.documentRepo == nil {
		return c.JSON(resp)
	}

	docs, err := h.documentRepo.ListByDomain(c.Context(), domain, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	for _, doc := range docs {
		resp = append(resp, dto.DocumentResponse{
			ID:         doc.ID.String(),
			Domain:     string(doc.Domain),
			FileName:   doc.FileName,
			FileSize:   doc.FileSize,
			ChunkCount: doc.ChunkCount,
			CreatedAt:  doc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return c.JSON(resp)
}
