package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"unified-assistant/internal/dto"
	"unified-assistant/internal/llm"
	"unified-assistant/internal/models"
	"unified-assistant/internal/persona"
	"unified-assistant/internal/service"
	"unified-assistant/internal/vectorstore"
	"unified-assistant/internal/vectorstore/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeLLM struct {
	embedErr    error
	completeErr error
	completion  string
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeLLM) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	if f.completeErr != nil {
		return "", f.completeErr
	}
	return f.completion, nil
}

func newTestApp(t *testing.T, client *fakeLLM, seed bool) *fiber.App {
	t.Helper()

	indexes := map[models.Domain]vectorstore.Index{
		models.DomainSOP: memory.NewIndex(),
		models.DomainHC:  memory.NewIndex(),
	}
	if seed {
		err := indexes[models.DomainSOP].Upsert(context.Background(), []models.Chunk{{
			ID:         uuid.New(),
			Domain:     models.DomainSOP,
			DocumentID: "SOP-PROD-001",
			Title:      "Line Sanitation",
			Text:       "Sanitize the line before every batch.",
			Embedding:  []float32{1, 0, 0},
		}})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	registry := persona.NewRegistry("", zap.NewNop())
	topK := map[models.Domain]int{models.DomainSOP: 4, models.DomainHC: 4}
	answerService := service.NewAnswerService(registry, indexes, client, topK, 6, zap.NewNop())
	handler := NewAskHandler(answerService, nil, 6, zap.NewNop())

	app := fiber.New()
	app.Post("/ask", handler.Ask)
	app.Post("/sop/ask", handler.AskSOP)
	app.Post("/hc/ask", handler.AskHC)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestAskReturnsAnswer(t *testing.T) {
	app := newTestApp(t, &fakeLLM{completion: "1. Sanitize the line."}, true)

	resp := postJSON(t, app, "/ask", dto.AskRequest{Domain: "SOP", Question: "How do I sanitize?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out dto.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Answer != "1. Sanitize the line." {
		t.Errorf("unexpected answer: %q", out.Answer)
	}
	if out.Agent != "SOP Assistant" {
		t.Errorf("unexpected agent: %q", out.Agent)
	}
	if len(out.Citations) != 1 || out.Citations[0].SourceReference != "SOP-PROD-001" {
		t.Errorf("unexpected citations: %+v", out.Citations)
	}
}

func TestAskUnknownDomain(t *testing.T) {
	app := newTestApp(t, &fakeLLM{}, false)

	resp := postJSON(t, app, "/ask", dto.AskRequest{Domain: "finance", Question: "Revenue?"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	app := newTestApp(t, &fakeLLM{}, false)

	resp := postJSON(t, app, "/ask", dto.AskRequest{Domain: "SOP", Question: "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAskDomainEndpointsFixDomain(t *testing.T) {
	app := newTestApp(t, &fakeLLM{completion: "answer"}, true)

	// HC partition is empty so the HC endpoint must return its fallback.
	resp := postJSON(t, app, "/hc/ask", dto.DomainAskRequest{Question: "Leave days?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out dto.AskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Answer != "The requested information is not available in the provided Employee Manual." {
		t.Errorf("expected HC fallback, got %q", out.Answer)
	}
	if len(out.Citations) != 0 {
		t.Errorf("fallback must carry no citations, got %+v", out.Citations)
	}

	// SOP endpoint sees SOP content.
	resp = postJSON(t, app, "/sop/ask", dto.DomainAskRequest{Question: "How do I sanitize?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out = dto.AskResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Answer != "answer" || len(out.Citations) != 1 {
		t.Errorf("unexpected SOP response: %+v", out)
	}
}

func TestAskRetrievalFailureMapsTo502(t *testing.T) {
	app := newTestApp(t, &fakeLLM{embedErr: errors.New("connection refused")}, true)

	resp := postJSON(t, app, "/sop/ask", dto.DomainAskRequest{Question: "How?"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestAskGenerationFailureMapsTo502(t *testing.T) {
	app := newTestApp(t, &fakeLLM{completeErr: errors.New("upstream returned 500")}, true)

	resp := postJSON(t, app, "/sop/ask", dto.DomainAskRequest{Question: "How?"})
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestAskTimeoutMapsTo504(t *testing.T) {
	app := newTestApp(t, &fakeLLM{completeErr: context.DeadlineExceeded}, true)

	resp := postJSON(t, app, "/sop/ask", dto.DomainAskRequest{Question: "How?"})
	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", resp.StatusCode)
	}
}

func TestAskMalformedBody(t *testing.T) {
	app := newTestApp(t, &fakeLLM{}, false)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}
