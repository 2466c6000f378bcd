package dto

import "unified-assistant/internal/models"

type AskRequest struct {
	Domain    string        `json:"domain"`
	Question  string        `json:"question"`
	History   []models.Turn `json:"history,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

// DomainAskRequest is the body of the domain-fixed endpoints
// (POST /sop/ask, POST /hc/ask).
type DomainAskRequest struct {
	Question  string        `json:"question"`
	History   []models.Turn `json:"history,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
}

type CitationResponse struct {
	SourceReference string  `json:"source_reference"`
	Title           string  `json:"title"`
	Excerpt         string  `json:"excerpt"`
	Score           float64 `json:"score"`
}

type AskResponse struct {
	Answer    string             `json:"answer"`
	Citations []CitationResponse `json:"citations"`
	Agent     string             `json:"agent"`
	Chunks    int                `json:"chunks"`
}
