package models

// Turn is one prior exchange supplied as conversation context.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Query is a single question routed to one domain. Created per request and
// discarded after the response; carries no shared state.
type Query struct {
	Domain   Domain
	Question string
	History  []Turn
}

// Citation references one retrieved chunk backing an answer.
type Citation struct {
	SourceRef string  `json:"source_reference"`
	Title     string  `json:"title"`
	Excerpt   string  `json:"excerpt"`
	Score     float64 `json:"score"`
}

// Answer is the orchestrator output: generated text plus the ordered chunks
// it was grounded on.
type Answer struct {
	Text      string
	Citations []Citation
	Persona   string
	Fallback  bool
}
