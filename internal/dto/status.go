package dto

type DomainStatus struct {
	Ready  bool `json:"ready"`
	Chunks int  `json:"chunks"`
}

type StatusResponse struct {
	Status         string       `json:"status"`
	SOP            DomainStatus `json:"sop"`
	HC             DomainStatus `json:"hc"`
	IndexBackend   string       `json:"index_backend"`
	EmbeddingModel string       `json:"embedding_model"`
	ChatModel      string       `json:"chat_model"`
	Agents         []AgentInfo  `json:"agents"`
}

type AgentInfo struct {
	Name        string            `json:"name"`
	Persona     string            `json:"persona"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
}
