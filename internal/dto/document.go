package dto

type DocumentResponse struct {
	ID         string `json:"id"`
	Domain     string `json:"domain"`
	FileName   string `json:"file_name"`
	FileSize   int64  `json:"file_size"`
	ChunkCount int    `json:"chunk_count"`
	CreatedAt  string `json:"created_at"`
}

type UploadResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	ChunksCreated int    `json:"chunks_created"`
}
