package entities

import "time"

// KBDocument is a source ingested into the local knowledge base that backs
// retrieval when no remote RAG service is configured.
type KBDocument struct {
	DocID     uint      `gorm:"primaryKey" json:"docId"`
	Title     string    `json:"title"`
	SourceURL string    `json:"sourceUrl,omitempty"`
	Tags      string    `json:"tags,omitempty"`
	Category  string    `gorm:"index" json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type KBChunk struct {
	ChunkID   uint      `gorm:"primaryKey" json:"chunkId"`
	DocID     uint      `gorm:"index" json:"docId"`
	Ord       int       `json:"ord"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}
