package entities

import "time"

// Draft holds one autosaved snapshot per key. Payload is the whole snapshot
// as JSON and is replaced on every save.
type Draft struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	SessionID *uint     `gorm:"index" json:"sessionId,omitempty"`
	Payload   string    `json:"-"`
	SavedAt   time.Time `json:"savedAt"`
}
