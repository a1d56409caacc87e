// Package audit records state-mutating user actions in the decision journal.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/fentz26/cortexdesk/internal/models"
	"github.com/fentz26/cortexdesk/internal/store"
)

// Journal writes decision records.
type Journal struct {
	store *store.Store
}

// NewJournal creates a journal backed by s.
func NewJournal(s *store.Store) *Journal {
	return &Journal{store: s}
}

// Record writes an entry for action. inputs are stored only as a hash.
func (j *Journal) Record(action string, inputs any, outcome, subject, details string) (*models.JournalEntry, error) {
	return j.store.WriteEntry(action, HashInputs(inputs), outcome, subject, details)
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs any) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
