package symbol

import (
	"time"

	"github.com/google/uuid"
)

// VocabularyInfo describes a vocabulary stored in a catalog.
type VocabularyInfo struct {
	Name       string
	SourcePath string
	RunID      uuid.UUID
	Size       int
	UpdatedAt  time.Time
}
