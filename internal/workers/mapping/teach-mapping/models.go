// internal/workers/mapping/teach-mapping/models.go
package teachmapping

import (
	"time"

	"jira-askbot/internal/mapping"
)

// Input is either a raw teach command in Text or an explicit
// Kind/Name/Value triple.
type Input struct {
	Text      string            `json:"text,omitempty"`
	Kind      mapping.TeachKind `json:"kind,omitempty"`
	Name      string            `json:"name,omitempty"`
	Value     string            `json:"value,omitempty"`
	TeacherID string            `json:"teacherId"`
}

type Output struct {
	Kind      mapping.TeachKind `json:"kind"`
	Name      string            `json:"name"`
	Value     string            `json:"value"`
	LearnedBy string            `json:"learnedBy"`
	LearnedAt time.Time         `json:"learnedAt"`
}
