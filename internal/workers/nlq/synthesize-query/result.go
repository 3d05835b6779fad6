// internal/workers/nlq/synthesize-query/result.go
package synthesizequery

import "jira-askbot/internal/models"

const (
	OutcomeResolved          = "resolved"
	OutcomeNeedClientMapping = "need_client_mapping"
	OutcomeNeedUserMapping   = "need_user_mapping"
)

// Result is one of Resolved, NeedClientMapping or NeedUserMapping.
type Result interface {
	Outcome() string
	sealed()
}

// Resolved carries a query ready for the tracker. LearnedUsers are user
// mappings found in the users dictionary during synthesis; the caller
// commits them once the request succeeds.
type Resolved struct {
	Query        string
	Source       string
	LearnedUsers []models.UserMapping
}

// NeedClientMapping asks the caller to have the user teach a client.
type NeedClientMapping struct {
	ClientName string
}

// NeedUserMapping asks the caller to have the user teach a person.
type NeedUserMapping struct {
	DisplayName string
}

func (Resolved) Outcome() string          { return OutcomeResolved }
func (NeedClientMapping) Outcome() string { return OutcomeNeedClientMapping }
func (NeedUserMapping) Outcome() string   { return OutcomeNeedUserMapping }

func (Resolved) sealed()          {}
func (NeedClientMapping) sealed() {}
func (NeedUserMapping) sealed()   {}

func toOutput(r Result) *Output {
	out := &Output{Outcome: r.Outcome()}
	switch v := r.(type) {
	case Resolved:
		out.Query = v.Query
		out.Source = v.Source
		out.LearnedUsers = v.LearnedUsers
	case NeedClientMapping:
		out.ClientName = v.ClientName
	case NeedUserMapping:
		out.DisplayName = v.DisplayName
	}
	return out
}
