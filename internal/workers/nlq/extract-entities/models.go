// internal/workers/nlq/extract-entities/models.go
package extractentities

import "jira-askbot/internal/models"

type Input struct {
	Text string `json:"text"`
}

type Output struct {
	Entities     models.EntityBag `json:"entities"`
	Source       string           `json:"source"`
	RulesVersion string           `json:"rulesVersion,omitempty"`
}

// modelReply mirrors the entity schema the model is asked to fill.
type modelReply struct {
	ClientName   *string `json:"client_name"`
	Assignee     *string `json:"assignee"`
	TimePeriod   *string `json:"time_period"`
	SearchText   *string `json:"search_text"`
	IssueType    *string `json:"issue_type"`
	Priority     *string `json:"priority"`
	ProjectKey   *string `json:"project_key"`
	StatusIntent *string `json:"status_intent"`
	QueryType    *string `json:"query_type"`
}

func (r modelReply) toBag() models.EntityBag {
	bag := models.EntityBag{
		ClientName:   r.ClientName,
		AssigneeRaw:  r.Assignee,
		TimePeriod:   r.TimePeriod,
		SearchText:   r.SearchText,
		IssueType:    r.IssueType,
		Priority:     r.Priority,
		ProjectKey:   r.ProjectKey,
		StatusIntent: models.StatusIntent(models.Deref(r.StatusIntent)),
		QueryType:    models.QueryType(models.Deref(r.QueryType)),
	}.Normalize()

	if bag.TimePeriod != nil {
		bag.TimePeriod = models.StringPtr(models.CanonicalPeriod(*bag.TimePeriod))
	}
	return bag
}
