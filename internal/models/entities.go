package models

import "strings"

type QueryType string

const (
	QueryTypeCount     QueryType = "count"
	QueryTypeAnalytics QueryType = "analytics"
	QueryTypeList      QueryType = "list"
	QueryTypeRanking   QueryType = "ranking"
	QueryTypeSearch    QueryType = "search"
)

func (q QueryType) Valid() bool {
	switch q {
	case QueryTypeCount, QueryTypeAnalytics, QueryTypeList, QueryTypeRanking, QueryTypeSearch:
		return true
	}
	return false
}

// Aggregate reports whether the query asks for numbers rather than issues.
func (q QueryType) Aggregate() bool {
	return q == QueryTypeAnalytics || q == QueryTypeCount || q == QueryTypeRanking
}

type StatusIntent string

const (
	StatusOpen   StatusIntent = "open"
	StatusClosed StatusIntent = "closed"
	StatusAll    StatusIntent = "all"
)

func (s StatusIntent) Valid() bool {
	return s == StatusOpen || s == StatusClosed || s == StatusAll
}

// Assignee sentinels carried in EntityBag.AssigneeRaw.
const (
	AssigneeUnassigned  = "UNASSIGNED"
	AssigneeCurrentUser = "CURRENT_USER"
)

// EntityBag holds the candidate entities extracted from one utterance.
// A nil field means "not constrained".
type EntityBag struct {
	ClientName   *string      `json:"clientName,omitempty"`
	AssigneeRaw  *string      `json:"assigneeRaw,omitempty"`
	TimePeriod   *string      `json:"timePeriod,omitempty"`
	SearchText   *string      `json:"searchText,omitempty"`
	IssueType    *string      `json:"issueType,omitempty"`
	Priority     *string      `json:"priority,omitempty"`
	ProjectKey   *string      `json:"projectKey,omitempty"`
	QueryType    QueryType    `json:"queryType"`
	StatusIntent StatusIntent `json:"statusIntent"`
}

// DefaultEntityBag is the safe result when nothing could be extracted.
func DefaultEntityBag() EntityBag {
	return EntityBag{QueryType: QueryTypeSearch, StatusIntent: StatusAll}
}

// IsEmpty reports whether no field constrains the query.
func (b EntityBag) IsEmpty() bool {
	return b.ClientName == nil && b.AssigneeRaw == nil && b.TimePeriod == nil &&
		b.SearchText == nil && b.IssueType == nil && b.Priority == nil &&
		b.ProjectKey == nil &&
		(b.QueryType == "" || b.QueryType == QueryTypeSearch) &&
		(b.StatusIntent == "" || b.StatusIntent == StatusAll)
}

// Merge returns a copy of b with every field set in overlay taking
// precedence. StatusAll and QueryTypeSearch are neutral in the overlay.
func (b EntityBag) Merge(overlay EntityBag) EntityBag {
	out := b
	pick := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
		}
	}
	pick(&out.ClientName, overlay.ClientName)
	pick(&out.AssigneeRaw, overlay.AssigneeRaw)
	pick(&out.TimePeriod, overlay.TimePeriod)
	pick(&out.SearchText, overlay.SearchText)
	pick(&out.IssueType, overlay.IssueType)
	pick(&out.Priority, overlay.Priority)
	pick(&out.ProjectKey, overlay.ProjectKey)

	if overlay.QueryType != "" && overlay.QueryType != QueryTypeSearch {
		out.QueryType = overlay.QueryType
	}
	if overlay.StatusIntent != "" && overlay.StatusIntent != StatusAll {
		out.StatusIntent = overlay.StatusIntent
	}
	if out.QueryType == "" {
		out.QueryType = QueryTypeSearch
	}
	if out.StatusIntent == "" {
		out.StatusIntent = StatusAll
	}
	return out
}

// Normalize trims string fields, drops empty or "null" values and coerces
// unknown enum values to their defaults.
func (b EntityBag) Normalize() EntityBag {
	clean := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		if v == "" || strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
			return nil
		}
		return &v
	}
	out := EntityBag{
		ClientName:   clean(b.ClientName),
		AssigneeRaw:  clean(b.AssigneeRaw),
		TimePeriod:   clean(b.TimePeriod),
		SearchText:   clean(b.SearchText),
		IssueType:    clean(b.IssueType),
		Priority:     clean(b.Priority),
		ProjectKey:   clean(b.ProjectKey),
		QueryType:    QueryType(strings.ToLower(strings.TrimSpace(string(b.QueryType)))),
		StatusIntent: StatusIntent(strings.ToLower(strings.TrimSpace(string(b.StatusIntent)))),
	}
	if !out.QueryType.Valid() {
		out.QueryType = QueryTypeSearch
	}
	if !out.StatusIntent.Valid() {
		out.StatusIntent = StatusAll
	}
	return out
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string {
	return &s
}

// Deref returns *p or "" for nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
