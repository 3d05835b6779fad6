package models

// IntentType is the coarse category of a user request.
type IntentType string

const (
	IntentAnalytics IntentType = "analytics"
	IntentSearch    IntentType = "search"
	IntentWorklog   IntentType = "worklog"
	IntentStatus    IntentType = "status"
	IntentChart     IntentType = "chart"
)

func (t IntentType) Valid() bool {
	switch t {
	case IntentAnalytics, IntentSearch, IntentWorklog, IntentStatus, IntentChart:
		return true
	}
	return false
}

// Intent parameter keys.
const (
	ParamGroupBy   = "groupBy"
	ParamChartType = "chartType"
	ParamStatus    = "status"
)

// Where a classification or extraction came from.
const (
	SourceLLM   = "llm"
	SourceRules = "rules"
)

type Intent struct {
	Type       IntentType        `json:"intent"`
	NeedsChart bool              `json:"needsChart"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Source     string            `json:"source,omitempty"`
}

// Param returns the named parameter or "".
func (i Intent) Param(key string) string {
	if i.Parameters == nil {
		return ""
	}
	return i.Parameters[key]
}
