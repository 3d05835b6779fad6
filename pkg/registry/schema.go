// pkg/registry/schema.go
package registry

// StageRegistry describes the job workers a BPMN process can call.
type StageRegistry struct {
	Version string  `json:"version"`
	Stages  []Stage `json:"stages"`
}

type Stage struct {
	TaskType    string   `json:"taskType"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Tags        []string `json:"tags,omitempty"`
}
