package models

// DictionaryType names one of the tracker's controlled vocabularies.
type DictionaryType string

const (
	DictProjects   DictionaryType = "projects"
	DictStatuses   DictionaryType = "statuses"
	DictIssueTypes DictionaryType = "issue_types"
	DictPriorities DictionaryType = "priorities"
	DictUsers      DictionaryType = "users"
)

// AllDictionaryTypes lists the five dictionaries refreshed together.
var AllDictionaryTypes = []DictionaryType{
	DictProjects,
	DictStatuses,
	DictIssueTypes,
	DictPriorities,
	DictUsers,
}

// DictionaryRecord is one entry of a dictionary snapshot. For statuses
// Category is the tracker's status category; for users Name is the
// display name and ID the account handle.
type DictionaryRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// Dictionaries maps each type to its snapshot for one account.
type Dictionaries map[DictionaryType][]DictionaryRecord

// Empty reports whether every snapshot has no records.
func (d Dictionaries) Empty() bool {
	for _, records := range d {
		if len(records) > 0 {
			return false
		}
	}
	return true
}
