// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const Version = "1.0.0"

func LoadRegistry(path string) (*StageRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg StageRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Default lists the pipeline stages in the order a message flows through
// them, followed by the maintenance stages.
func Default() *StageRegistry {
	return &StageRegistry{
		Version: Version,
		Stages: []Stage{
			{
				TaskType:    "enrich-context",
				DisplayName: "Enrich Context",
				Description: "Folds the previous conversation turn into a follow-up question",
				Category:    "nlq",
				ErrorCodes:  []string{"INVALID_INPUT"},
				Timeout:     "10s",
			},
			{
				TaskType:    "classify-intent",
				DisplayName: "Classify Intent",
				Description: "Classifies the question with the model, falling back to rules",
				Category:    "nlq",
				ErrorCodes:  []string{"INVALID_INPUT"},
				Timeout:     "150s",
				Tags:        []string{"llm"},
			},
			{
				TaskType:    "extract-entities",
				DisplayName: "Extract Entities",
				Description: "Extracts client, assignee, period and filters from the question",
				Category:    "nlq",
				ErrorCodes:  []string{"INVALID_INPUT"},
				Timeout:     "150s",
				Tags:        []string{"llm"},
			},
			{
				TaskType:    "synthesize-query",
				DisplayName: "Synthesize Query",
				Description: "Builds the tracker query or asks for a missing mapping",
				Category:    "nlq",
				ErrorCodes:  []string{"INVALID_INPUT", "CACHE_UNAVAILABLE"},
				Timeout:     "150s",
				Tags:        []string{"llm"},
			},
			{
				TaskType:    "teach-mapping",
				DisplayName: "Teach Mapping",
				Description: "Stores a client or user mapping taught by a person",
				Category:    "mapping",
				ErrorCodes:  []string{"INVALID_INPUT", "CACHE_UNAVAILABLE"},
				Timeout:     "10s",
			},
			{
				TaskType:    "refresh-dictionaries",
				DisplayName: "Refresh Dictionaries",
				Description: "Reloads the tracker dictionaries for one account",
				Category:    "dictionary",
				ErrorCodes:  []string{"TRACKER_AUTH_ERROR", "DICTIONARY_UNAVAILABLE"},
				Timeout:     "60s",
			},
		},
	}
}

// Validate rejects empty or duplicate task types and unparsable timeouts.
func (r *StageRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Stages))
	for i, s := range r.Stages {
		if s.TaskType == "" {
			return fmt.Errorf("stage %d: taskType is required", i)
		}
		if seen[s.TaskType] {
			return fmt.Errorf("stage %s: duplicate taskType", s.TaskType)
		}
		seen[s.TaskType] = true
		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				return fmt.Errorf("stage %s: invalid timeout %q", s.TaskType, s.Timeout)
			}
		}
	}
	return nil
}

func (r *StageRegistry) Find(taskType string) (Stage, bool) {
	for _, s := range r.Stages {
		if s.TaskType == taskType {
			return s, true
		}
	}
	return Stage{}, false
}

// TimeoutFor returns the stage timeout, or fallback when the stage is
// unknown or has none.
func (r *StageRegistry) TimeoutFor(taskType string, fallback time.Duration) time.Duration {
	s, ok := r.Find(taskType)
	if !ok || s.Timeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return fallback
	}
	return d
}

// Save validates the registry and writes it as indented JSON.
func (r *StageRegistry) Save(path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
