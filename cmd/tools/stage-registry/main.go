// cmd/tools/stage-registry/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"jira-askbot/pkg/registry"
)

var registryPath string

func main() {
	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{initCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "configs/stage-registry.json", "Path to registry file")
	}
	force := initCmd.Bool("force", false, "Overwrite an existing registry file")

	taskType := updateCmd.String("taskType", "", "Task type to update (e.g., classify-intent)")
	field := updateCmd.String("field", "", "Field to update (timeout, displayName, description, category, tags)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		initCmd.Parse(os.Args[2:])
		if _, err := os.Stat(registryPath); err == nil && !*force {
			fmt.Printf("Error: %s exists, use -force to overwrite\n", registryPath)
			os.Exit(1)
		}
		if err := registry.Default().Save(registryPath); err != nil {
			fmt.Printf("Error writing registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default registry to %s\n", registryPath)

	case "update":
		updateCmd.Parse(os.Args[2:])
		if *taskType == "" || *field == "" {
			fmt.Println("Error: taskType and field are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateStage(*taskType, *field, *value); err != nil {
			fmt.Printf("Error updating stage: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated stage %s, field %s to %s\n", *taskType, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registry validation passed. Found %d stages.\n", len(reg.Stages))

	case "help":
		fallthrough
	default:
		help()
	}
}

func updateStage(taskType, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	idx := -1
	for i := range reg.Stages {
		if reg.Stages[i].TaskType == taskType {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("stage %s not found", taskType)
	}

	s := &reg.Stages[idx]
	switch field {
	case "timeout":
		s.Timeout = value
	case "displayName":
		s.DisplayName = value
	case "description":
		s.Description = value
	case "category":
		s.Category = value
	case "tags":
		s.Tags = nil
		for _, tag := range strings.Split(value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				s.Tags = append(s.Tags, tag)
			}
		}
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return reg.Save(registryPath)
}

func help() {
	fmt.Println(`
Usage: stage-registry <command> [flags]

Commands:
  init     Write the built-in stage registry to a file
  update   Update a field of one stage
  validate Validate the registry file
  help     Show this help message

Examples:
  stage-registry init -path configs/stage-registry.json
  stage-registry update -taskType classify-intent -field timeout -value 90s
  stage-registry validate -path configs/stage-registry.json

The worker manager reads the file named by camunda.registry_path.`)
}
