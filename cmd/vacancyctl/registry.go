package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"lawjobs-workers/internal/common/validation"
	"lawjobs-workers/pkg/registry"
)

func registryCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the activity registry",
	}
	cmd.PersistentFlags().StringVar(&path, "path", "configs/activity-registry.json", "path to the registry file")

	var (
		a      registry.Activity
		status string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.ID == "" || a.TaskType == "" || a.Category == "" {
				return errors.New("--id, --task-type and --category are required")
			}
			st, err := registry.ParseStatus(status)
			if err != nil {
				return err
			}
			a.Status = st
			if err := addActivity(path, a, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added activity %s\n", a.ID)
			return nil
		},
	}
	add.Flags().StringVar(&a.ID, "id", "", "activity id (e.g. postings.distribute)")
	add.Flags().StringVar(&a.DisplayName, "display-name", "", "display name")
	add.Flags().StringVar(&a.Description, "description", "", "description")
	add.Flags().StringVar(&a.Category, "category", "", "category (e.g. postings)")
	add.Flags().StringVar(&a.TaskType, "task-type", "", "Zeebe task type")
	add.Flags().StringVar(&a.Version, "version", "1.0.0", "version")
	add.Flags().StringVar(&status, "status", "planned", "planned, in-progress, completed or verified")
	add.Flags().StringVar(&a.Timeout, "timeout", "10s", "job timeout")

	set := &cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Change one field of an activity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := updateActivity(path, args[0], args[1], args[2], time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s.%s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(
		add,
		set,
		&cobra.Command{
			Use:   "validate",
			Short: "Check the registry and compile its input schemas",
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := registry.LoadRegistry(path)
				if err != nil {
					return err
				}
				if err := checkRegistry(reg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registry ok: %d activities\n", len(reg.Activities))
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the registered activities",
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := registry.LoadRegistry(path)
				if err != nil {
					return err
				}
				t := newTable(cmd.OutOrStdout())
				t.AppendHeader(table.Row{"Task type", "Category", "Status", "Timeout", "Errors"})
				for _, act := range reg.Activities {
					t.AppendRow(table.Row{act.TaskType, act.Category, act.Status, act.Timeout, len(act.ErrorCodes)})
				}
				t.Render()
				return nil
			},
		},
	)
	return cmd
}

// checkRegistry runs the structural checks and compiles every input schema.
func checkRegistry(reg *registry.ActivityRegistry) error {
	if len(reg.Activities) == 0 {
		return errors.New("registry contains no activities")
	}
	if err := reg.Check(); err != nil {
		return err
	}
	for _, a := range reg.Activities {
		if a.DisplayName == "" {
			return fmt.Errorf("activity %s has no display name", a.ID)
		}
		if a.Category == "" {
			return fmt.Errorf("activity %s has no category", a.ID)
		}
		if err := validation.ValidateTaskTypeNaming(a.TaskType); err != nil {
			return fmt.Errorf("activity %s: %w", a.ID, err)
		}
	}
	if _, err := validation.NewSchemaValidator(reg); err != nil {
		return err
	}
	return nil
}

func addActivity(path string, a registry.Activity, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	}
	for _, existing := range reg.Activities {
		if existing.ID == a.ID {
			return fmt.Errorf("activity %s already exists", a.ID)
		}
	}
	if a.InputSchema == nil {
		a.InputSchema = map[string]interface{}{"type": "object"}
	}
	if a.OutputSchema == nil {
		a.OutputSchema = map[string]interface{}{"type": "object"}
	}
	reg.Activities = append(reg.Activities, a)
	reg.LastUpdated = now.Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func updateActivity(path, id, field, value string, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}

	var target *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			target = &reg.Activities[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("activity %s not found", id)
	}

	switch field {
	case "status":
		st, err := registry.ParseStatus(value)
		if err != nil {
			return err
		}
		target.Status = st
	case "version":
		target.Version = value
	case "displayName":
		target.DisplayName = value
	case "description":
		target.Description = value
	case "category":
		target.Category = value
	case "taskType":
		target.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		target.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		target.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = now.Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
