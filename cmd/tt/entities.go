package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"task-tracker/pkg/task"
)

// entityFlags are the fields settable from the command line.
type entityFlags struct {
	name        string
	description string
	status      string
	start       string
	duration    string
	epic        int
	id          int
}

func (f *entityFlags) register(cmd *cobra.Command, kind task.Kind) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "Name")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Description")
	if kind == task.KindEpic {
		return
	}
	cmd.Flags().StringVarP(&f.status, "status", "s", "", "Status (NEW, IN_PROGRESS, DONE)")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time, e.g. 2025-03-01T10:00")
	cmd.Flags().StringVar(&f.duration, "duration", "", "Duration, e.g. PT1H30M or 90m")
	if kind == task.KindSubtask {
		cmd.Flags().IntVarP(&f.epic, "epic", "e", 0, "Owning epic id")
	}
}

// apply copies the flags that were set onto t.
func (f *entityFlags) apply(cmd *cobra.Command, t *task.Task) error {
	if cmd.Flags().Changed("name") {
		t.Name = f.name
	}
	if cmd.Flags().Changed("description") {
		t.Description = f.description
	}
	if cmd.Flags().Changed("status") {
		st, ok := task.ParseStatus(f.status)
		if !ok {
			return fmt.Errorf("unknown status %q", f.status)
		}
		t.Status = st
	}
	if cmd.Flags().Changed("start") {
		if f.start == "" {
			t.StartTime = nil
		} else {
			st, err := task.ParseTime(f.start)
			if err != nil {
				return err
			}
			t.StartTime = &st
		}
	}
	if cmd.Flags().Changed("duration") {
		if f.duration == "" {
			t.Duration = nil
		} else {
			d, err := parseDuration(f.duration)
			if err != nil {
				return err
			}
			t.Duration = &d
		}
	}
	if cmd.Flags().Changed("epic") {
		t.EpicID = f.epic
	}
	if cmd.Flags().Changed("id") {
		t.ID = f.id
	}
	return nil
}

func kindCmd(kind task.Kind) *cobra.Command {
	name := map[task.Kind]string{task.KindTask: "task", task.KindEpic: "epic", task.KindSubtask: "subtask"}[kind]
	cmd := &cobra.Command{
		Use:   name,
		Short: "Manage " + name + "s",
	}
	cmd.AddCommand(addCmd(kind, name))
	return cmd
}

func addCmd(kind task.Kind, name string) *cobra.Command {
	var f entityFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a " + name,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.name == "" {
				return fmt.Errorf("--name is required")
			}
			if kind == task.KindSubtask && f.epic == 0 {
				return fmt.Errorf("--epic is required")
			}
			in := &task.Task{Kind: kind}
			if err := f.apply(cmd, in); err != nil {
				return err
			}
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			out, err := tr.Add(cmd.Context(), kind, in)
			if err != nil {
				return fmt.Errorf("add %s: %w", name, err)
			}
			return printEntity(out)
		},
	}
	f.register(cmd, kind)
	cmd.Flags().IntVar(&f.id, "id", 0, "Explicit id (must be unused)")
	return cmd
}

func updateCmd() *cobra.Command {
	var f entityFlags
	cmd := &cobra.Command{
		Use:   "update <kind> <id>",
		Short: "Update fields of an existing entity",
		Long: `Update the fields given as flags and keep the rest.
Epics only take --name and --description; their status and timing are derived.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			cur, ok := tr.Get(kind, id)
			if !ok {
				return fmt.Errorf("%s %d not found", args[0], id)
			}
			if err := f.apply(cmd, cur); err != nil {
				return err
			}
			out, err := tr.Update(cmd.Context(), kind, cur)
			if err != nil {
				return fmt.Errorf("update: %w", err)
			}
			return printEntity(out)
		},
	}
	f.register(cmd, task.KindSubtask)
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "List tasks, epics or subtasks ordered by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			return printEntities(tr.List(kind))
		},
	}
}

func getCmd() *cobra.Command {
	var subtasks bool
	cmd := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show one entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if subtasks {
				if kind != task.KindEpic {
					return fmt.Errorf("--subtasks needs an epic")
				}
				subs, err := tr.EpicSubtasks(id)
				if err != nil {
					return err
				}
				return printEntities(subs)
			}
			t, ok := tr.Get(kind, id)
			if !ok {
				return fmt.Errorf("%s %d not found", args[0], id)
			}
			return printEntity(t)
		},
	}
	cmd.Flags().BoolVar(&subtasks, "subtasks", false, "List the epic's subtasks instead")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete one entity; epics take their subtasks along",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if err := tr.Delete(cmd.Context(), kind, id); err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			fmt.Printf("deleted %s %d\n", args[0], id)
			return nil
		},
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <kind>",
		Short: "Delete every entity of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			tr.DeleteAll(cmd.Context(), kind)
			fmt.Printf("cleared %s\n", args[0])
			return nil
		},
	}
}
