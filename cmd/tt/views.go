package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/pkg/calendar"
	"task-tracker/pkg/task"
	"task-tracker/pkg/tracker"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history KIND:ID...",
		Short: "View entities in order and print the resulting history",
		Long: "History lives only as long as the process, so the entities to view are\n" +
			"named on the command line, e.g. tt history task:3 epic:1 task:3.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			seen, err := viewAll(tr, args)
			if err != nil {
				return err
			}
			return printEntities(seen)
		},
	}
}

// viewAll views each KIND:ID ref in order and returns the history. Refs to
// absent entities are reported and leave the history untouched.
func viewAll(tr *tracker.Tracker, refs []string) ([]*task.Task, error) {
	for _, ref := range refs {
		k, id, ok := strings.Cut(ref, ":")
		if !ok {
			return nil, fmt.Errorf("invalid ref %q (want KIND:ID)", ref)
		}
		kind, err := parseKind(k)
		if err != nil {
			return nil, err
		}
		n, err := parseID(id)
		if err != nil {
			return nil, err
		}
		if _, ok := tr.Get(kind, n); !ok {
			fmt.Fprintf(os.Stderr, "tt: %s %d not found\n", strings.ToLower(string(kind)), n)
		}
	}
	return tr.History(), nil
}

func prioritizedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prioritized",
		Short: "List scheduled tasks and subtasks by start time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			return printEntities(tr.Prioritized())
		},
	}
}

func icsCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export the schedule as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			var w io.Writer = os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return calendar.Write(w, tr.Prioritized(), time.Now())
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "-", "Output file, - for stdout")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add the events of an iCalendar feed as tasks",
		Long:  "Each event becomes a new task. Events that overlap the schedule are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := open(cmd.Context())
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			added, skipped, err := importCalendar(cmd.Context(), tr, f)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d, skipped %d\n", added, skipped)
			return nil
		},
	}
}

// importCalendar adds every event in r as a task. Events the tracker rejects
// are counted as skipped; only an unreadable feed is an error.
func importCalendar(ctx context.Context, tr *tracker.Tracker, r io.Reader) (added, skipped int, err error) {
	entries, err := calendar.Read(r)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		status, ok := task.ParseStatus(string(e.Status))
		if !ok {
			status = task.StatusNew
		}
		in := task.New(e.Summary, e.Description, status)
		if !e.Start.IsZero() && !e.End.IsZero() {
			in.At(e.Start.UTC(), e.End.Sub(e.Start))
		}
		if _, err := tr.AddTask(ctx, in); err != nil {
			fmt.Fprintf(os.Stderr, "tt: skip %q: %v\n", e.Summary, err)
			skipped++
			continue
		}
		added++
	}
	return added, skipped, nil
}

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the tracker on a throwaway in-memory instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), tracker.New(tracker.WithSource("demo")))
		},
	}
}

func runDemo(ctx context.Context, tr *tracker.Tracker) error {
	day := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	at := func(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

	step := func(title string) { fmt.Printf("\n== %s\n", title) }

	step("add tasks")
	write, err := tr.AddTask(ctx, task.New("write report", "quarterly numbers", task.StatusNew).At(at(9), time.Hour))
	if err != nil {
		return err
	}
	review, err := tr.AddTask(ctx, task.New("review", "", task.StatusInProgress).At(at(11), 30*time.Minute))
	if err != nil {
		return err
	}
	if _, err := tr.AddTask(ctx, task.New("someday", "untimed", task.StatusNew)); err != nil {
		return err
	}
	printEntities(tr.List(task.KindTask))

	step("conflicting task is rejected")
	if _, err := tr.AddTask(ctx, task.New("overlap", "", task.StatusNew).At(at(9).Add(30*time.Minute), time.Hour)); err != nil {
		fmt.Println("rejected:", err)
	}

	step("epic with subtasks")
	epic, err := tr.AddEpic(ctx, task.NewEpic("release", "v1.0"))
	if err != nil {
		return err
	}
	for i, name := range []string{"build", "ship"} {
		sub := task.NewSubtask(name, "", task.StatusNew, epic.ID).At(at(14+2*i), time.Hour)
		if _, err := tr.AddSubtask(ctx, sub); err != nil {
			return err
		}
	}
	epic, _ = tr.Epic(epic.ID)
	printEntity(epic)

	step("finish subtasks, epic follows")
	subs, err := tr.EpicSubtasks(epic.ID)
	if err != nil {
		return err
	}
	for _, s := range subs {
		s.Status = task.StatusDone
		if _, err := tr.UpdateSubtask(ctx, s); err != nil {
			return err
		}
	}
	epic, _ = tr.Epic(epic.ID)
	printEntity(epic)

	step("move the report after the review")
	write.At(at(12), time.Hour)
	if _, err := tr.UpdateTask(ctx, write); err != nil {
		return err
	}
	printEntities(tr.Prioritized())

	step("history")
	tr.Task(review.ID)
	tr.Task(write.ID)
	printEntities(tr.History())

	step("delete the epic")
	if err := tr.Delete(ctx, task.KindEpic, epic.ID); err != nil {
		return err
	}
	fmt.Printf("subtasks left: %d\n", len(tr.List(task.KindSubtask)))
	printEntities(tr.Prioritized())
	return nil
}
