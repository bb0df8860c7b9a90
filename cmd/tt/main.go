package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"task-tracker/pkg/snapshot"
	"task-tracker/pkg/task"
	"task-tracker/pkg/tracker"
)

var Version = "dev"

var (
	dataFile string
	asJSON   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tt",
		Short:         "tt - task tracker on a CSV snapshot",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&dataFile, "file", "f", envOr("TRACKER_DATA_FILE", "tasks.csv"), "CSV snapshot to operate on")
	rootCmd.PersistentFlags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(kindCmd(task.KindTask))
	rootCmd.AddCommand(kindCmd(task.KindEpic))
	rootCmd.AddCommand(kindCmd(task.KindSubtask))
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(prioritizedCmd())
	rootCmd.AddCommand(icsCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(demoCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "tt:", err)
		os.Exit(1)
	}
}

// open loads the tracker from the CSV snapshot. Every mutation saves it back.
func open(ctx context.Context) (*tracker.Tracker, error) {
	return tracker.Open(ctx,
		tracker.WithSnapshot(snapshot.NewFileStore(dataFile)),
		tracker.WithSource("cli"),
	)
}

// parseKind accepts task, epic, subtask and their plurals in any case.
func parseKind(s string) (task.Kind, error) {
	s = strings.TrimSuffix(strings.ToUpper(s), "S")
	if k, ok := task.ParseKind(s); ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q (want task, epic or subtask)", s)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseDuration accepts ISO-8601 (PT1H30M) or Go (1h30m) spellings.
func parseDuration(s string) (time.Duration, error) {
	if d, err := task.ParseDuration(s); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printEntities(items []*task.Task) error {
	if asJSON {
		return printJSON(items)
	}
	if len(items) == 0 {
		fmt.Println("(empty)")
		return nil
	}
	for _, t := range items {
		printShort(t)
	}
	return nil
}

func printEntity(t *task.Task) error {
	if asJSON {
		return printJSON(t)
	}
	printShort(t)
	return nil
}

func printShort(t *task.Task) {
	when := ""
	if t.StartTime != nil && t.Duration != nil {
		when = fmt.Sprintf("%s  %s", t.StartTime.Format("2006-01-02 15:04"), task.FormatDuration(*t.Duration))
	}
	fmt.Printf("%-4d  %-8s  %-12s  %-30s  %s\n", t.ID, t.Kind, t.Status, truncStr(t.Name, 30), when)
}

// truncStr cuts s to at most n characters.
func truncStr(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}
