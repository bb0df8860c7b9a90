package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"task-tracker/pkg/journal"
	"task-tracker/pkg/manager"
	"task-tracker/pkg/task"
)

var (
	apiBase = "/"
	theme   *material.Theme
)

// Pages
const (
	pageDashboard = iota
	pageTasks
	pageEpics
	pageSubtasks
	pageHistory
	pagePrioritized
	pageJournal
	pageCount
)

var pageTitles = [pageCount]string{"Dashboard", "Tasks", "Epics", "Subtasks", "History", "Prioritized", "Journal"}

type UI struct {
	window      *app.Window
	currentPage int

	nav [pageCount]widget.Clickable

	mu       sync.Mutex
	status   Status
	entities [pageCount][]*task.Task
	events   []journal.Event
	lastErr  string

	lists      [pageCount]widget.List
	refreshBtn widget.Clickable

	// Create task
	nameEditor     widget.Editor
	startEditor    widget.Editor
	durationEditor widget.Editor
	createTaskBtn  widget.Clickable
}

type Status struct {
	Counts  manager.Counts `json:"counts"`
	Uptime  string         `json:"uptime"`
	Journal int            `json:"journal"`
}

func main() {
	if base := os.Getenv("API_BASE"); base != "" {
		apiBase = base
	}

	theme = material.NewTheme()
	theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.Palette.Bg = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	theme.Palette.Fg = color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	theme.Palette.ContrastBg = color.NRGBA{R: 0x30, G: 0x60, B: 0xA0, A: 0xFF}
	theme.Palette.ContrastFg = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	ui := &UI{window: new(app.Window)}
	for i := range ui.lists {
		ui.lists[i].Axis = layout.Vertical
	}
	ui.nameEditor.SingleLine = true
	ui.startEditor.SingleLine = true
	ui.durationEditor.SingleLine = true

	go ui.pollData()

	go func() {
		w := ui.window
		w.Option(app.Title("task-tracker"))
		w.Option(app.Size(unit.Dp(1200), unit.Dp(800)))
		if err := ui.run(w); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			ui.handleClicks(gtx)
			ui.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (ui *UI) handleClicks(gtx layout.Context) {
	for i := range ui.nav {
		if ui.nav[i].Clicked(gtx) {
			ui.currentPage = i
		}
	}
	if ui.refreshBtn.Clicked(gtx) {
		go ui.fetchAll()
	}
	if ui.createTaskBtn.Clicked(gtx) {
		name := strings.TrimSpace(ui.nameEditor.Text())
		if name != "" {
			go ui.createTask(name, strings.TrimSpace(ui.startEditor.Text()), strings.TrimSpace(ui.durationEditor.Text()))
			ui.nameEditor.SetText("")
			ui.startEditor.SetText("")
			ui.durationEditor.SetText("")
		}
	}
}

func (ui *UI) layout(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return ui.layoutNav(gtx)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(16), Right: unit.Dp(16), Bottom: unit.Dp(16), Left: unit.Dp(16)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				ui.mu.Lock()
				defer ui.mu.Unlock()
				switch ui.currentPage {
				case pageDashboard:
					return ui.layoutDashboard(gtx)
				case pageJournal:
					return ui.layoutJournal(gtx)
				case pageTasks:
					return ui.layoutTasks(gtx)
				default:
					return ui.layoutEntities(gtx, ui.currentPage)
				}
			})
		}),
	)
}

func (ui *UI) layoutNav(gtx layout.Context) layout.Dimensions {
	children := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Inset{Top: unit.Dp(16), Bottom: unit.Dp(16), Left: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				label := material.H6(theme, "tracker")
				label.Color = theme.Palette.ContrastFg
				return label.Layout(gtx)
			})
		}),
	}
	for i := range ui.nav {
		children = append(children, layout.Rigid(navBtn(theme, &ui.nav[i], pageTitles[i], ui.currentPage == i)))
	}
	gtx.Constraints.Min.X = gtx.Dp(unit.Dp(180))
	gtx.Constraints.Max.X = gtx.Dp(unit.Dp(180))
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}

func navBtn(th *material.Theme, btn *widget.Clickable, label string, active bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Top: unit.Dp(2), Bottom: unit.Dp(2), Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			b := material.Button(th, btn, label)
			if active {
				b.Background = th.Palette.ContrastBg
			} else {
				b.Background = color.NRGBA{A: 0}
			}
			b.Color = th.Palette.Fg
			return b.Layout(gtx)
		})
	}
}

func bodyLine(format string, args ...any) layout.FlexChild {
	return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
		return material.Body1(theme, fmt.Sprintf(format, args...)).Layout(gtx)
	})
}

func (ui *UI) layoutDashboard(gtx layout.Context) layout.Dimensions {
	c := ui.status.Counts
	children := []layout.FlexChild{
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Dashboard").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
		bodyLine("Tasks: %d", c.Tasks),
		bodyLine("Epics: %d", c.Epics),
		bodyLine("Subtasks: %d", c.Subtasks),
		bodyLine("Scheduled: %d", c.Scheduled),
		bodyLine("History: %d", c.History),
		bodyLine("Journal events: %d", ui.status.Journal),
		bodyLine("Uptime: %s", ui.status.Uptime),
		layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.Button(theme, &ui.refreshBtn, "Refresh").Layout(gtx)
		}),
	}
	if ui.lastErr != "" {
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			label := material.Caption(theme, ui.lastErr)
			label.Color = color.NRGBA{R: 0xFF, G: 0x40, B: 0x40, A: 0xFF}
			return label.Layout(gtx)
		}))
	}
	return layout.Flex{Axis: layout.Vertical, Spacing: layout.SpaceEnd}.Layout(gtx, children...)
}

func (ui *UI) layoutTasks(gtx layout.Context) layout.Dimensions {
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{}.Layout(gtx,
				layout.Flexed(2, func(gtx layout.Context) layout.Dimensions {
					return material.Editor(theme, &ui.nameEditor, "New task name...").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.Editor(theme, &ui.startEditor, "Start 2025-03-01T10:00").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return material.Editor(theme, &ui.durationEditor, "Duration PT1H").Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					return material.Button(theme, &ui.createTaskBtn, "Create").Layout(gtx)
				}),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return ui.layoutEntities(gtx, pageTasks)
		}),
	)
}

func statusColor(s task.Status) color.NRGBA {
	switch s {
	case task.StatusNew:
		return color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
	case task.StatusInProgress:
		return color.NRGBA{R: 0x00, G: 0xA0, B: 0xFF, A: 0xFF}
	case task.StatusDone:
		return color.NRGBA{R: 0x00, G: 0xC0, B: 0x00, A: 0xFF}
	}
	return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
}

func (ui *UI) layoutEntities(gtx layout.Context, page int) layout.Dimensions {
	items := ui.entities[page]
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, pageTitles[page]).Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.lists[page]).Layout(gtx, len(items), func(gtx layout.Context, i int) layout.Dimensions {
				t := items[i]
				return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(theme, fmt.Sprintf("#%d %s", t.ID, t.Name))
							label.Font.Weight = font.Bold
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, describe(t))
							label.Color = statusColor(t.Status)
							return label.Layout(gtx)
						}),
					)
				})
			})
		}),
	)
}

// describe renders the secondary line of an entity row.
func describe(t *task.Task) string {
	parts := []string{fmt.Sprintf("[%s] %s", t.Status, t.Kind)}
	if t.StartTime != nil {
		parts = append(parts, t.StartTime.Format("2006-01-02 15:04"))
	}
	if end := t.EndTime(); end != nil {
		parts = append(parts, "to "+end.Format("15:04"))
	}
	if t.EpicID != 0 {
		parts = append(parts, fmt.Sprintf("epic #%d", t.EpicID))
	}
	if len(t.Subtasks) > 0 {
		parts = append(parts, fmt.Sprintf("%d subtasks", len(t.Subtasks)))
	}
	return strings.Join(parts, "  ")
}

func (ui *UI) layoutJournal(gtx layout.Context) layout.Dimensions {
	events := ui.events
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return material.H5(theme, "Journal").Layout(gtx)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(theme, &ui.lists[pageJournal]).Layout(gtx, len(events), func(gtx layout.Context, i int) layout.Dimensions {
				e := events[i]
				return layout.Inset{Bottom: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body2(theme, fmt.Sprintf("[%s] %s #%d ← %s", e.Timestamp.Format("15:04:05"), e.Type, e.EntityID, e.Source))
							label.Font.Weight = font.Bold
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, truncStr(e.Hash, 16)+"...")
							label.Color = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
							return label.Layout(gtx)
						}),
					)
				})
			})
		}),
	)
}

func truncStr(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// Data fetching

func (ui *UI) pollData() {
	ui.fetchAll()
	ticker := time.NewTicker(5 * time.Second)
	for range ticker.C {
		ui.fetchAll()
	}
}

func (ui *UI) fetchAll() {
	var (
		status Status
		lists  [pageCount][]*task.Task
		events []journal.Event
		errs   []string
	)
	fetch := func(path string, v any) {
		if err := httpGetJSON(apiBase+path, v); err != nil {
			log.Printf("fetch %s: %v", path, err)
			errs = append(errs, err.Error())
		}
	}
	fetch("status", &status)
	fetch("tasks", &lists[pageTasks])
	fetch("epics", &lists[pageEpics])
	fetch("subtasks", &lists[pageSubtasks])
	fetch("history", &lists[pageHistory])
	fetch("prioritized", &lists[pagePrioritized])
	if status.Journal > 0 {
		fetch("journal?limit=100", &events)
	}

	ui.mu.Lock()
	ui.status = status
	ui.entities = lists
	ui.events = events
	ui.lastErr = strings.Join(errs, "; ")
	ui.mu.Unlock()
	ui.window.Invalidate()
}

func (ui *UI) createTask(name, start, duration string) {
	body := map[string]string{"name": name, "status": string(task.StatusNew)}
	if start != "" && duration != "" {
		body["startTime"] = start
		body["duration"] = duration
	}
	data, _ := json.Marshal(body)
	resp, err := http.Post(apiBase+"tasks", "application/json", strings.NewReader(string(data)))
	if err != nil {
		log.Printf("create task: %v", err)
		return
	}
	msg, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	ui.fetchAll()
	if resp.StatusCode != http.StatusCreated {
		ui.mu.Lock()
		ui.lastErr = fmt.Sprintf("create task: %s %s", resp.Status, strings.TrimSpace(string(msg)))
		ui.mu.Unlock()
		ui.window.Invalidate()
	}
}

func httpGetJSON(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, v)
}
