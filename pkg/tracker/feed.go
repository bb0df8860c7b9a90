package tracker

import (
	"log"
	"strings"

	"task-tracker/pkg/journal"
)

const feedBuffer = 64

// Feed delivers journal events as the tracker commits them. Events arrive in
// commit order; a feed that falls a full buffer behind loses events.
type Feed struct {
	C <-chan *journal.Event

	ch      chan *journal.Event
	prefix  string
	dropped int
	t       *Tracker
}

// Watch opens a Feed of events whose type starts with prefix, e.g. "epic."
// or "subtasks.". An empty prefix matches everything. Events are only
// produced when a journal is configured.
func (t *Tracker) Watch(prefix string) *Feed {
	ch := make(chan *journal.Event, feedBuffer)
	f := &Feed{C: ch, ch: ch, prefix: prefix, t: t}
	t.feedMu.Lock()
	t.feeds[f] = struct{}{}
	t.feedMu.Unlock()
	return f
}

// Close detaches the feed and closes C. Closing twice is a no-op.
func (f *Feed) Close() {
	f.t.feedMu.Lock()
	defer f.t.feedMu.Unlock()
	if _, ok := f.t.feeds[f]; !ok {
		return
	}
	delete(f.t.feeds, f)
	close(f.ch)
}

// Dropped is the number of events this feed lost to a full buffer.
func (f *Feed) Dropped() int {
	f.t.feedMu.Lock()
	defer f.t.feedMu.Unlock()
	return f.dropped
}

func (t *Tracker) publish(e *journal.Event) {
	t.feedMu.Lock()
	defer t.feedMu.Unlock()
	for f := range t.feeds {
		if !strings.HasPrefix(e.Type, f.prefix) {
			continue
		}
		select {
		case f.ch <- e:
		default:
			f.dropped++
			log.Printf("tracker: feed %q lagging, dropped %s %s", f.prefix, e.Type, e.ID)
		}
	}
}
