// Package history keeps undo/redo state for the ledger.
//
// Versions live in an arena and the undo and redo stacks hold arena indexes.
// Versions are immutable ledger snapshots, so holding the same version from
// several places never copies records.
package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pocketbook-dev/pocketbook/internal/ledger"
)

// DefaultDepth is the number of undo steps kept when none is configured.
const DefaultDepth = 50

// HistoryEmptyError is returned by Undo or Redo when there is nothing to act on.
type HistoryEmptyError struct {
	Op string // "undo" or "redo"
}

func (e *HistoryEmptyError) Error() string {
	return "nothing to " + e.Op
}

// Version is one committed ledger state.
type Version struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Ledger    ledger.Snapshot
}

// Saver persists a ledger, e.g. to the designated CSV file.
type Saver interface {
	Save(s ledger.Snapshot) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(s ledger.Snapshot) error

// Save calls f(s).
func (f SaverFunc) Save(s ledger.Snapshot) error { return f(s) }

// Manager tracks the current version plus undo and redo stacks.
type Manager struct {
	arena   []Version
	undo    []int
	redo    []int
	current int
	clean   int // arena index of the last saved version, -1 if none
	depth   int
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides time.Now for version timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager whose current version is initial. depth <= 0 uses
// DefaultDepth.
func New(initial ledger.Snapshot, depth int, opts ...Option) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}
	m := &Manager{depth: depth, clean: -1, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.arena = []Version{m.newVersion("open", initial)}
	return m
}

// Depth returns the maximum number of undo steps.
func (m *Manager) Depth() int { return m.depth }

// Current returns the current ledger.
func (m *Manager) Current() ledger.Snapshot { return m.arena[m.current].Ledger }

// CurrentVersion returns the current version.
func (m *Manager) CurrentVersion() Version { return m.arena[m.current] }

// CanUndo reports whether Undo has anything to act on.
func (m *Manager) CanUndo() bool { return len(m.undo) > 0 }

// CanRedo reports whether Redo has anything to act on.
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Dirty reports whether the current version differs from the last saved one.
func (m *Manager) Dirty() bool { return m.clean != m.current }

// Commit records s as the new current version. The previous current version
// moves onto the undo stack and the redo stack is discarded.
func (m *Manager) Commit(label string, s ledger.Snapshot) {
	m.arena = append(m.arena, m.newVersion(label, s))
	m.undo = append(m.undo, m.current)
	m.current = len(m.arena) - 1
	m.redo = m.redo[:0]

	if over := len(m.undo) - m.depth; over > 0 {
		m.undo = append(m.undo[:0], m.undo[over:]...)
	}
	m.compact()
}

// Undo steps back one version and returns the restored ledger.
func (m *Manager) Undo() (ledger.Snapshot, error) {
	if len(m.undo) == 0 {
		return m.Current(), &HistoryEmptyError{Op: "undo"}
	}
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, m.current)
	m.current = prev
	return m.Current(), nil
}

// Redo re-applies the most recently undone version and returns it.
func (m *Manager) Redo() (ledger.Snapshot, error) {
	if len(m.redo) == 0 {
		return m.Current(), &HistoryEmptyError{Op: "redo"}
	}
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, m.current)
	m.current = next
	return m.Current(), nil
}

// QuickSave writes the current ledger through saver and marks it clean.
// The undo and redo stacks are left alone.
func (m *Manager) QuickSave(saver Saver) error {
	if err := saver.Save(m.Current()); err != nil {
		return err
	}
	m.clean = m.current
	return nil
}

// MarkClean records the current version as saved.
func (m *Manager) MarkClean() { m.clean = m.current }

// Entry is one line of the history timeline.
type Entry struct {
	Version
	Current bool
	Undone  bool // on the redo stack
}

// Entries returns the timeline oldest first: undo stack, current version,
// then undone versions in the order Redo would re-apply them.
func (m *Manager) Entries() []Entry {
	entries := make([]Entry, 0, len(m.undo)+1+len(m.redo))
	for _, i := range m.undo {
		entries = append(entries, Entry{Version: m.arena[i]})
	}
	entries = append(entries, Entry{Version: m.arena[m.current], Current: true})
	for k := len(m.redo) - 1; k >= 0; k-- {
		entries = append(entries, Entry{Version: m.arena[m.redo[k]], Undone: true})
	}
	return entries
}

func (m *Manager) newVersion(label string, s ledger.Snapshot) Version {
	return Version{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: m.now().UTC(),
		Ledger:    s,
	}
}

// compact drops arena versions no stack references once the arena holds
// more than twice what the stacks can reach.
func (m *Manager) compact() {
	if len(m.arena) <= 2*(m.depth+1) {
		return
	}
	m.rebuild()
}

func (m *Manager) rebuild() {
	remap := make(map[int]int)
	var arena []Version
	keep := func(i int) int {
		if j, ok := remap[i]; ok {
			return j
		}
		remap[i] = len(arena)
		arena = append(arena, m.arena[i])
		return remap[i]
	}
	for k, i := range m.undo {
		m.undo[k] = keep(i)
	}
	m.current = keep(m.current)
	for k, i := range m.redo {
		m.redo[k] = keep(i)
	}
	if m.clean >= 0 {
		if j, ok := remap[m.clean]; ok {
			m.clean = j
		} else {
			m.clean = -1
		}
	}
	m.arena = arena
}

// State is the persistable form of a Manager. Stacks hold indexes into
// Versions; the last element of Undo and Redo is the top of each stack.
type State struct {
	Versions []Version
	Undo     []int
	Redo     []int
	Current  int
	Clean    int // -1 if never saved
	Depth    int
}

// State returns a compacted copy of the manager's state.
func (m *Manager) State() State {
	m.rebuild()
	return State{
		Versions: append([]Version(nil), m.arena...),
		Undo:     append([]int(nil), m.undo...),
		Redo:     append([]int(nil), m.redo...),
		Current:  m.current,
		Clean:    m.clean,
		Depth:    m.depth,
	}
}

// ErrInvalidState is returned by Restore for inconsistent state.
var ErrInvalidState = errors.New("invalid history state")

// Restore builds a Manager from persisted state. A depth <= 0 keeps
// st.Depth; a smaller depth than st.Depth trims the oldest undo steps.
func Restore(st State, depth int, opts ...Option) (*Manager, error) {
	n := len(st.Versions)
	valid := func(i int) bool { return i >= 0 && i < n }
	if !valid(st.Current) {
		return nil, fmt.Errorf("current version %d of %d: %w", st.Current, n, ErrInvalidState)
	}
	for _, i := range append(append([]int(nil), st.Undo...), st.Redo...) {
		if !valid(i) {
			return nil, fmt.Errorf("stack references version %d of %d: %w", i, n, ErrInvalidState)
		}
	}
	clean := st.Clean
	if !valid(clean) {
		clean = -1
	}
	if depth <= 0 {
		depth = st.Depth
	}
	if depth <= 0 {
		depth = DefaultDepth
	}

	m := &Manager{
		arena:   append([]Version(nil), st.Versions...),
		undo:    append([]int(nil), st.Undo...),
		redo:    append([]int(nil), st.Redo...),
		current: st.Current,
		clean:   clean,
		depth:   depth,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if over := len(m.undo) - m.depth; over > 0 {
		m.undo = m.undo[over:]
	}
	m.rebuild()
	return m, nil
}
