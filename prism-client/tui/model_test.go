package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"

	"prism-todo/prism-api/domain"
	"prism-todo/prism-client/board"
)

type fakeAPI struct {
	mu      sync.Mutex
	tasks   []domain.Task
	seq     int
	fail    bool
	queries []domain.Query
	calls   []string
}

func (f *fakeAPI) record(call string) error {
	f.calls = append(f.calls, call)
	if f.fail {
		return errors.New("unavailable")
	}
	return nil
}

func (f *fakeAPI) ListTasks(_ context.Context, q domain.Query) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if err := f.record("list"); err != nil {
		return nil, err
	}
	return q.Apply(f.tasks), nil
}

func (f *fakeAPI) CreateTask(_ context.Context, text string, important bool) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create"); err != nil {
		return domain.Task{}, err
	}
	f.seq++
	now := time.Unix(int64(f.seq), 0).UTC()
	t, err := domain.NewTask(domain.CreateInput{Text: &text, Important: &important}, string(rune('a'+f.seq-1)), now)
	if err != nil {
		return domain.Task{}, err
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update"); err != nil {
		return domain.Task{}, err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = p.ApplyTo(t, t.UpdatedAt.Add(time.Second))
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, domain.NotFoundError{ID: id}
}

func (f *fakeAPI) DeleteTask(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{ID: id}
}

func (f *fakeAPI) Stats(context.Context) (domain.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("stats"); err != nil {
		return domain.Stats{}, err
	}
	return domain.Aggregate(f.tasks), nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	f.calls = nil
	return out
}

func newTestModel(t *testing.T, api *fakeAPI) *Model {
	t.Helper()
	logger, _ := test.NewNullLogger()
	m := NewModel(context.Background(), api, logger)
	run(m, m.Init())
	return m
}

// run executes cmd and feeds every resulting message back into m until no
// commands remain.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	case tea.QuitMsg, nil:
	default:
		_, next := m.Update(msg)
		run(m, next)
	}
}

func press(m *Model, keys ...string) {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "ctrl+t":
			msg = tea.KeyMsg{Type: tea.KeyCtrlT}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := m.Update(msg)
		run(m, cmd)
	}
}

func texts(m *Model) []string {
	var out []string
	for _, t := range board.Visible(m.State()) {
		out = append(out, t.Text)
	}
	return out
}

func TestInitLoadsTasksAndStats(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)

	calls := api.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected list+stats on init, got %v", calls)
	}
	if m.State().Loading() {
		t.Fatal("expected loading to finish")
	}
}

func TestComposeCreatesAndRefreshesStats(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	api.Calls()

	press(m, "a", "enter")
	if calls := api.Calls(); len(calls) != 0 {
		t.Fatalf("create must be disabled for empty compose, got %v", calls)
	}

	press(m, "M", "i", "l", "k", "ctrl+t", "enter")
	if calls := api.Calls(); strings.Join(calls, ",") != "create,stats" {
		t.Fatalf("expected create then stats, got %v", calls)
	}
	s := m.State()
	if got := texts(m); len(got) != 1 || got[0] != "Milk" {
		t.Fatalf("unexpected mirror: %v", got)
	}
	if !s.Tasks[0].Important {
		t.Fatal("expected important flag from ctrl+t")
	}
	if s.Stats.Total != 1 || s.Stats.Important != 1 {
		t.Fatalf("unexpected stats: %+v", s.Stats)
	}
	if s.Compose != "" {
		t.Fatal("expected compose cleared")
	}
}

func TestToggleStarDelete(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	press(m, "a", "o", "n", "e", "enter")
	press(m, "a", "t", "w", "o", "enter")
	api.Calls()

	// cursor on newest ("two")
	press(m, " ")
	if calls := api.Calls(); strings.Join(calls, ",") != "update,stats" {
		t.Fatalf("expected update then stats, got %v", calls)
	}
	s := m.State()
	if !s.Tasks[0].Completed || s.Tasks[0].Text != "two" {
		t.Fatalf("expected first task completed in place: %+v", s.Tasks)
	}
	if s.Stats.Completed != 1 {
		t.Fatalf("unexpected stats: %+v", s.Stats)
	}

	press(m, "down", "s")
	if !m.State().Tasks[1].Important {
		t.Fatal("expected second task starred")
	}

	press(m, "d")
	if got := texts(m); len(got) != 1 || got[0] != "two" {
		t.Fatalf("unexpected mirror after delete: %v", got)
	}
	if m.State().Stats.Total != 1 {
		t.Fatalf("unexpected stats after delete: %+v", m.State().Stats)
	}
	if m.cursor != 0 {
		t.Fatalf("expected cursor clamped, got %d", m.cursor)
	}
}

func TestMutationKeysIgnoredWhileLoading(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	press(m, "a", "o", "n", "e", "enter")
	api.Calls()

	m.Update(board.QueryStarted{})
	if !m.State().Loading() {
		t.Fatal("expected query in flight")
	}
	for _, key := range []string{" ", "x", "s", "*", "d"} {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
		if cmd != nil {
			t.Fatalf("key %q: expected no command while loading", key)
		}
	}
	press(m, "e")
	if m.mode != modeBrowse {
		t.Fatal("expected edit to stay closed while loading")
	}
	if calls := api.Calls(); len(calls) != 0 {
		t.Fatalf("expected no calls while loading, got %v", calls)
	}

	m.Update(board.QuerySucceeded{Tasks: m.State().Tasks})
	press(m, " ")
	if calls := api.Calls(); strings.Join(calls, ",") != "update,stats" {
		t.Fatalf("expected update then stats after load, got %v", calls)
	}
	if !m.State().Tasks[0].Completed {
		t.Fatalf("expected task completed: %+v", m.State().Tasks)
	}
}

func TestUpdatedTaskStaysVisibleUntilRequery(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	press(m, "a", "x", "enter")
	press(m, "2") // pending
	if got := texts(m); len(got) != 1 {
		t.Fatalf("expected task in pending view, got %v", got)
	}

	press(m, " ")
	if got := texts(m); len(got) != 1 {
		t.Fatalf("completed task must not be filtered locally, got %v", got)
	}

	press(m, "r")
	if got := texts(m); len(got) != 0 {
		t.Fatalf("expected refresh to replace mirror, got %v", got)
	}
}

func TestSearchRequeriesPerKeystroke(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	press(m, "a", "A", "l", "p", "h", "a", "enter")
	press(m, "a", "b", "e", "t", "a", "enter")
	api.queries = nil

	press(m, "/", "A", "L", "backspace", "esc")
	if len(api.queries) != 3 {
		t.Fatalf("expected one query per edit, got %+v", api.queries)
	}
	if m.State().Search != "A" {
		t.Fatalf("unexpected search: %q", m.State().Search)
	}
	if got := texts(m); len(got) != 2 {
		t.Fatalf("expected both tasks to match 'A', got %v", got)
	}
}

func TestTabCyclesFilter(t *testing.T) {
	m := newTestModel(t, &fakeAPI{})
	want := []domain.Filter{domain.FilterPending, domain.FilterCompleted, domain.FilterImportant, domain.FilterAll}
	for _, f := range want {
		press(m, "tab")
		if m.State().Filter != f {
			t.Fatalf("expected filter %s, got %s", f, m.State().Filter)
		}
	}
}

func TestEditSendsTextPatch(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	press(m, "a", "o", "l", "d", "enter")
	press(m, "e", "backspace", "backspace", "backspace", "n", "e", "w", "enter")
	if got := texts(m); len(got) != 1 || got[0] != "new" {
		t.Fatalf("unexpected mirror after edit: %v", got)
	}
}

func TestFailuresSurfaceError(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	press(m, "a", "k", "e", "e", "p", "enter")
	api.fail = true
	api.Calls()

	press(m, "d")
	if calls := api.Calls(); strings.Join(calls, ",") != "delete" {
		t.Fatalf("failed mutation must not trigger stats refresh or retries, got %v", calls)
	}
	s := m.State()
	if s.Err != "failed to delete tasks" {
		t.Fatalf("unexpected error: %q", s.Err)
	}
	if got := texts(m); len(got) != 1 {
		t.Fatalf("mirror must be untouched, got %v", got)
	}
	if !strings.Contains(m.View(), "failed to delete tasks") {
		t.Fatal("expected error banner in view")
	}

	press(m, "esc")
	if m.State().Err != "" {
		t.Fatal("expected error dismissed")
	}
}

func TestViewRendersTasks(t *testing.T) {
	api := &fakeAPI{}
	m := newTestModel(t, api)
	if !strings.Contains(m.View(), "No tasks.") {
		t.Fatalf("expected empty placeholder, got %q", m.View())
	}
	press(m, "a", "w", "r", "i", "t", "e", "enter")
	press(m, " ")
	view := m.View()
	if !strings.Contains(view, "[x]") || !strings.Contains(view, "write") {
		t.Fatalf("expected completed row in view, got %q", view)
	}
	if !strings.Contains(view, "1 total") {
		t.Fatalf("expected stats line, got %q", view)
	}
}

func TestQuitKeys(t *testing.T) {
	m := newTestModel(t, &fakeAPI{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
