package board

import "prism-todo/prism-api/domain"

// Msg is one of the closed set of state transitions below.
type Msg interface {
	boardMsg()
}

type (
	FilterChanged  struct{ Filter domain.Filter }
	SearchChanged  struct{ Search string }
	ComposeChanged struct{ Text string }
	QueryStarted   struct{}
	QuerySucceeded struct{ Tasks []domain.Task }
	QueryFailed    struct{ Err error }
	StatsSucceeded struct{ Stats domain.Stats }
	StatsFailed    struct{ Err error }
	ErrorDismissed struct{}

	// MutationSucceeded carries the canonical record returned by the
	// service. For deletes only ID is set.
	MutationSucceeded struct {
		Kind domain.EventType
		Task domain.Task
		ID   string
	}
	MutationFailed struct {
		Action Action
		Err    error
	}
)

func (FilterChanged) boardMsg()     {}
func (SearchChanged) boardMsg()     {}
func (ComposeChanged) boardMsg()    {}
func (QueryStarted) boardMsg()      {}
func (QuerySucceeded) boardMsg()    {}
func (QueryFailed) boardMsg()       {}
func (StatsSucceeded) boardMsg()    {}
func (StatsFailed) boardMsg()       {}
func (ErrorDismissed) boardMsg()    {}
func (MutationSucceeded) boardMsg() {}
func (MutationFailed) boardMsg()    {}

// Reduce applies msg to s and returns the new state. It never modifies the
// slices held by s.
func Reduce(s State, msg Msg) State {
	switch msg := msg.(type) {
	case FilterChanged:
		s.Filter = msg.Filter
	case SearchChanged:
		s.Search = msg.Search
	case ComposeChanged:
		s.Compose = msg.Text
	case QueryStarted:
		s.inflight++
	case QuerySucceeded:
		s.inflight = done(s.inflight)
		s.Tasks = append([]domain.Task(nil), msg.Tasks...)
	case QueryFailed:
		s.inflight = done(s.inflight)
		s.Err = ActionLoad.ErrorMessage()
	case StatsSucceeded:
		s.Stats = msg.Stats
	case StatsFailed:
		s.Err = ActionLoad.ErrorMessage()
	case ErrorDismissed:
		s.Err = ""
	case MutationSucceeded:
		s = applyMutation(s, msg)
	case MutationFailed:
		s.Err = msg.Action.ErrorMessage()
	}
	return s
}

func applyMutation(s State, msg MutationSucceeded) State {
	switch msg.Kind {
	case domain.TaskCreated:
		tasks := make([]domain.Task, 0, len(s.Tasks)+1)
		tasks = append(tasks, msg.Task)
		s.Tasks = append(tasks, s.Tasks...)
		s.Compose = ""
	case domain.TaskUpdated:
		i := s.Find(msg.Task.ID)
		if i < 0 {
			return s
		}
		tasks := append([]domain.Task(nil), s.Tasks...)
		tasks[i] = msg.Task
		s.Tasks = tasks
	case domain.TaskDeleted:
		i := s.Find(msg.ID)
		if i < 0 {
			return s
		}
		tasks := make([]domain.Task, 0, len(s.Tasks)-1)
		tasks = append(tasks, s.Tasks[:i]...)
		s.Tasks = append(tasks, s.Tasks[i+1:]...)
	}
	return s
}

func done(n int) int {
	if n > 0 {
		return n - 1
	}
	return 0
}
