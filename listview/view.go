package listview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"todo-stream/domain"
	"todo-stream/identity"
)

// ErrNotAuthenticated is returned for mutations attempted without a
// current principal.
var ErrNotAuthenticated = errors.New("not authenticated")

// TaskStore is the record-store surface the view depends on.
type TaskStore interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	CreateTask(ctx context.Context, userID, title, description string) (domain.Task, error)
	ToggleTask(ctx context.Context, userID, id string) error
	DeleteTask(ctx context.Context, userID, id string) error
}

// Feed delivers record-store push notifications scoped to one user.
type Feed interface {
	Subscribe(userID string) chan struct{}
	Unsubscribe(userID string, ch chan struct{})
}

// StatsSource is the server-side aggregation endpoint.
type StatsSource interface {
	FetchStats(ctx context.Context, userID string) (domain.Stats, error)
}

// View maintains the live task list for the current principal: at most one
// store subscription at a time, full-replace snapshots ordered newest
// first, and derived filtered slices. Every store push replaces local
// state wholesale; the view never merges and never predicts.
type View struct {
	store TaskStore
	feed  Feed

	mu      sync.Mutex
	user    *domain.User
	tasks   []domain.Task
	filter  domain.Filter
	loading bool
	err     error
	cancel  context.CancelFunc

	updates chan struct{}
}

func New(store TaskStore, feed Feed) *View {
	return &View{
		store:   store,
		feed:    feed,
		filter:  domain.FilterAll,
		updates: make(chan struct{}, 1),
	}
}

// Observe switches the view to the given principal. Any previous
// subscription is torn down first; a nil principal leaves the view idle.
func (v *View) Observe(ctx context.Context, user *domain.User) {
	v.mu.Lock()
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.user = user
	v.tasks = nil
	v.err = nil
	if user == nil {
		v.loading = false
		v.mu.Unlock()
		v.signal()
		return
	}
	v.loading = true
	subCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()
	v.signal()
	go v.run(subCtx, user.ID)
}

func (v *View) run(ctx context.Context, userID string) {
	ch := v.feed.Subscribe(userID)
	defer v.feed.Unsubscribe(userID, ch)
	if !v.refresh(ctx, userID) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			if !v.refresh(ctx, userID) {
				return
			}
		}
	}
}

// refresh replaces the snapshot from the store. A fetch failure terminates
// the subscription: loading is cleared, the error is exposed, and the view
// stays errored until the next Observe.
func (v *View) refresh(ctx context.Context, userID string) bool {
	tasks, err := v.store.ListTasks(ctx, userID)
	v.mu.Lock()
	if ctx.Err() != nil || v.user == nil || v.user.ID != userID {
		// Superseded by a newer Observe; discard.
		v.mu.Unlock()
		return false
	}
	if err != nil {
		v.loading = false
		v.err = err
		v.mu.Unlock()
		v.signal()
		return false
	}
	v.tasks = tasks
	v.loading = false
	v.err = nil
	v.mu.Unlock()
	v.signal()
	return true
}

func (v *View) signal() {
	select {
	case v.updates <- struct{}{}:
	default:
	}
}

// Updates signals after every state change. At most one wakeup is queued;
// readers re-read the getters after each signal.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

// Watch drives Observe from the identity session until ctx is done.
func (v *View) Watch(ctx context.Context, sess *identity.Session) {
	ch, cancelSub := sess.Changes()
	defer cancelSub()
	v.Observe(ctx, sess.Current())
	for {
		select {
		case <-ctx.Done():
			v.Observe(ctx, nil)
			return
		case u := <-ch:
			v.Observe(ctx, u)
		}
	}
}

// SetFilter changes the view filter. Pure and synchronous: the filtered
// slice is re-derived from the last snapshot, the store is not touched.
func (v *View) SetFilter(f domain.Filter) {
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
	v.signal()
}

func (v *View) Filter() domain.Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Filtered returns the current filter applied to the full snapshot.
func (v *View) Filtered() []domain.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter.Apply(v.tasks)
}

// Tasks returns a copy of the full snapshot, newest first.
func (v *View) Tasks() []domain.Task {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]domain.Task, len(v.tasks))
	copy(out, v.tasks)
	return out
}

func (v *View) Loading() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loading
}

func (v *View) Err() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.err
}

// ActiveCount folds over the full snapshot, not the filtered view.
func (v *View) ActiveCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.CountActive(v.tasks)
}

func (v *View) CompletedCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return domain.CountCompleted(v.tasks)
}

// Add creates a task owned by the current principal. A title that trims to
// nothing is dropped without a store write. Local state is never mutated
// here; the list updates when the store pushes the next snapshot.
func (v *View) Add(ctx context.Context, title, description string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	user := v.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	if _, err := v.store.CreateTask(ctx, user.ID, title, description); err != nil {
		log.Errorf("add task: %v", err)
		return err
	}
	return nil
}

// Toggle flips completion on the identified record. The store's snapshot
// stream, not local prediction, decides the observed final value.
func (v *View) Toggle(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	user := v.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	if err := v.store.ToggleTask(ctx, user.ID, id); err != nil {
		log.Errorf("toggle task %s: %v", id, err)
		return err
	}
	return nil
}

// Remove permanently deletes the record. Confirmation is the caller's
// concern, not this view's.
func (v *View) Remove(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	user := v.currentUser()
	if user == nil {
		return ErrNotAuthenticated
	}
	if err := v.store.DeleteTask(ctx, user.ID, id); err != nil {
		log.Errorf("remove task %s: %v", id, err)
		return err
	}
	return nil
}

// Stats returns the server-computed aggregate when available and falls
// back to a local fold over the held snapshot on any failure, trading
// freshness for availability.
func (v *View) Stats(ctx context.Context, src StatsSource) domain.Stats {
	v.mu.Lock()
	user := v.user
	snapshot := make([]domain.Task, len(v.tasks))
	copy(snapshot, v.tasks)
	v.mu.Unlock()

	uid := ""
	if user != nil {
		uid = user.ID
	}
	if src != nil && user != nil {
		stats, err := src.FetchStats(ctx, uid)
		if err == nil {
			return stats
		}
		log.Warnf("server stats unavailable, using local fallback: %v", err)
	}
	return domain.ComputeStats(snapshot, uid, time.Now().UTC())
}

func (v *View) currentUser() *domain.User {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.user
}
