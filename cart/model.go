// Package cart holds the shopping-cart model: the lines of the signed-in
// user, the subset selected for checkout, and the derived total.
//
// The model never shows a mutation before the backend confirms it. A failed
// call leaves lines and selection exactly as they were and returns an *Error.
// Nothing is retried and nothing refreshes in the background; callers decide
// when to Load.
package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every backend call made by a Model.
const DefaultTimeout = 10 * time.Second

// Status is the loading flag a UI binds to.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Option configures a Model.
type Option func(*Model)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the logger used for failed backend calls.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// View is a consistent copy of the model state.
type View struct {
	Lines    []Line
	Selected []string
	Total    decimal.Decimal
	Status   Status
	Err      error
}

// Model is safe for concurrent use. Operations on one line run in call
// order; operations on different lines do not wait for each other.
type Model struct {
	repo    Repository
	auth    Authenticator
	timeout time.Duration
	logger  *zap.Logger
	queue   *lineQueue

	mu       sync.RWMutex
	lines    []Line
	selected map[string]bool
	status   Status
	err      error
	loadGen  uint64

	// confirmed mutations, journaled while a Load is in flight so its
	// older snapshot cannot undo them
	mutSeq  uint64
	loading int
	journal []change
}

type change struct {
	seq      uint64
	lineID   string
	removed  bool
	quantity int
}

func NewModel(repo Repository, auth Authenticator, opts ...Option) *Model {
	m := &Model{
		repo:     repo,
		auth:     auth,
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
		queue:    newLineQueue(),
		selected: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load fetches every line of the signed-in user and selects all of them.
// On failure the previous lines and selection are kept.
func (m *Model) Load(ctx context.Context) error {
	const op = "load"

	m.mu.Lock()
	m.loadGen++
	gen := m.loadGen
	since := m.mutSeq
	m.loading++
	m.status = StatusLoading
	m.mu.Unlock()

	lines, err := m.fetch(ctx)
	if err != nil {
		err = wrap(op, "", err)
		m.logger.Warn("cart load failed", zap.Error(err))
		m.mu.Lock()
		m.loadDone()
		if gen == m.loadGen {
			m.status = StatusFailed
			m.err = err
		}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	lines = m.replay(lines, since)
	m.loadDone()
	if gen != m.loadGen {
		// a newer Load owns the state
		return nil
	}

	selected := make(map[string]bool, len(lines))
	for _, l := range lines {
		selected[l.ID] = true
	}
	m.lines = lines
	m.selected = selected
	m.status = StatusLoaded
	m.err = nil
	return nil
}

func (m *Model) fetch(ctx context.Context) ([]Line, error) {
	var userID string
	err := m.call(ctx, func(ctx context.Context) error {
		var err error
		userID, err = m.auth.CurrentUserID(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, NotAuthenticated("current user")
	}

	var lines []Line
	err = m.call(ctx, func(ctx context.Context) error {
		var err error
		lines, err = m.repo.ListLines(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		l.Quantity = ClampQuantity(l.Quantity)
		out = append(out, l)
	}
	return out, nil
}

// SetQuantity persists quantity, clamped to at least 1, and then applies it.
func (m *Model) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	release := m.queue.acquire(lineID)
	defer release()
	return m.setQuantity(ctx, "set quantity", lineID, func(int) int { return quantity })
}

// ChangeQuantity applies delta to the current quantity, for +/- controls.
// The current quantity is read after earlier operations on the line finish.
func (m *Model) ChangeQuantity(ctx context.Context, lineID string, delta int) error {
	release := m.queue.acquire(lineID)
	defer release()
	return m.setQuantity(ctx, "change quantity", lineID, func(cur int) int { return cur + delta })
}

func (m *Model) setQuantity(ctx context.Context, op, lineID string, next func(int) int) error {
	m.mu.RLock()
	i := m.indexOf(lineID)
	var current int
	if i >= 0 {
		current = m.lines[i].Quantity
	}
	m.mu.RUnlock()
	if i < 0 {
		return NotFound(op, lineID)
	}

	quantity := ClampQuantity(next(current))
	if quantity == current {
		return nil
	}

	err := m.call(ctx, func(ctx context.Context) error {
		return m.repo.UpdateQuantity(ctx, lineID, quantity)
	})
	if err != nil {
		err = wrap(op, lineID, err)
		m.logger.Warn("cart quantity update failed",
			zap.String("line_id", lineID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
		return err
	}

	m.mu.Lock()
	if i := m.indexOf(lineID); i >= 0 {
		m.lines[i].Quantity = quantity
	}
	m.record(change{lineID: lineID, quantity: quantity})
	m.mu.Unlock()
	return nil
}

// RemoveLine deletes the line on the backend, then drops it from the lines
// and the selection in one update. Removing a line that is not loaded is a
// no-op. A line the backend no longer has is dropped as well.
func (m *Model) RemoveLine(ctx context.Context, lineID string) error {
	const op = "remove line"
	release := m.queue.acquire(lineID)
	defer release()

	m.mu.RLock()
	present := m.indexOf(lineID) >= 0
	m.mu.RUnlock()
	if !present {
		return nil
	}

	err := m.call(ctx, func(ctx context.Context) error {
		return m.repo.DeleteLine(ctx, lineID)
	})
	if err != nil && KindOf(err) != KindNotFound {
		err = wrap(op, lineID, err)
		m.logger.Warn("cart line removal failed", zap.String("line_id", lineID), zap.Error(err))
		return err
	}

	m.mu.Lock()
	if i := m.indexOf(lineID); i >= 0 {
		m.lines = append(m.lines[:i:i], m.lines[i+1:]...)
	}
	delete(m.selected, lineID)
	m.record(change{lineID: lineID, removed: true})
	m.mu.Unlock()
	return nil
}

// ToggleSelected flips the selection of a loaded line and reports whether it
// is now selected. Unknown ids are ignored.
func (m *Model) ToggleSelected(lineID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.indexOf(lineID) < 0 {
		return false
	}
	if m.selected[lineID] {
		delete(m.selected, lineID)
		return false
	}
	m.selected[lineID] = true
	return true
}

// ToggleSelectAll clears the selection when every line is selected and
// otherwise selects every line, judged against the lines loaded right now.
func (m *Model) ToggleSelectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allSelected() {
		m.selected = make(map[string]bool)
		return
	}
	m.selected = make(map[string]bool, len(m.lines))
	for _, l := range m.lines {
		m.selected[l.ID] = true
	}
}

// Total is the selected lines' discounted price times quantity.
func (m *Model) Total() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Total(m.lines, m.selected)
}

// TotalString renders Total with two decimals.
func (m *Model) TotalString() string {
	return FormatMoney(m.Total())
}

func (m *Model) Lines() []Line {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Line(nil), m.lines...)
}

// Selected returns the selected ids in line order.
func (m *Model) Selected() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedIDs()
}

func (m *Model) IsSelected(lineID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selected[lineID]
}

func (m *Model) AllSelected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allSelected()
}

func (m *Model) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Err is the error of the last failed Load, nil after a successful one.
func (m *Model) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Empty is true only for a cart that loaded successfully with no lines, so a
// UI can tell an empty cart from one that failed to load.
func (m *Model) Empty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status == StatusLoaded && len(m.lines) == 0
}

// Pending reports whether a mutation of lineID is queued or in flight.
func (m *Model) Pending(lineID string) bool {
	return m.queue.pending(lineID)
}

// Snapshot returns lines, selection and total from one consistent state.
func (m *Model) Snapshot() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return View{
		Lines:    append([]Line(nil), m.lines...),
		Selected: m.selectedIDs(),
		Total:    Total(m.lines, m.selected),
		Status:   m.status,
		Err:      m.err,
	}
}

func (m *Model) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return RequestFailed("backend call", err)
	}
	return err
}

// record notes a confirmed mutation. Callers hold m.mu.
func (m *Model) record(c change) {
	m.mutSeq++
	if m.loading > 0 {
		c.seq = m.mutSeq
		m.journal = append(m.journal, c)
	}
}

// replay applies to fetched lines every mutation confirmed after since.
// Callers hold m.mu.
func (m *Model) replay(lines []Line, since uint64) []Line {
	for _, c := range m.journal {
		if c.seq <= since {
			continue
		}
		for i := 0; i < len(lines); i++ {
			if lines[i].ID != c.lineID {
				continue
			}
			if c.removed {
				lines = append(lines[:i:i], lines[i+1:]...)
			} else {
				lines[i].Quantity = c.quantity
			}
			break
		}
	}
	return lines
}

// loadDone ends one in-flight Load. Callers hold m.mu.
func (m *Model) loadDone() {
	m.loading--
	if m.loading == 0 {
		m.journal = nil
	}
}

func (m *Model) indexOf(lineID string) int {
	for i, l := range m.lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func (m *Model) allSelected() bool {
	for _, l := range m.lines {
		if !m.selected[l.ID] {
			return false
		}
	}
	return true
}

func (m *Model) selectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for _, l := range m.lines {
		if m.selected[l.ID] {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
