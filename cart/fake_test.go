package cart_test

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/freshcatch/seafood-api/cart"
)

var errBackend = errors.New("backend unavailable")

// fakeRepo is an in-memory cart.Repository. Failures are injected per call.
type fakeRepo struct {
	mu       sync.Mutex
	lines    map[string][]cart.Line
	owner    map[string]string
	calls    []string
	failNext error

	// UpdateQuantity on blockLine signals entered and waits for release.
	blockLine string
	entered   chan string
	release   chan struct{}

	// with holdLists, ListLines takes its snapshot, signals listed and
	// waits for listRelease before answering
	holdList    bool
	listed      chan struct{}
	listRelease chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{lines: map[string][]cart.Line{}, owner: map[string]string{}}
}

func (f *fakeRepo) add(userID, lineID string, price string, quantity int) {
	f.addDiscounted(userID, lineID, price, price, quantity)
}

func (f *fakeRepo) addDiscounted(userID, lineID, price, discounted string, quantity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines[userID] = append(f.lines[userID], cart.Line{
		ID:        lineID,
		ProductID: "p-" + lineID,
		Quantity:  quantity,
		Product: cart.Product{
			ID:              "p-" + lineID,
			Name:            "Product " + lineID,
			Price:           decimal.RequireFromString(price),
			DiscountedPrice: decimal.RequireFromString(discounted),
			Unit:            "lb",
		},
	})
	f.owner[lineID] = userID
}

func (f *fakeRepo) holdUpdates(lineID string) {
	f.blockLine = lineID
	f.entered = make(chan string, 16)
	f.release = make(chan struct{})
}

func (f *fakeRepo) holdLists() {
	f.mu.Lock()
	f.holdList = true
	f.listed = make(chan struct{}, 1)
	f.listRelease = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeRepo) fail(err error) {
	f.mu.Lock()
	f.failNext = err
	f.mu.Unlock()
}

func (f *fakeRepo) takeFailure(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeRepo) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRepo) ListLines(ctx context.Context, userID string) ([]cart.Line, error) {
	if err := f.takeFailure("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	lines := append([]cart.Line(nil), f.lines[userID]...)
	hold, listed, release := f.holdList, f.listed, f.listRelease
	f.mu.Unlock()

	if hold {
		listed <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return lines, nil
}

func (f *fakeRepo) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if f.blockLine != "" && f.blockLine == lineID {
		f.entered <- lineID
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := f.takeFailure("update " + lineID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.owner[lineID]
	if !ok {
		return cart.NotFound("update quantity", lineID)
	}
	for i := range f.lines[user] {
		if f.lines[user][i].ID == lineID {
			f.lines[user][i].Quantity = quantity
		}
	}
	return nil
}

func (f *fakeRepo) DeleteLine(ctx context.Context, lineID string) error {
	if err := f.takeFailure("delete " + lineID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.owner[lineID]
	if !ok {
		return cart.NotFound("delete line", lineID)
	}
	kept := f.lines[user][:0]
	for _, l := range f.lines[user] {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	f.lines[user] = kept
	delete(f.owner, lineID)
	return nil
}

// stored returns the backend quantity of a line, or 0 when absent.
func (f *fakeRepo) stored(userID, lineID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.lines[userID] {
		if l.ID == lineID {
			return l.Quantity
		}
	}
	return 0
}
