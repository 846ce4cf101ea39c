package cart_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcatch/seafood-api/cart"
)

const user = "user-1"

// loadedModel returns a model over lines a (25.99 x2) and b (45.99 x1).
func loadedModel(t *testing.T, opts ...cart.Option) (*cart.Model, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	repo.add(user, "a", "25.99", 2)
	repo.add(user, "b", "45.99", 1)
	m := cart.NewModel(repo, cart.StaticUser(user), opts...)
	require.NoError(t, m.Load(context.Background()))
	return m, repo
}

func quantityOf(m *cart.Model, lineID string) int {
	for _, l := range m.Lines() {
		if l.ID == lineID {
			return l.Quantity
		}
	}
	return 0
}

func TestLoadSelectsEveryLine(t *testing.T) {
	m, _ := loadedModel(t)

	assert.Equal(t, cart.StatusLoaded, m.Status())
	assert.Len(t, m.Lines(), 2)
	assert.Equal(t, []string{"a", "b"}, m.Selected())
	assert.True(t, m.AllSelected())
	assert.Equal(t, "97.97", m.TotalString())
	assert.False(t, m.Empty())
}

func TestToggleSelectedExcludesLineFromTotal(t *testing.T) {
	m, _ := loadedModel(t)

	assert.False(t, m.ToggleSelected("a"))
	assert.Equal(t, "45.99", m.TotalString())

	assert.True(t, m.ToggleSelected("a"))
	assert.Equal(t, "97.97", m.TotalString())

	assert.False(t, m.ToggleSelected("missing"))
	assert.NotContains(t, m.Selected(), "missing")
}

func TestToggleSelectAll(t *testing.T) {
	t.Run("twice restores full selection", func(t *testing.T) {
		m, _ := loadedModel(t)

		m.ToggleSelectAll()
		assert.Empty(t, m.Selected())
		assert.Equal(t, "0.00", m.TotalString())

		m.ToggleSelectAll()
		assert.Equal(t, []string{"a", "b"}, m.Selected())
	})

	t.Run("partial selection becomes full", func(t *testing.T) {
		m, _ := loadedModel(t)
		m.ToggleSelected("a")

		m.ToggleSelectAll()
		assert.True(t, m.AllSelected())

		m.ToggleSelectAll()
		assert.Empty(t, m.Selected())
	})

	t.Run("judged against current lines", func(t *testing.T) {
		m, _ := loadedModel(t)
		m.ToggleSelected("a")
		require.NoError(t, m.RemoveLine(context.Background(), "a"))

		// only b is left and it is selected
		m.ToggleSelectAll()
		assert.Empty(t, m.Selected())
	})
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("persists then applies", func(t *testing.T) {
		m, repo := loadedModel(t)
		require.NoError(t, m.SetQuantity(ctx, "a", 4))
		assert.Equal(t, 4, quantityOf(m, "a"))
		assert.Equal(t, 4, repo.stored(user, "a"))
		assert.Equal(t, "149.95", m.TotalString())
	})

	t.Run("clamps to one", func(t *testing.T) {
		m, repo := loadedModel(t)
		require.NoError(t, m.SetQuantity(ctx, "a", -5))
		assert.Equal(t, 1, quantityOf(m, "a"))
		assert.Equal(t, 1, repo.stored(user, "a"))
	})

	t.Run("failure leaves quantity unchanged", func(t *testing.T) {
		m, repo := loadedModel(t)
		repo.fail(errBackend)

		err := m.SetQuantity(ctx, "a", 9)
		require.Error(t, err)
		assert.ErrorIs(t, err, cart.ErrRequestFailed)
		assert.ErrorIs(t, err, errBackend)
		assert.Equal(t, 2, quantityOf(m, "a"))
		assert.Equal(t, 2, repo.stored(user, "a"))
		assert.Equal(t, "97.97", m.TotalString())
	})

	t.Run("unknown line is not found without a backend call", func(t *testing.T) {
		m, repo := loadedModel(t)
		before := len(repo.callLog())

		err := m.SetQuantity(ctx, "nope", 3)
		assert.ErrorIs(t, err, cart.ErrNotFound)
		assert.Len(t, repo.callLog(), before)
	})

	t.Run("backend not found keeps the line", func(t *testing.T) {
		m, repo := loadedModel(t)
		repo.fail(cart.NotFound("update quantity", "a"))

		err := m.SetQuantity(ctx, "a", 3)
		assert.ErrorIs(t, err, cart.ErrNotFound)
		assert.Equal(t, cart.KindNotFound, cart.KindOf(err))
		assert.Equal(t, 2, quantityOf(m, "a"))
	})
}

func TestQuantityNeverBelowOne(t *testing.T) {
	m, repo := loadedModel(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		delta := rng.Intn(21) - 10
		if i%2 == 0 {
			require.NoError(t, m.ChangeQuantity(ctx, "a", delta))
		} else {
			require.NoError(t, m.SetQuantity(ctx, "a", delta))
		}
		q := quantityOf(m, "a")
		require.GreaterOrEqual(t, q, 1, "step %d delta %d", i, delta)
		require.Equal(t, q, repo.stored(user, "a"))
	}
}

func TestRemoveLine(t *testing.T) {
	ctx := context.Background()

	t.Run("drops line and selection together", func(t *testing.T) {
		m, repo := loadedModel(t)
		require.True(t, m.IsSelected("a"))

		require.NoError(t, m.RemoveLine(ctx, "a"))

		view := m.Snapshot()
		assert.Len(t, view.Lines, 1)
		assert.Equal(t, []string{"b"}, view.Selected)
		assert.Equal(t, "45.99", view.Total.StringFixed(2))
		assert.False(t, m.IsSelected("a"))
		assert.Equal(t, 0, repo.stored(user, "a"))
	})

	t.Run("absent id is a no-op", func(t *testing.T) {
		m, repo := loadedModel(t)
		require.NoError(t, m.RemoveLine(ctx, "a"))
		calls := len(repo.callLog())

		assert.NoError(t, m.RemoveLine(ctx, "a"))
		assert.NoError(t, m.RemoveLine(ctx, "never-there"))
		assert.Len(t, repo.callLog(), calls)
		assert.Equal(t, "45.99", m.TotalString())
	})

	t.Run("failure leaves both collections", func(t *testing.T) {
		m, repo := loadedModel(t)
		repo.fail(errBackend)

		err := m.RemoveLine(ctx, "a")
		assert.ErrorIs(t, err, cart.ErrRequestFailed)
		assert.Len(t, m.Lines(), 2)
		assert.True(t, m.IsSelected("a"))
	})

	t.Run("line already gone on backend is dropped", func(t *testing.T) {
		m, repo := loadedModel(t)
		repo.fail(cart.NotFound("delete line", "a"))

		assert.NoError(t, m.RemoveLine(ctx, "a"))
		assert.Len(t, m.Lines(), 1)
		assert.False(t, m.IsSelected("a"))
	})
}

func TestLoadInFlightKeepsConfirmedMutations(t *testing.T) {
	m, repo := loadedModel(t)
	repo.add(user, "c", "10.00", 1)
	repo.holdLists()
	ctx := context.Background()

	loaded := make(chan error, 1)
	go func() { loaded <- m.Load(ctx) }()
	<-repo.listed

	// the reload already holds a, b and c at their old quantities
	require.NoError(t, m.RemoveLine(ctx, "a"))
	require.NoError(t, m.SetQuantity(ctx, "b", 4))

	close(repo.listRelease)
	require.NoError(t, <-loaded)

	assert.Equal(t, []string{"b", "c"}, m.Selected())
	assert.Equal(t, 4, quantityOf(m, "b"))
	// 4 x 45.99 + 10.00
	assert.Equal(t, "193.96", m.TotalString())
	assert.Equal(t, 0, repo.stored(user, "a"))
}

func TestLoadAfterMutationSeesBackend(t *testing.T) {
	m, repo := loadedModel(t)
	ctx := context.Background()

	require.NoError(t, m.RemoveLine(ctx, "a"))
	// a line re-added on another device comes back on the next Load
	repo.add(user, "a", "25.99", 1)
	require.NoError(t, m.Load(ctx))

	assert.Equal(t, []string{"b", "a"}, m.Selected())
	assert.Equal(t, 1, quantityOf(m, "a"))
}

func TestLoadFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("not signed in", func(t *testing.T) {
		m := cart.NewModel(newFakeRepo(), cart.StaticUser(""))
		err := m.Load(ctx)
		assert.ErrorIs(t, err, cart.ErrNotAuthenticated)
		assert.Equal(t, cart.StatusFailed, m.Status())
		assert.Equal(t, err, m.Err())
		assert.False(t, m.Empty())
	})

	t.Run("request failure keeps previous state", func(t *testing.T) {
		m, repo := loadedModel(t)
		m.ToggleSelected("b")
		repo.fail(errBackend)

		err := m.Load(ctx)
		assert.ErrorIs(t, err, cart.ErrRequestFailed)
		assert.Equal(t, cart.StatusFailed, m.Status())
		assert.Len(t, m.Lines(), 2)
		assert.Equal(t, []string{"a"}, m.Selected())
	})

	t.Run("reload clears the error and reselects", func(t *testing.T) {
		m, repo := loadedModel(t)
		m.ToggleSelected("b")
		repo.fail(errBackend)
		require.Error(t, m.Load(ctx))

		require.NoError(t, m.Load(ctx))
		assert.NoError(t, m.Err())
		assert.Equal(t, []string{"a", "b"}, m.Selected())
	})
}

func TestEmptyCartIsDistinctFromFailedLoad(t *testing.T) {
	m := cart.NewModel(newFakeRepo(), cart.StaticUser(user))
	assert.Equal(t, cart.StatusIdle, m.Status())
	assert.False(t, m.Empty())

	require.NoError(t, m.Load(context.Background()))
	assert.True(t, m.Empty())
	assert.Equal(t, "0.00", m.TotalString())
}

func TestTimeoutIsRequestFailed(t *testing.T) {
	m, repo := loadedModel(t, cart.WithTimeout(20*time.Millisecond))
	repo.holdUpdates("a")
	defer close(repo.release)

	err := m.SetQuantity(context.Background(), "a", 5)
	assert.ErrorIs(t, err, cart.ErrRequestFailed)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 2, quantityOf(m, "a"))
}

func TestSameLineOperationsRunInCallOrder(t *testing.T) {
	m, repo := loadedModel(t)
	repo.holdUpdates("a")
	ctx := context.Background()

	updated := make(chan error, 1)
	go func() { updated <- m.SetQuantity(ctx, "a", 5) }()
	<-repo.entered
	assert.True(t, m.Pending("a"))

	removed := make(chan error, 1)
	go func() { removed <- m.RemoveLine(ctx, "a") }()

	// the removal waits behind the in-flight update
	time.Sleep(30 * time.Millisecond)
	assert.NotContains(t, repo.callLog(), "delete a")
	assert.Len(t, m.Lines(), 2)

	close(repo.release)
	require.NoError(t, <-updated)
	require.NoError(t, <-removed)

	assert.Equal(t, []string{"update a", "delete a"}, repo.callLog()[1:])
	assert.Len(t, m.Lines(), 1)
	assert.False(t, m.Pending("a"))
}

func TestDifferentLinesDoNotWait(t *testing.T) {
	m, repo := loadedModel(t)
	repo.holdUpdates("a")
	ctx := context.Background()

	updated := make(chan error, 1)
	go func() { updated <- m.SetQuantity(ctx, "a", 5) }()
	<-repo.entered

	require.NoError(t, m.SetQuantity(ctx, "b", 3))
	assert.Equal(t, 3, quantityOf(m, "b"))
	assert.Equal(t, 2, quantityOf(m, "a"))

	close(repo.release)
	require.NoError(t, <-updated)
	assert.Equal(t, 5, quantityOf(m, "a"))
}
