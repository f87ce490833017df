package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leadwise/dispatch"
	"github.com/leadwise/dispatch/selector"
	"github.com/leadwise/dispatch/store"
	dispatchtest "github.com/leadwise/dispatch/testing"
	"github.com/leadwise/dispatch/types"
)

func newTestEngine(t *testing.T, opts ...dispatch.Option) (*dispatch.Engine, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	cfg := dispatch.DefaultConfig()
	opts = append([]dispatch.Option{dispatch.WithLogger(dispatchtest.NewTestLogger(t))}, opts...)

	eng, err := dispatch.NewEngine(&cfg, dispatch.Dependencies{
		Leads:     mem,
		Operators: mem,
		Requests:  mem,
	}, opts...)
	require.NoError(t, err)

	return eng, mem
}

func addOperator(t *testing.T, mem *store.Memory, name string, maxLoad int) int64 {
	t.Helper()

	op, err := mem.CreateOperator(t.Context(), name, true, maxLoad)
	require.NoError(t, err)

	return op.ID
}

func addChannel(t *testing.T, mem *store.Memory, name string) int64 {
	t.Helper()

	ch, err := mem.CreateChannel(t.Context(), name, "")
	require.NoError(t, err)

	return ch.ID
}

func register(t *testing.T, eng *dispatch.Engine, channelID int64, externalID string) *types.Request {
	t.Helper()

	req, err := eng.RegisterRequest(t.Context(), types.Registration{
		ChannelID:      channelID,
		LeadExternalID: externalID,
	})
	require.NoError(t, err)

	return req
}

func TestNewEngine(t *testing.T) {
	t.Run("rejects missing collaborators", func(t *testing.T) {
		cfg := dispatch.DefaultConfig()

		_, err := dispatch.NewEngine(&cfg, dispatch.Dependencies{})

		require.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		mem := store.NewMemory()
		cfg := dispatch.Config{SelectorStrategy: "nope"}

		_, err := dispatch.NewEngine(&cfg, dispatch.Dependencies{Leads: mem, Operators: mem, Requests: mem})

		require.ErrorIs(t, err, types.ErrInvalidConfig)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		mem := store.NewMemory()

		eng, err := dispatch.NewEngine(nil, dispatch.Dependencies{Leads: mem, Operators: mem, Requests: mem})

		require.NoError(t, err)
		require.NotNil(t, eng)
	})
}

func TestRegisterRequest_Validation(t *testing.T) {
	eng, mem := newTestEngine(t)
	channelID := addChannel(t, mem, "site")

	t.Run("empty external id", func(t *testing.T) {
		_, err := eng.RegisterRequest(t.Context(), types.Registration{ChannelID: channelID})

		require.ErrorIs(t, err, types.ErrEmptyExternalID)
	})

	t.Run("unknown channel", func(t *testing.T) {
		_, err := eng.RegisterRequest(t.Context(), types.Registration{ChannelID: 999, LeadExternalID: "x"})

		require.ErrorIs(t, err, types.ErrChannelNotFound)
	})
}

func TestRegisterRequest_Assignment(t *testing.T) {
	t.Run("assigns the only eligible operator", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")
		opID := addOperator(t, mem, "alice", 2)
		require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 1}}))

		req := register(t, eng, channelID, "lead-1")

		require.True(t, req.Assigned())
		require.Equal(t, opID, *req.OperatorID)
		require.Equal(t, types.RequestOpen, req.Status)
		require.Equal(t, 1, eng.OperatorLoad(opID))
	})

	t.Run("unassigned when no weights configured", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")
		addOperator(t, mem, "alice", 2)

		req := register(t, eng, channelID, "lead-1")

		require.False(t, req.Assigned())
		require.Equal(t, types.RequestOpen, req.Status)
	})

	t.Run("skips inactive operators", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")
		opID := addOperator(t, mem, "alice", 2)
		require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 1}}))

		inactive := false
		_, err := mem.UpdateOperator(t.Context(), opID, store.OperatorPatch{Active: &inactive})
		require.NoError(t, err)

		req := register(t, eng, channelID, "lead-1")

		require.False(t, req.Assigned())
	})

	t.Run("resolves the same lead for repeated external ids", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")

		a := register(t, eng, channelID, "tg-1001")
		b := register(t, eng, channelID, "tg-1001")

		require.Equal(t, a.LeadID, b.LeadID)
		require.Len(t, mem.ListLeads(t.Context()), 1)
	})
}

func TestRegisterRequest_CapacityInvariant(t *testing.T) {
	eng, mem := newTestEngine(t)
	channelID := addChannel(t, mem, "site")
	op1 := addOperator(t, mem, "alice", 3)
	op2 := addOperator(t, mem, "bob", 3)
	require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{
		{OperatorID: op1, Weight: 1},
		{OperatorID: op2, Weight: 1},
	}))

	const registrations = 50
	assigned := make([]bool, registrations)
	errs := make([]error, registrations)

	var wg sync.WaitGroup
	for i := range registrations {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			req, err := eng.RegisterRequest(context.Background(), types.Registration{
				ChannelID:      channelID,
				LeadExternalID: fmt.Sprintf("lead-%d", n),
			})
			if err != nil {
				errs[n] = err

				return
			}
			assigned[n] = req.Assigned()
		}(i)
	}
	wg.Wait()

	var total int
	for i, ok := range assigned {
		require.NoError(t, errs[i])
		if ok {
			total++
		}
	}

	// Total capacity is 6; every slot fills and the rest stay unassigned.
	require.Equal(t, 6, total)
	require.Equal(t, 3, eng.OperatorLoad(op1))
	require.Equal(t, 3, eng.OperatorLoad(op2))
}

func TestRegisterRequest_ExhaustionFallback(t *testing.T) {
	eng, mem := newTestEngine(t)
	channelID := addChannel(t, mem, "site")
	heavy := addOperator(t, mem, "heavy", 2)
	light := addOperator(t, mem, "light", 10)
	require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{
		{OperatorID: heavy, Weight: 100},
		{OperatorID: light, Weight: 1},
	}))

	for i := range 12 {
		req := register(t, eng, channelID, fmt.Sprintf("lead-%d", i))
		require.True(t, req.Assigned(), "capacity remains, request %d must be assigned", i)
	}

	require.Equal(t, 2, eng.OperatorLoad(heavy))
	require.Equal(t, 10, eng.OperatorLoad(light))

	overflow := register(t, eng, channelID, "lead-overflow")
	require.False(t, overflow.Assigned())
}

func TestRegisterRequest_ChannelIsolation(t *testing.T) {
	eng, mem := newTestEngine(t)
	ch1 := addChannel(t, mem, "site")
	ch2 := addChannel(t, mem, "telegram")
	op1 := addOperator(t, mem, "alice", 10)
	op2 := addOperator(t, mem, "bob", 10)
	require.NoError(t, eng.SetWeights(t.Context(), ch1, []types.WeightEntry{{OperatorID: op1, Weight: 1}}))
	require.NoError(t, eng.SetWeights(t.Context(), ch2, []types.WeightEntry{{OperatorID: op2, Weight: 1}}))

	for i := range 5 {
		req := register(t, eng, ch2, fmt.Sprintf("lead-%d", i))
		require.Equal(t, op2, *req.OperatorID, "channel weights must not leak across channels")
	}

	require.Equal(t, 0, eng.OperatorLoad(op1))
	require.Equal(t, 5, eng.OperatorLoad(op2))
}

func TestRegisterRequest_WeightedDistribution(t *testing.T) {
	eng, mem := newTestEngine(t,
		dispatch.WithSelector(selector.NewWeightedRandom(selector.WithSeed(7))),
	)
	channelID := addChannel(t, mem, "site")
	rare := addOperator(t, mem, "rare", 1<<30)
	common := addOperator(t, mem, "common", 1<<30)
	require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{
		{OperatorID: rare, Weight: 1},
		{OperatorID: common, Weight: 4},
	}))

	const draws = 10000
	for i := range draws {
		register(t, eng, channelID, fmt.Sprintf("lead-%d", i))
	}

	totals, err := eng.DistributionStats(t.Context(), channelID)
	require.NoError(t, err)

	rareShare := float64(totals[rare]) / draws
	require.InDelta(t, 0.20, rareShare, 0.03)
	require.Equal(t, int64(draws), totals[rare]+totals[common])
}

func TestCloseRequest(t *testing.T) {
	t.Run("frees the operator slot", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")
		opID := addOperator(t, mem, "alice", 1)
		require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 1}}))

		first := register(t, eng, channelID, "lead-1")
		require.True(t, first.Assigned())

		blocked := register(t, eng, channelID, "lead-2")
		require.False(t, blocked.Assigned(), "operator at ceiling must not take another request")

		closed, err := eng.CloseRequest(t.Context(), first.ID)
		require.NoError(t, err)
		require.Equal(t, types.RequestClosed, closed.Status)
		require.Equal(t, 0, eng.OperatorLoad(opID))

		next := register(t, eng, channelID, "lead-3")
		require.True(t, next.Assigned(), "closing must free the slot")
	})

	t.Run("double close conflicts without double release", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")
		opID := addOperator(t, mem, "alice", 5)
		require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 1}}))

		register(t, eng, channelID, "lead-keep")
		victim := register(t, eng, channelID, "lead-close")
		require.Equal(t, 2, eng.OperatorLoad(opID))

		_, err := eng.CloseRequest(t.Context(), victim.ID)
		require.NoError(t, err)
		require.Equal(t, 1, eng.OperatorLoad(opID))

		_, err = eng.CloseRequest(t.Context(), victim.ID)
		require.ErrorIs(t, err, types.ErrRequestAlreadyClosed)
		require.Equal(t, 1, eng.OperatorLoad(opID), "conflicting close must not decrement load")
	})

	t.Run("concurrent close releases exactly once", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")
		opID := addOperator(t, mem, "alice", 5)
		require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 1}}))

		req := register(t, eng, channelID, "lead-1")

		const closers = 10
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range closers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := eng.CloseRequest(context.Background(), req.ID); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, wins)
		require.Equal(t, 0, eng.OperatorLoad(opID))
	})

	t.Run("closing an unassigned request touches no load", func(t *testing.T) {
		eng, mem := newTestEngine(t)
		channelID := addChannel(t, mem, "site")

		req := register(t, eng, channelID, "lead-1")
		require.False(t, req.Assigned())

		closed, err := eng.CloseRequest(t.Context(), req.ID)
		require.NoError(t, err)
		require.Equal(t, types.RequestClosed, closed.Status)
	})

	t.Run("unknown request", func(t *testing.T) {
		eng, _ := newTestEngine(t)

		_, err := eng.CloseRequest(t.Context(), "missing")

		require.ErrorIs(t, err, types.ErrRequestNotFound)
	})
}

func TestSetWeights(t *testing.T) {
	eng, mem := newTestEngine(t)
	channelID := addChannel(t, mem, "site")
	opID := addOperator(t, mem, "alice", 5)

	t.Run("unknown channel", func(t *testing.T) {
		err := eng.SetWeights(t.Context(), 999, []types.WeightEntry{{OperatorID: opID, Weight: 1}})

		require.ErrorIs(t, err, types.ErrChannelNotFound)
	})

	t.Run("unknown operator", func(t *testing.T) {
		err := eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: 999, Weight: 1}})

		require.ErrorIs(t, err, types.ErrOperatorNotFound)
	})

	t.Run("invalid weight", func(t *testing.T) {
		err := eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 0}})

		require.ErrorIs(t, err, types.ErrInvalidWeight)
	})

	t.Run("duplicate operator", func(t *testing.T) {
		err := eng.SetWeights(t.Context(), channelID, []types.WeightEntry{
			{OperatorID: opID, Weight: 1},
			{OperatorID: opID, Weight: 2},
		})

		require.ErrorIs(t, err, types.ErrDuplicateWeightEntry)
	})

	t.Run("replace and read back sorted", func(t *testing.T) {
		opB := addOperator(t, mem, "bob", 5)
		require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{
			{OperatorID: opB, Weight: 3},
			{OperatorID: opID, Weight: 1},
		}))

		entries, err := eng.ChannelWeights(t.Context(), channelID)
		require.NoError(t, err)
		require.Equal(t, []types.WeightEntry{
			{OperatorID: opID, Weight: 1},
			{OperatorID: opB, Weight: 3},
		}, entries)
	})

	t.Run("empty batch clears the channel", func(t *testing.T) {
		require.NoError(t, eng.SetWeights(t.Context(), channelID, nil))

		entries, err := eng.ChannelWeights(t.Context(), channelID)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("read back of unknown channel", func(t *testing.T) {
		_, err := eng.ChannelWeights(t.Context(), 999)

		require.ErrorIs(t, err, types.ErrChannelNotFound)
	})
}

func TestDistributionStats_UnknownChannel(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.DistributionStats(t.Context(), 999)

	require.ErrorIs(t, err, types.ErrChannelNotFound)
}

// failingRequests wraps a RequestStore and fails every CreateRequest.
type failingRequests struct {
	types.RequestStore
}

var errStoreDown = errors.New("store down")

func (f *failingRequests) CreateRequest(context.Context, string, int64, *int64, string) (*types.Request, error) {
	return nil, errStoreDown
}

func TestRegisterRequest_ReservationRollback(t *testing.T) {
	mem := store.NewMemory()
	cfg := dispatch.DefaultConfig()
	eng, err := dispatch.NewEngine(&cfg, dispatch.Dependencies{
		Leads:     mem,
		Operators: mem,
		Requests:  &failingRequests{RequestStore: mem},
	}, dispatch.WithLogger(dispatchtest.NewTestLogger(t)))
	require.NoError(t, err)

	channelID := addChannel(t, mem, "site")
	opID := addOperator(t, mem, "alice", 1)
	require.NoError(t, eng.SetWeights(t.Context(), channelID, []types.WeightEntry{{OperatorID: opID, Weight: 1}}))

	_, err = eng.RegisterRequest(t.Context(), types.Registration{ChannelID: channelID, LeadExternalID: "lead-1"})

	require.ErrorIs(t, err, errStoreDown)
	require.Equal(t, 0, eng.OperatorLoad(opID), "failed persist must return the reserved slot")
}
