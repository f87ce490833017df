package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leadwise/dispatch/types"
)

func TestMemory_OperatorCRUD(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	t.Run("create assigns sequential ids", func(t *testing.T) {
		a, err := m.CreateOperator(ctx, "alice", true, 5)
		require.NoError(t, err)
		b, err := m.CreateOperator(ctx, "bob", false, 3)
		require.NoError(t, err)

		require.Equal(t, int64(1), a.ID)
		require.Equal(t, int64(2), b.ID)
	})

	t.Run("create rejects non-positive max load", func(t *testing.T) {
		_, err := m.CreateOperator(ctx, "carol", true, 0)

		require.ErrorIs(t, err, types.ErrInvalidMaxLoad)
	})

	t.Run("get and list", func(t *testing.T) {
		op, err := m.GetOperator(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, "alice", op.Name)
		require.True(t, op.Active)
		require.Equal(t, 5, op.MaxLoad)

		ops := m.ListOperators(ctx)
		require.Len(t, ops, 2)
		require.Equal(t, int64(1), ops[0].ID)
		require.Equal(t, int64(2), ops[1].ID)
	})

	t.Run("update patches only provided fields", func(t *testing.T) {
		active := true
		maxLoad := 7
		op, err := m.UpdateOperator(ctx, 2, OperatorPatch{Active: &active, MaxLoad: &maxLoad})

		require.NoError(t, err)
		require.Equal(t, "bob", op.Name)
		require.True(t, op.Active)
		require.Equal(t, 7, op.MaxLoad)
	})

	t.Run("update rejects non-positive max load", func(t *testing.T) {
		bad := -1
		_, err := m.UpdateOperator(ctx, 2, OperatorPatch{MaxLoad: &bad})

		require.ErrorIs(t, err, types.ErrInvalidMaxLoad)
	})

	t.Run("unknown ids report not found", func(t *testing.T) {
		_, err := m.GetOperator(ctx, 99)
		require.ErrorIs(t, err, types.ErrOperatorNotFound)

		_, err = m.UpdateOperator(ctx, 99, OperatorPatch{})
		require.ErrorIs(t, err, types.ErrOperatorNotFound)

		require.ErrorIs(t, m.DeleteOperator(ctx, 99), types.ErrOperatorNotFound)
	})

	t.Run("delete removes the operator", func(t *testing.T) {
		require.NoError(t, m.DeleteOperator(ctx, 2))

		_, err := m.GetOperator(ctx, 2)
		require.ErrorIs(t, err, types.ErrOperatorNotFound)
	})
}

func TestMemory_OperatorInfo(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	op, err := m.CreateOperator(ctx, "alice", true, 4)
	require.NoError(t, err)

	info, err := m.OperatorInfo(ctx, op.ID)
	require.NoError(t, err)
	require.True(t, info.Active)
	require.Equal(t, 4, info.MaxLoad)

	_, err = m.OperatorInfo(ctx, 99)
	require.ErrorIs(t, err, types.ErrOperatorNotFound)
}

func TestMemory_ChannelCRUD(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()

	ch, err := m.CreateChannel(ctx, "telegram-bot", "main bot")
	require.NoError(t, err)
	require.Equal(t, int64(1), ch.ID)
	require.True(t, m.ChannelExists(ctx, ch.ID))
	require.False(t, m.ChannelExists(ctx, 42))

	got, err := m.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	require.Equal(t, "telegram-bot", got.Name)

	require.Len(t, m.ListChannels(ctx), 1)

	require.NoError(t, m.DeleteChannel(ctx, ch.ID))
	require.False(t, m.ChannelExists(ctx, ch.ID))
	require.ErrorIs(t, m.DeleteChannel(ctx, ch.ID), types.ErrChannelNotFound)
}

func TestMemory_ResolveLead(t *testing.T) {
	t.Run("creates on first sight, reuses afterwards", func(t *testing.T) {
		m := NewMemory()
		ctx := t.Context()

		first, err := m.ResolveLead(ctx, "tg-1001", types.LeadProfile{Name: "Ann"})
		require.NoError(t, err)
		require.Equal(t, "tg-1001", first.ExternalID)
		require.Equal(t, "Ann", first.Name)

		// Profile on subsequent resolutions is ignored; the lead exists.
		second, err := m.ResolveLead(ctx, "tg-1001", types.LeadProfile{Name: "Other"})
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, "Ann", second.Name)
	})

	t.Run("rejects empty external id", func(t *testing.T) {
		m := NewMemory()

		_, err := m.ResolveLead(t.Context(), "", types.LeadProfile{})

		require.ErrorIs(t, err, types.ErrEmptyExternalID)
	})

	t.Run("idempotent under concurrency", func(t *testing.T) {
		m := NewMemory()
		ctx := t.Context()

		const resolvers = 50
		ids := make([]string, resolvers)
		errs := make([]error, resolvers)

		var wg sync.WaitGroup
		for i := range resolvers {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				lead, err := m.ResolveLead(ctx, "shared-key", types.LeadProfile{})
				if err != nil {
					errs[n] = err

					return
				}
				ids[n] = lead.ID
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		for _, id := range ids[1:] {
			require.Equal(t, ids[0], id, "all resolutions must yield the same lead")
		}
		require.Len(t, m.ListLeads(ctx), 1)
	})
}

func TestMemory_Requests(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()
	operatorID := int64(3)

	t.Run("create and get", func(t *testing.T) {
		req, err := m.CreateRequest(ctx, "lead-1", 1, &operatorID, "hello")
		require.NoError(t, err)
		require.Equal(t, types.RequestOpen, req.Status)
		require.NotNil(t, req.OperatorID)
		require.Equal(t, operatorID, *req.OperatorID)
		require.Nil(t, req.ClosedAt)

		got, err := m.GetRequest(ctx, req.ID)
		require.NoError(t, err)
		require.Equal(t, req.ID, got.ID)
	})

	t.Run("unassigned request has nil operator", func(t *testing.T) {
		req, err := m.CreateRequest(ctx, "lead-1", 1, nil, "hi")
		require.NoError(t, err)
		require.Nil(t, req.OperatorID)
		require.False(t, req.Assigned())
	})

	t.Run("close transitions exactly once", func(t *testing.T) {
		req, err := m.CreateRequest(ctx, "lead-1", 1, &operatorID, "msg")
		require.NoError(t, err)

		closed, err := m.CloseRequest(ctx, req.ID)
		require.NoError(t, err)
		require.Equal(t, types.RequestClosed, closed.Status)
		require.NotNil(t, closed.ClosedAt)

		_, err = m.CloseRequest(ctx, req.ID)
		require.ErrorIs(t, err, types.ErrRequestAlreadyClosed)
	})

	t.Run("concurrent close has exactly one winner", func(t *testing.T) {
		req, err := m.CreateRequest(ctx, "lead-1", 1, &operatorID, "race")
		require.NoError(t, err)

		const closers = 20
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for range closers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := m.CloseRequest(ctx, req.ID); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		require.Equal(t, 1, wins)
	})

	t.Run("unknown request reports not found", func(t *testing.T) {
		_, err := m.GetRequest(ctx, "nope")
		require.ErrorIs(t, err, types.ErrRequestNotFound)

		_, err = m.CloseRequest(ctx, "nope")
		require.ErrorIs(t, err, types.ErrRequestNotFound)
	})
}

func TestMemory_ListRequestsFilter(t *testing.T) {
	m := NewMemory()
	ctx := t.Context()
	op1, op2 := int64(1), int64(2)

	_, err := m.CreateRequest(ctx, "lead-1", 1, &op1, "")
	require.NoError(t, err)
	_, err = m.CreateRequest(ctx, "lead-2", 1, &op2, "")
	require.NoError(t, err)
	_, err = m.CreateRequest(ctx, "lead-3", 2, &op1, "")
	require.NoError(t, err)
	_, err = m.CreateRequest(ctx, "lead-4", 2, nil, "")
	require.NoError(t, err)

	require.Len(t, m.ListRequests(ctx, RequestFilter{}), 4)
	require.Len(t, m.ListRequests(ctx, RequestFilter{ChannelID: 1}), 2)
	require.Len(t, m.ListRequests(ctx, RequestFilter{OperatorID: op1}), 2)
	require.Len(t, m.ListRequests(ctx, RequestFilter{ChannelID: 2, OperatorID: op1}), 1)
	require.Empty(t, m.ListRequests(ctx, RequestFilter{ChannelID: 3}))
}
