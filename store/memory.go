package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"

	"github.com/leadwise/dispatch/types"
)

// leadStripes is the number of lock stripes guarding lead resolution.
// Resolution must be idempotent by external id even under concurrent
// registrations; striping by a hash of the external id keeps unrelated
// leads from contending on one lock.
const leadStripes = 64

// Memory is an in-memory store backing the engine and the admin API.
//
// Operators and channels are stored as immutable snapshots that are swapped
// wholesale on update, so concurrent readers never see a half-written
// record. Requests carry a per-record mutex because the open→closed
// transition must be a compare-and-set.
type Memory struct {
	operators *xsync.Map[int64, *types.Operator]
	channels  *xsync.Map[int64, *types.Channel]
	leads     *xsync.Map[string, *types.Lead] // keyed by external id
	requests  *xsync.Map[string, *requestRecord]

	nextOperatorID atomic.Int64
	nextChannelID  atomic.Int64

	// opMu serializes read-modify-write operator updates; plain reads go
	// straight to the map.
	opMu   sync.Mutex
	leadMu [leadStripes]sync.Mutex
}

type requestRecord struct {
	mu  sync.Mutex
	req types.Request
}

// Compile-time assertions for the collaborator interfaces.
var (
	_ types.LeadResolver      = (*Memory)(nil)
	_ types.OperatorDirectory = (*Memory)(nil)
	_ types.RequestStore      = (*Memory)(nil)
)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		operators: xsync.NewMap[int64, *types.Operator](),
		channels:  xsync.NewMap[int64, *types.Channel](),
		leads:     xsync.NewMap[string, *types.Lead](),
		requests:  xsync.NewMap[string, *requestRecord](),
	}
}

// Operators

// CreateOperator registers a new operator.
//
// Parameters:
//   - name: Display name
//   - active: Whether the operator can receive assignments
//   - maxLoad: Concurrent open-request ceiling (must be ≥ 1)
//
// Returns:
//   - *types.Operator: The created operator with its assigned id
//   - error: ErrInvalidMaxLoad for a non-positive ceiling
func (m *Memory) CreateOperator(_ context.Context, name string, active bool, maxLoad int) (*types.Operator, error) {
	if maxLoad < 1 {
		return nil, fmt.Errorf("max load %d: %w", maxLoad, types.ErrInvalidMaxLoad)
	}

	op := &types.Operator{
		ID:        m.nextOperatorID.Add(1),
		Name:      name,
		Active:    active,
		MaxLoad:   maxLoad,
		CreatedAt: time.Now().UTC(),
	}
	m.operators.Store(op.ID, op)

	return cloneOperator(op), nil
}

// GetOperator returns an operator by id, or ErrOperatorNotFound.
func (m *Memory) GetOperator(_ context.Context, operatorID int64) (*types.Operator, error) {
	op, ok := m.operators.Load(operatorID)
	if !ok {
		return nil, fmt.Errorf("operator %d: %w", operatorID, types.ErrOperatorNotFound)
	}

	return cloneOperator(op), nil
}

// ListOperators returns all operators sorted by ascending id.
func (m *Memory) ListOperators(_ context.Context) []*types.Operator {
	var out []*types.Operator
	m.operators.Range(func(_ int64, op *types.Operator) bool {
		out = append(out, cloneOperator(op))
		return true
	})
	slices.SortFunc(out, func(a, b *types.Operator) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return out
}

// OperatorPatch holds the optional fields of an operator update; nil fields
// stay unchanged.
type OperatorPatch struct {
	Name    *string
	Active  *bool
	MaxLoad *int
}

// UpdateOperator applies a partial update and returns the new snapshot.
//
// Lowering MaxLoad below the current open count does not evict work: the
// engine simply assigns nothing new until closures bring the load under the
// new ceiling.
func (m *Memory) UpdateOperator(_ context.Context, operatorID int64, patch OperatorPatch) (*types.Operator, error) {
	if patch.MaxLoad != nil && *patch.MaxLoad < 1 {
		return nil, fmt.Errorf("max load %d: %w", *patch.MaxLoad, types.ErrInvalidMaxLoad)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	op, ok := m.operators.Load(operatorID)
	if !ok {
		return nil, fmt.Errorf("operator %d: %w", operatorID, types.ErrOperatorNotFound)
	}

	next := *op
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Active != nil {
		next.Active = *patch.Active
	}
	if patch.MaxLoad != nil {
		next.MaxLoad = *patch.MaxLoad
	}
	m.operators.Store(operatorID, &next)

	return cloneOperator(&next), nil
}

// DeleteOperator removes an operator, or returns ErrOperatorNotFound.
func (m *Memory) DeleteOperator(_ context.Context, operatorID int64) error {
	if _, ok := m.operators.LoadAndDelete(operatorID); !ok {
		return fmt.Errorf("operator %d: %w", operatorID, types.ErrOperatorNotFound)
	}

	return nil
}

// OperatorInfo returns the engine's minimal view of an operator.
func (m *Memory) OperatorInfo(_ context.Context, operatorID int64) (types.OperatorInfo, error) {
	op, ok := m.operators.Load(operatorID)
	if !ok {
		return types.OperatorInfo{}, fmt.Errorf("operator %d: %w", operatorID, types.ErrOperatorNotFound)
	}

	return types.OperatorInfo{Active: op.Active, MaxLoad: op.MaxLoad}, nil
}

// Channels

// CreateChannel registers a new channel.
func (m *Memory) CreateChannel(_ context.Context, name, description string) (*types.Channel, error) {
	ch := &types.Channel{
		ID:          m.nextChannelID.Add(1),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	m.channels.Store(ch.ID, ch)

	return cloneChannel(ch), nil
}

// GetChannel returns a channel by id, or ErrChannelNotFound.
func (m *Memory) GetChannel(_ context.Context, channelID int64) (*types.Channel, error) {
	ch, ok := m.channels.Load(channelID)
	if !ok {
		return nil, fmt.Errorf("channel %d: %w", channelID, types.ErrChannelNotFound)
	}

	return cloneChannel(ch), nil
}

// ListChannels returns all channels sorted by ascending id.
func (m *Memory) ListChannels(_ context.Context) []*types.Channel {
	var out []*types.Channel
	m.channels.Range(func(_ int64, ch *types.Channel) bool {
		out = append(out, cloneChannel(ch))
		return true
	})
	slices.SortFunc(out, func(a, b *types.Channel) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return out
}

// DeleteChannel removes a channel, or returns ErrChannelNotFound.
func (m *Memory) DeleteChannel(_ context.Context, channelID int64) error {
	if _, ok := m.channels.LoadAndDelete(channelID); !ok {
		return fmt.Errorf("channel %d: %w", channelID, types.ErrChannelNotFound)
	}

	return nil
}

// ChannelExists reports whether the channel is known.
func (m *Memory) ChannelExists(_ context.Context, channelID int64) bool {
	_, ok := m.channels.Load(channelID)

	return ok
}

// Leads

// ResolveLead returns the lead with the given external id, creating it from
// the profile on first sight.
//
// Two concurrent resolutions with the same external id serialize on the
// same lock stripe and yield the same lead, so resolution is idempotent.
func (m *Memory) ResolveLead(_ context.Context, externalID string, profile types.LeadProfile) (*types.Lead, error) {
	if externalID == "" {
		return nil, types.ErrEmptyExternalID
	}

	if lead, ok := m.leads.Load(externalID); ok {
		return cloneLead(lead), nil
	}

	stripe := &m.leadMu[xxh3.HashString(externalID)%leadStripes]
	stripe.Lock()
	defer stripe.Unlock()

	// Re-check under the stripe lock: another resolver may have won.
	if lead, ok := m.leads.Load(externalID); ok {
		return cloneLead(lead), nil
	}

	lead := &types.Lead{
		ID:         uuid.NewString(),
		ExternalID: externalID,
		Name:       profile.Name,
		Email:      profile.Email,
		Phone:      profile.Phone,
		CreatedAt:  time.Now().UTC(),
	}
	m.leads.Store(externalID, lead)

	return cloneLead(lead), nil
}

// GetLead returns a lead by its internal id, or ErrLeadNotFound.
func (m *Memory) GetLead(_ context.Context, leadID string) (*types.Lead, error) {
	var found *types.Lead
	m.leads.Range(func(_ string, lead *types.Lead) bool {
		if lead.ID == leadID {
			found = cloneLead(lead)
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("lead %s: %w", leadID, types.ErrLeadNotFound)
	}

	return found, nil
}

// ListLeads returns all leads sorted by external id.
func (m *Memory) ListLeads(_ context.Context) []*types.Lead {
	var out []*types.Lead
	m.leads.Range(func(_ string, lead *types.Lead) bool {
		out = append(out, cloneLead(lead))
		return true
	})
	slices.SortFunc(out, func(a, b *types.Lead) int {
		return cmp.Compare(a.ExternalID, b.ExternalID)
	})

	return out
}

// Requests

// CreateRequest persists a new request in the open state.
func (m *Memory) CreateRequest(_ context.Context, leadID string, channelID int64, operatorID *int64, message string) (*types.Request, error) {
	req := types.Request{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		ChannelID: channelID,
		Status:    types.RequestOpen,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	if operatorID != nil {
		id := *operatorID
		req.OperatorID = &id
	}

	m.requests.Store(req.ID, &requestRecord{req: req})

	return cloneRequest(&req), nil
}

// CloseRequest transitions the request from open to closed exactly once.
//
// The transition happens under the record's own lock, so two concurrent
// closers cannot both succeed: the loser gets ErrRequestAlreadyClosed.
func (m *Memory) CloseRequest(_ context.Context, requestID string) (*types.Request, error) {
	rec, ok := m.requests.Load(requestID)
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, types.ErrRequestNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.req.Status == types.RequestClosed {
		return nil, fmt.Errorf("request %s: %w", requestID, types.ErrRequestAlreadyClosed)
	}

	now := time.Now().UTC()
	rec.req.Status = types.RequestClosed
	rec.req.ClosedAt = &now

	return cloneRequest(&rec.req), nil
}

// GetRequest returns a request by id, or ErrRequestNotFound.
func (m *Memory) GetRequest(_ context.Context, requestID string) (*types.Request, error) {
	rec, ok := m.requests.Load(requestID)
	if !ok {
		return nil, fmt.Errorf("request %s: %w", requestID, types.ErrRequestNotFound)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	return cloneRequest(&rec.req), nil
}

// RequestFilter narrows ListRequests; zero fields match everything.
type RequestFilter struct {
	ChannelID  int64
	OperatorID int64
}

// ListRequests returns requests matching the filter, sorted by creation time.
func (m *Memory) ListRequests(_ context.Context, filter RequestFilter) []*types.Request {
	var out []*types.Request
	m.requests.Range(func(_ string, rec *requestRecord) bool {
		rec.mu.Lock()
		req := cloneRequest(&rec.req)
		rec.mu.Unlock()

		if filter.ChannelID != 0 && req.ChannelID != filter.ChannelID {
			return true
		}
		if filter.OperatorID != 0 && (req.OperatorID == nil || *req.OperatorID != filter.OperatorID) {
			return true
		}
		out = append(out, req)

		return true
	})
	slices.SortFunc(out, func(a, b *types.Request) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmp.Compare(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}

		return 1
	})

	return out
}

// clone helpers keep callers from aliasing live store records.

func cloneOperator(op *types.Operator) *types.Operator {
	c := *op

	return &c
}

func cloneChannel(ch *types.Channel) *types.Channel {
	c := *ch

	return &c
}

func cloneLead(lead *types.Lead) *types.Lead {
	c := *lead

	return &c
}

func cloneRequest(req *types.Request) *types.Request {
	c := *req
	if req.OperatorID != nil {
		id := *req.OperatorID
		c.OperatorID = &id
	}
	if req.ClosedAt != nil {
		ts := *req.ClosedAt
		c.ClosedAt = &ts
	}

	return &c
}
