// Package testutil provides in-memory fakes of kobot's external collaborators
// for use in tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/edgard/kobot/internal/gateway"
	"github.com/edgard/kobot/internal/store"
)

// SentMessage records one outbound message.
type SentMessage struct {
	ChannelID gateway.ChannelID
	UserID    string
	Text      string
}

// Gateway is a fake gateway.Client. Channels must be registered with
// AddChannel before they can be resolved.
type Gateway struct {
	mu sync.Mutex

	Ident       gateway.Identity
	IdentityErr error
	ResolveErr  error
	SendErr     error
	RunErr      error

	channels map[gateway.ChannelID]*gateway.Channel
	sent     []SentMessage
	direct   []SentMessage

	// Events are delivered to the consumer by Run, in order, before it
	// blocks on the context.
	Events []gateway.Event
}

var _ gateway.Client = (*Gateway)(nil)

// NewGateway returns a fake gateway with the given identity.
func NewGateway(ident gateway.Identity) *Gateway {
	return &Gateway{
		Ident:    ident,
		channels: make(map[gateway.ChannelID]*gateway.Channel),
	}
}

// AddChannel makes ch resolvable.
func (g *Gateway) AddChannel(ch gateway.Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[ch.ID] = &ch
}

// Sent returns the channel messages sent so far.
func (g *Gateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentMessage(nil), g.sent...)
}

// Direct returns the direct messages sent so far.
func (g *Gateway) Direct() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentMessage(nil), g.direct...)
}

func (g *Gateway) Identity(context.Context) (gateway.Identity, error) {
	if g.IdentityErr != nil {
		return gateway.Identity{}, g.IdentityErr
	}
	return g.Ident, nil
}

func (g *Gateway) ResolveChannel(_ context.Context, id gateway.ChannelID) (*gateway.Channel, error) {
	if g.ResolveErr != nil {
		return nil, g.ResolveErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[id]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	c := *ch
	return &c, nil
}

func (g *Gateway) SendMessage(_ context.Context, id gateway.ChannelID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, SentMessage{ChannelID: id, Text: text})
	return g.SendErr
}

func (g *Gateway) SendDirectMessage(_ context.Context, userID string, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.direct = append(g.direct, SentMessage{UserID: userID, Text: text})
	return g.SendErr
}

// Run delivers Events to consumer and blocks until ctx is done. If RunErr is
// set it is returned immediately after delivery.
func (g *Gateway) Run(ctx context.Context, consumer gateway.Consumer) error {
	for _, ev := range g.Events {
		consumer.HandleEvent(ctx, ev)
	}
	if g.RunErr != nil {
		return g.RunErr
	}
	<-ctx.Done()
	return nil
}

// Store is an in-memory store.Store whose Add is atomic.
type Store struct {
	mu      sync.Mutex
	members map[gateway.ChannelID]struct{}

	MembersErr  error
	AddErr      error
	PingErr     error
	MaintainErr error

	addCalls      int
	maintainCalls int
	closed        bool
}

var _ store.Store = (*Store)(nil)

// NewStore returns a Store holding ids.
func NewStore(ids ...gateway.ChannelID) *Store {
	s := &Store{members: make(map[gateway.ChannelID]struct{})}
	for _, id := range ids {
		s.members[id] = struct{}{}
	}
	return s
}

// Insert adds id directly, as another process sharing the store would.
func (s *Store) Insert(id gateway.ChannelID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[id] = struct{}{}
}

// AddCalls returns how many times Add was called.
func (s *Store) AddCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCalls
}

// MaintainCalls returns how many times Maintain was called.
func (s *Store) MaintainCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maintainCalls
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Has reports whether id is stored.
func (s *Store) Has(id gateway.ChannelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[id]
	return ok
}

func (s *Store) Members(context.Context) ([]gateway.ChannelID, error) {
	if s.MembersErr != nil {
		return nil, s.MembersErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.ChannelID, 0, len(s.members))
	for id := range s.members {
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) Add(_ context.Context, id gateway.ChannelID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	if s.AddErr != nil {
		return false, s.AddErr
	}
	if _, ok := s.members[id]; ok {
		return false, nil
	}
	s.members[id] = struct{}{}
	return true, nil
}

func (s *Store) Ping(context.Context) error {
	return s.PingErr
}

func (s *Store) Maintain(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintainCalls++
	return s.MaintainErr
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("store already closed")
	}
	s.closed = true
	return nil
}
