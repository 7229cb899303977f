package realtime

import (
	"sync"

	"pulsegram/internal/core/domain"
	"pulsegram/internal/core/ports"

	"go.uber.org/zap"
)

// Broker is the in-memory publish/subscribe layer: named groups mapping to
// the set of currently joined connections. Groups are created on first join
// and removed eagerly on last leave, so empty entries never accumulate.
//
// The broker holds weak references only; connection lifecycle belongs to the
// Registry, which removes a client from every group before releasing it.
type Broker struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Client // group name -> client id -> client
	joined map[string]map[string]bool    // client id -> group names

	// onOverflow runs outside the broker lock for every client whose
	// outbound queue rejected a delivery. Wired to Registry.Unregister.
	onOverflow func(*Client)

	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger
}

func NewBroker(metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *Broker {
	return &Broker{
		groups:  make(map[string]map[string]*Client),
		joined:  make(map[string]map[string]bool),
		metrics: metrics,
		logger:  logger,
	}
}

// SetOverflowHandler installs the slow-subscriber policy. Must be called
// before any traffic flows.
func (b *Broker) SetOverflowHandler(fn func(*Client)) {
	b.onOverflow = fn
}

func (b *Broker) Join(group string, c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	members, ok := b.groups[group]
	if !ok {
		members = make(map[string]*Client)
		b.groups[group] = members
	}
	members[c.ID] = c

	if b.joined[c.ID] == nil {
		b.joined[c.ID] = make(map[string]bool)
	}
	b.joined[c.ID][group] = true

	b.recordGroupCount()
}

// Leave removes the client from the group. Leaving a group the client never
// joined is a no-op.
func (b *Broker) Leave(group string, c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leaveLocked(group, c)
	b.recordGroupCount()
}

func (b *Broker) leaveLocked(group string, c *Client) {
	members, ok := b.groups[group]
	if !ok {
		return
	}
	delete(members, c.ID)
	if len(members) == 0 {
		delete(b.groups, group)
	}
	if joined, ok := b.joined[c.ID]; ok {
		delete(joined, group)
		if len(joined) == 0 {
			delete(b.joined, c.ID)
		}
	}
}

// RemoveClient detaches the client from every group it joined. Called by the
// registry before the connection is considered gone, so no later publish can
// reach a dead handle.
func (b *Broker) RemoveClient(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for group := range b.joined[c.ID] {
		b.leaveLocked(group, c)
	}
	delete(b.joined, c.ID)
	b.recordGroupCount()
}

// Publish delivers the event to every member currently in the group,
// at-most-once each, in the publisher's call order. Zero members means zero
// deliveries and no error. Identity filtering happens in Client.Deliver, not
// here.
func (b *Broker) Publish(group string, event domain.Event) {
	b.mu.RLock()
	members := make([]*Client, 0, len(b.groups[group]))
	for _, c := range b.groups[group] {
		members = append(members, c)
	}
	b.mu.RUnlock()

	var overflowed []*Client
	for _, c := range members {
		if !c.Deliver(event) {
			overflowed = append(overflowed, c)
		}
	}

	if b.metrics != nil {
		b.metrics.EventPublished(event.Type(), len(members))
	}

	for _, c := range overflowed {
		b.logger.Warnw("subscriber queue full, disconnecting",
			"group", group, "client_id", c.ID, "user_id", c.UserID)
		if b.onOverflow != nil {
			b.onOverflow(c)
		} else {
			c.Close()
		}
	}
}

func (b *Broker) MemberCount(group string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups[group])
}

func (b *Broker) GroupCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.groups)
}

// GroupsOf reports the groups a client is currently joined to.
func (b *Broker) GroupsOf(c *Client) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	groups := make([]string, 0, len(b.joined[c.ID]))
	for g := range b.joined[c.ID] {
		groups = append(groups, g)
	}
	return groups
}

func (b *Broker) recordGroupCount() {
	if b.metrics != nil {
		b.metrics.GroupCount(len(b.groups))
	}
}

var _ ports.GroupBroker = (*Broker)(nil)
