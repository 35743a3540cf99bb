package kzgroup

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// ErrNoCurrentConsumer is returned by Consume while the first rebalance
// pass has not yet produced an owned partition set (spec §7, "no current
// consumer" condition).
var ErrNoCurrentConsumer = fmt.Errorf("kzgroup: no current consumer (first rebalance pending or no partitions owned)")

// Group is the public handle on one member of a consumer group: it wires
// C1-C7 together and exposes the two operations spec §6 grants the user,
// consume() and infinite iteration.
type Group struct {
	coord *ZKCoordinator
	ctrl  *controller
	sup   *supervisor

	identity string
}

// newIdentity builds the conventional "<host>:<uuid>" member identity
// (spec §3). Unique within the process lifetime; never persisted.
func newIdentity() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	id, err := uuid.NewUUID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, id.String()), nil
}

// shortID truncates a member identity to its last 12 characters for log
// lines, the way the datasift consumer group's shortID() avoids dumping
// a full "<host>:<uuid>" string on every log line.
func shortID(identity string) string {
	if len(identity) <= 12 {
		return identity
	}
	return identity[len(identity)-12:]
}

// Join constructs a Group, connects to the coordination service, performs
// the first registration and rebalance pass, and returns once that first
// pass has completed (successfully or with a fatal error). A fatal error
// at this point (e.g. BrokerPathMissing) is returned directly instead of
// only being logged, matching the source's blocking-constructor behavior.
func Join(ctx context.Context, group string, topic ClusterTopic, factory InnerConsumerFactory, opts ...Opt) (*Group, error) {
	c := defaultCfg()
	for _, opt := range opts {
		opt(&c)
	}

	identity, err := newIdentity()
	if err != nil {
		return nil, err
	}

	coord, err := NewZKCoordinator([]string{c.zkHost}, c.socketTimeout(), c.logger)
	if err != nil {
		return nil, err
	}

	v := &view{coord: coord, topic: topic, group: group, logger: c.logger}
	reg := &registrar{coord: coord, view: v, group: group, identity: identity, topic: topic.Name(), logger: c.logger}
	owner := &ownerWriter{coord: coord, group: group, topic: topic.Name(), identity: identity, logger: c.logger}
	sup := newSupervisor(topic, group, c, factory)

	ctrl := newController(coord, reg, v, owner, sup, c, group, topic.Name(), identity)
	go ctrl.run()

	if err := ctrl.waitReady(ctx); err != nil {
		ctrl.stop()
		return nil, err
	}

	return &Group{coord: coord, ctrl: ctrl, sup: sup, identity: identity}, nil
}

// Spawn is an alias for Join kept for readers coming from the balanced-
// consumer naming convention this module's behavior is grounded on.
func Spawn(ctx context.Context, group string, topic ClusterTopic, factory InnerConsumerFactory, opts ...Opt) (*Group, error) {
	return Join(ctx, group, topic, factory, opts...)
}

// Identity returns this member's conventional "<host>:<uuid>" identity.
func (g *Group) Identity() string { return g.identity }

// State reports the rebalance controller's current state, mainly useful
// for diagnostics and tests.
func (g *Group) State() controllerState { return g.ctrl.State() }

// Consume delegates to the currently running inner consumer. It returns
// ErrNoCurrentConsumer while no partitions are owned, either because the
// first rebalance has not completed or because this member currently owns
// nothing (spec §7); callers iterating continuously should treat that the
// same way Messages does: as "no message right now", not as fatal.
func (g *Group) Consume(ctx context.Context) (*Message, error) {
	ic := g.sup.consumer()
	if ic == nil {
		return nil, ErrNoCurrentConsumer
	}
	return ic.Consume(ctx)
}

// Messages returns a lazy, infinite iterator over consumed messages (spec
// §9, "Infinite iteration"). Each call to the returned function blocks
// until a message is available or ctx is done. It re-resolves the current
// inner consumer on every call, so it survives rebalances transparently:
// a partition handed off mid-iteration simply starts yielding from
// whatever inner consumer the supervisor has installed next.
func (g *Group) Messages(ctx context.Context) func() (*Message, error) {
	return func() (*Message, error) {
		for {
			msg, err := g.Consume(ctx)
			if err != ErrNoCurrentConsumer {
				return msg, err
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
		}
	}
}

// Stop requests clean shutdown (spec §5, Cancellation): pending retries
// are abandoned, the coordination session is closed (dropping every
// ephemeral node this member created), and the inner consumer is stopped.
func (g *Group) Stop() {
	g.ctrl.stop()
}
