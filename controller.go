package kzgroup

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"

	"example.com/kzgroup/internal/assign"
)

// controllerState is one row of the spec §4.6 state table.
type controllerState int32

const (
	stateStarting controllerState = iota
	stateIdle
	stateRebalancing
	stateDegraded
	stateStopped
)

func (s controllerState) String() string {
	switch s {
	case stateStarting:
		return "Starting"
	case stateIdle:
		return "Idle"
	case stateRebalancing:
		return "Rebalancing"
	case stateDegraded:
		return "Degraded"
	case stateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// controller implements C6: the watch-driven rebalance state machine that
// orchestrates C2-C5 and C7 with bounded retry and debouncing.
type controller struct {
	coord Coordinator
	reg   *registrar
	view  *view
	owner *ownerWriter
	sup   *supervisor
	cfg   cfg

	group    string
	topic    string
	identity string

	logger Logger

	owned []PartitionDescriptor
	state int32 // controllerState, accessed atomically for introspection

	installing int32 // 1 while watches are being installed (deferred-fire guard)

	rebalanceCh chan struct{}
	stopCh      chan struct{}
	stoppedCh   chan struct{}
	readyCh     chan error // sent once, after the very first Starting attempt

	ctx    context.Context
	cancel context.CancelFunc
}

func newController(
	coord Coordinator, reg *registrar, v *view, owner *ownerWriter, sup *supervisor,
	c cfg, group, topic, identity string,
) *controller {
	ctx, cancel := context.WithCancel(context.Background())
	return &controller{
		coord:       coord,
		reg:         reg,
		view:        v,
		owner:       owner,
		sup:         sup,
		cfg:         c,
		group:       group,
		topic:       topic,
		identity:    identity,
		logger:      c.logger,
		rebalanceCh: make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
		readyCh:     make(chan error, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *controller) setState(s controllerState) {
	atomic.StoreInt32(&c.state, int32(s))
	c.logger.Log(LogLevelInfo, "state transition", "identity", shortID(c.identity), "state", s.String())
}

func (c *controller) State() controllerState {
	return controllerState(atomic.LoadInt32(&c.state))
}

// requestRebalance is the only thing a watch handler is allowed to do:
// enqueue a request and return immediately (spec §4.1, §5). While watches
// are still being installed (the deferred-fire guard), requests are
// dropped; run() triggers exactly one pass itself once installation
// finishes.
func (c *controller) requestRebalance() {
	if atomic.LoadInt32(&c.installing) == 1 {
		return
	}
	select {
	case c.rebalanceCh <- struct{}{}:
	default:
		// already a pending request; passes are not queued (spec §4.6 Coalescing)
	}
}

// run is the dedicated rebalance executor: every mutation of owned, every
// C4/C5/C7 call, and every state transition happens here, serialized
// (spec §5).
func (c *controller) run() {
	err := c.enterStarting()
	if err != nil {
		c.logger.Log(LogLevelError, "fatal error entering Starting", "err", err)
		c.setState(stateDegraded)
	}
	c.readyCh <- err

	lost := false
	for {
		select {
		case <-c.stopCh:
			c.setState(stateStopped)
			_ = c.sup.stop()
			_ = c.coord.Close()
			close(c.stoppedCh)
			return

		case session := <-c.coord.SessionEvents():
			switch session {
			case SessionLost:
				c.logger.Log(LogLevelWarn, "session lost, returning to Starting on reconnect")
				c.owned = nil
				lost = true
			case SessionSuspended:
				c.logger.Log(LogLevelWarn, "session suspended")
			case SessionConnected:
				// A reconnect after Lost re-enters Starting; a bare reconnect
				// with no intervening Lost needs no action.
				if lost {
					lost = false
					if err := c.enterStarting(); err != nil {
						c.logger.Log(LogLevelError, "fatal error re-entering Starting", "err", err)
						c.setState(stateDegraded)
					}
				}
			}

		case <-c.rebalanceCh:
			if lost {
				// Re-registration on reconnect runs its own fresh pass.
				continue
			}
			c.setState(stateRebalancing)
			if err := c.runPass(); err != nil {
				c.logger.Log(LogLevelWarn, "rebalance pass degraded", "err", err,
					"owned", spew.Sdump(c.owned))
				c.setState(stateDegraded)
			} else {
				c.setState(stateIdle)
			}
		}
	}
}

// enterStarting ensures paths, registers (C2), and installs the three
// watches behind the deferred-fire guard, then runs one rebalance pass
// (spec §4.6, Starting state).
func (c *controller) enterStarting() error {
	c.setState(stateStarting)
	atomic.StoreInt32(&c.installing, 1)
	defer atomic.StoreInt32(&c.installing, 0)

	if err := c.coord.EnsurePath(c.ctx, ownersPath(c.group, c.topic)); err != nil {
		return err
	}
	if _, err := c.reg.register(c.ctx); err != nil {
		return err
	}

	if err := c.coord.WatchChildren(c.ctx, brokersIDsPath, func([]string) { c.requestRebalance() }); err != nil {
		if _, ok := err.(*NodeMissingError); ok {
			return &BrokerPathMissingError{Path: brokersIDsPath}
		}
		return err
	}
	if err := c.coord.WatchChildren(c.ctx, brokersTopicsPath, func([]string) { c.requestRebalance() }); err != nil {
		return err
	}
	if err := c.coord.WatchChildren(c.ctx, idsPath(c.group), func([]string) { c.requestRebalance() }); err != nil {
		return err
	}

	atomic.StoreInt32(&c.installing, 0)
	c.setState(stateRebalancing)
	err := c.runPass()
	if err != nil {
		c.setState(stateDegraded)
	} else {
		c.setState(stateIdle)
	}
	return nil
}

// runPass is one rebalance pass: up to cfg.rebalanceRetries attempts,
// release-before-acquire each attempt, exponential-of-attempt-index
// backoff between attempts (spec §4.6).
func (c *controller) runPass() error {
	var lastErr error
retryLoop:
	for attempt := 0; attempt < c.cfg.rebalanceRetries; attempt++ {
		if attempt > 0 {
			d := backoff(attempt)
			c.logger.Log(LogLevelInfo, "retrying rebalance pass", "attempt", attempt, "sleep_seconds", int(d/time.Second))
			select {
			case <-time.After(d):
			case <-c.stopCh:
				lastErr = &StopRequestedError{}
				break retryLoop
			}
		}

		peers, err := c.view.listPeers(c.ctx)
		if err != nil {
			lastErr = err
			break retryLoop
		}
		partitions, err := c.view.listPartitions(c.ctx)
		if err != nil {
			lastErr = err
			break retryLoop
		}

		identities := make([]string, len(peers))
		for i, p := range peers {
			identities[i] = p.Identity
		}

		var targets []PartitionDescriptor
		start, count, aerr := assign.Assign(identities, c.identity, len(partitions))
		if aerr != nil {
			if _, rerr := c.reg.register(c.ctx); rerr != nil {
				lastErr = rerr
				break retryLoop
			}
			targets = nil
		} else {
			targets = append(targets, partitions[start:start+count]...)
		}

		// Only contention (spec §4.6's "catch Contention: continue") is
		// retried within this pass's budget; every other error propagates
		// out immediately so the next attempt is driven by a watch fire,
		// not by burning the retry budget internally (spec §7).
		if err := c.owner.acquire(c.ctx, targets, c.owned); err != nil {
			lastErr = err
			if _, ok := err.(*ContentionError); ok {
				continue
			}
			break retryLoop
		}
		c.owned = targets
		lastErr = nil
		break
	}

	if err := c.sup.replace(c.owned); err != nil {
		c.logger.Log(LogLevelError, "failed to apply assignment to inner consumer", "err", err)
		if lastErr == nil {
			lastErr = err
		}
	}
	return lastErr
}

// waitReady blocks until the first Starting attempt has completed,
// returning any fatal error it produced (e.g. BrokerPathMissingError).
func (c *controller) waitReady(ctx context.Context) error {
	select {
	case err := <-c.readyCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop requests clean shutdown. It closes the coordinator session before
// waiting on run()'s own stopCh handling: run() may currently be blocked
// inside a rebalance pass doing synchronous Coordinator I/O that does not
// itself observe ctx/stopCh, and closing the session is what unblocks
// that call (spec §5, Cancellation — in-flight blocking I/O surfaces as a
// spurious, dropped error rather than hanging Stop() forever).
func (c *controller) stop() {
	c.cancel()
	_ = c.coord.Close()
	close(c.stopCh)
	<-c.stoppedCh
}
