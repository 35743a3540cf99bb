package kzgroup

import (
	"context"
	"errors"
	"path"
	"sync"
	"time"

	"github.com/samuel/go-zookeeper/zk"
)

// ZKCoordinator is the Coordinator implementation backing the core on a
// real ZooKeeper ensemble. It is a thin adapter: every method forwards
// almost directly to *zk.Conn, translating zk's sentinel errors into the
// Coordinator's own NodeExistsError/NodeMissingError and re-arming
// watches, the same division of labor kazoo-go keeps between itself and
// samuel/go-zookeeper/zk.
type ZKCoordinator struct {
	conn   *zk.Conn
	logger Logger

	sessionCh chan SessionState

	closeOnce sync.Once
	stopCh    chan struct{}
}

// NewZKCoordinator dials the given ensemble and starts translating
// zk session events into SessionEvents().
func NewZKCoordinator(servers []string, sessionTimeout time.Duration, logger Logger) (*ZKCoordinator, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	conn, events, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, err
	}
	z := &ZKCoordinator{
		conn:      conn,
		logger:    logger,
		sessionCh: make(chan SessionState, 8),
		stopCh:    make(chan struct{}),
	}
	go z.pumpSessionEvents(events)
	return z, nil
}

func (z *ZKCoordinator) pumpSessionEvents(events <-chan zk.Event) {
	for {
		select {
		case <-z.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Type != zk.EventSession {
				continue
			}
			var s SessionState
			switch ev.State {
			case zk.StateHasSession:
				s = SessionConnected
			case zk.StateDisconnected:
				s = SessionSuspended
			case zk.StateExpired:
				s = SessionLost
			default:
				continue
			}
			z.logger.Log(LogLevelInfo, "session state changed", "state", s)
			select {
			case z.sessionCh <- s:
			case <-z.stopCh:
				return
			}
		}
	}
}

func (z *ZKCoordinator) SessionEvents() <-chan SessionState { return z.sessionCh }

func (z *ZKCoordinator) EnsurePath(ctx context.Context, p string) error {
	if p == "" || p == "/" {
		return nil
	}
	parent := path.Dir(p)
	if parent != "/" {
		if err := z.EnsurePath(ctx, parent); err != nil {
			return err
		}
	}
	_, err := z.conn.Create(p, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return err
	}
	return nil
}

func (z *ZKCoordinator) Create(ctx context.Context, p string, payload []byte, ephemeral bool) error {
	var flags int32
	if ephemeral {
		flags = zk.FlagEphemeral
	}
	_, err := z.conn.Create(p, payload, flags, zk.WorldACL(zk.PermAll))
	if errors.Is(err, zk.ErrNodeExists) {
		return &NodeExistsError{Path: p}
	}
	return err
}

func (z *ZKCoordinator) Delete(ctx context.Context, p string) error {
	err := z.conn.Delete(p, -1)
	if errors.Is(err, zk.ErrNoNode) {
		return &NodeMissingError{Path: p}
	}
	return err
}

func (z *ZKCoordinator) GetChildren(ctx context.Context, p string) ([]string, error) {
	children, _, err := z.conn.Children(p)
	if errors.Is(err, zk.ErrNoNode) {
		return nil, &NodeMissingError{Path: p}
	}
	if err != nil {
		return nil, err
	}
	return children, nil
}

func (z *ZKCoordinator) Get(ctx context.Context, p string) ([]byte, NodeMeta, error) {
	data, stat, err := z.conn.Get(p)
	if errors.Is(err, zk.ErrNoNode) {
		return nil, NodeMeta{}, &NodeMissingError{Path: p}
	}
	if err != nil {
		return nil, NodeMeta{}, err
	}
	return data, NodeMeta{Version: stat.Version}, nil
}

// WatchChildren installs a persistent watch on p, invoking handler with
// the initial child list and then again on every change until ctx is
// canceled or the coordinator is closed. Each fire reissues the watch, per
// spec §4.1.
func (z *ZKCoordinator) WatchChildren(ctx context.Context, p string, handler func([]string)) error {
	children, _, watchCh, err := z.conn.ChildrenW(p)
	if errors.Is(err, zk.ErrNoNode) {
		return &NodeMissingError{Path: p}
	}
	if err != nil {
		return err
	}
	handler(children)

	go z.rearm(ctx, p, watchCh, handler)
	return nil
}

func (z *ZKCoordinator) rearm(ctx context.Context, p string, watchCh <-chan zk.Event, handler func([]string)) {
	select {
	case <-ctx.Done():
		return
	case <-z.stopCh:
		return
	case ev, ok := <-watchCh:
		if !ok {
			return
		}
		if ev.Err != nil {
			z.logger.Log(LogLevelWarn, "watch error, not rearming", "path", p, "err", ev.Err)
			return
		}
	}

	children, _, nextWatchCh, err := z.conn.ChildrenW(p)
	if err != nil {
		z.logger.Log(LogLevelWarn, "failed to rearm watch", "path", p, "err", err)
		return
	}
	handler(children)
	z.rearm(ctx, p, nextWatchCh, handler)
}

func (z *ZKCoordinator) Close() error {
	var err error
	z.closeOnce.Do(func() {
		close(z.stopCh)
		z.conn.Close()
	})
	return err
}
