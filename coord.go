package kzgroup

import "context"

// SessionState is one of the three events a Coordinator's session stream
// signals (spec §4.1).
type SessionState int8

const (
	SessionConnected SessionState = iota
	SessionSuspended
	SessionLost
)

func (s SessionState) String() string {
	switch s {
	case SessionConnected:
		return "Connected"
	case SessionSuspended:
		return "Suspended"
	case SessionLost:
		return "Lost"
	default:
		return "Unknown"
	}
}

// NodeMeta is the metadata returned alongside a node's payload by Get.
type NodeMeta struct {
	Version int32
}

// Coordinator is the capability interface over a ZooKeeper-style
// hierarchical ephemeral-znode store (spec §4.1, component C1). The rest
// of the core never talks to a coordination-service client library
// directly; it only sees this interface, so C2-C7 are testable against a
// fake.
//
// Implementations may block on network I/O. Handlers passed to
// WatchChildren must not block the adapter's dispatch thread beyond
// enqueuing work (spec §4.1).
type Coordinator interface {
	// EnsurePath creates p and all missing ancestors as persistent nodes.
	// Idempotent.
	EnsurePath(ctx context.Context, p string) error

	// Create creates a node at p with the given payload. If ephemeral, the
	// node is tied to the current session. Returns *NodeExistsError if a
	// node is already present at p.
	Create(ctx context.Context, p string, payload []byte, ephemeral bool) error

	// Delete removes the node at p. Returns *NodeMissingError if absent;
	// callers treat that as success.
	Delete(ctx context.Context, p string) error

	// GetChildren lists the immediate children of p. Returns
	// *NodeMissingError if p is absent.
	GetChildren(ctx context.Context, p string) ([]string, error)

	// Get fetches the payload and metadata of the node at p. Returns
	// *NodeMissingError if absent.
	Get(ctx context.Context, p string) ([]byte, NodeMeta, error)

	// WatchChildren installs a persistent watch on p's child set. handler
	// is invoked with the initial child list and again on every
	// subsequent change; the watch reissues itself after each fire.
	WatchChildren(ctx context.Context, p string, handler func([]string)) error

	// SessionEvents returns a channel signalling Connected/Suspended/Lost.
	SessionEvents() <-chan SessionState

	// Close releases the underlying session, dropping all ephemeral state
	// created through this adapter atomically.
	Close() error
}

// NodeExistsError is returned by Create when a node is already present.
type NodeExistsError struct{ Path string }

func (e *NodeExistsError) Error() string { return "node already exists: " + e.Path }

// NodeMissingError is returned by Delete/GetChildren/Get when the target
// node is absent.
type NodeMissingError struct{ Path string }

func (e *NodeMissingError) Error() string { return "node not found: " + e.Path }
