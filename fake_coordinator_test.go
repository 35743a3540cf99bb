package kzgroup

import (
	"context"
	"strings"
	"sync"
)

// fakeCoordinator is an in-memory Coordinator used to test C2-C6 without a
// real ZooKeeper ensemble, the same role a hand-rolled fake client plays
// in the pack's own consumer-group tests.
type fakeCoordinator struct {
	mu    sync.Mutex
	nodes map[string]fakeNode

	watches   map[string][]func([]string)
	sessionCh chan SessionState
}

type fakeNode struct {
	payload   []byte
	ephemeral bool
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{
		nodes:     make(map[string]fakeNode),
		watches:   make(map[string][]func([]string)),
		sessionCh: make(chan SessionState, 8),
	}
}

func (f *fakeCoordinator) childrenLocked(p string) []string {
	prefix := p + "/"
	seen := make(map[string]struct{})
	for path := range f.nodes {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := path[len(prefix):]
		if idx := strings.IndexByte(rest, '/'); idx >= 0 {
			rest = rest[:idx]
		}
		seen[rest] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	return out
}

func (f *fakeCoordinator) fireWatches(parent string) {
	for _, handler := range f.watches[parent] {
		handler(f.childrenLocked(parent))
	}
}

func (f *fakeCoordinator) EnsurePath(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 1; i < len(p); i++ {
		if p[i] == '/' {
			seg := p[:i]
			if _, ok := f.nodes[seg]; !ok {
				f.nodes[seg] = fakeNode{}
			}
		}
	}
	if _, ok := f.nodes[p]; !ok {
		f.nodes[p] = fakeNode{}
	}
	return nil
}

func (f *fakeCoordinator) Create(ctx context.Context, p string, payload []byte, ephemeral bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.nodes[p]; ok {
		return &NodeExistsError{Path: p}
	}
	f.nodes[p] = fakeNode{payload: payload, ephemeral: ephemeral}
	f.fireWatches(parentOf(p))
	return nil
}

func (f *fakeCoordinator) Delete(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.nodes[p]; !ok {
		return &NodeMissingError{Path: p}
	}
	delete(f.nodes, p)
	f.fireWatches(parentOf(p))
	return nil
}

func (f *fakeCoordinator) GetChildren(ctx context.Context, p string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	children := f.childrenLocked(p)
	if _, ok := f.nodes[p]; !ok && len(children) == 0 {
		return nil, &NodeMissingError{Path: p}
	}
	return children, nil
}

func (f *fakeCoordinator) Get(ctx context.Context, p string) ([]byte, NodeMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[p]
	if !ok {
		return nil, NodeMeta{}, &NodeMissingError{Path: p}
	}
	return n.payload, NodeMeta{}, nil
}

func (f *fakeCoordinator) WatchChildren(ctx context.Context, p string, handler func([]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	children := f.childrenLocked(p)
	if _, ok := f.nodes[p]; !ok && len(children) == 0 {
		return &NodeMissingError{Path: p}
	}
	f.watches[p] = append(f.watches[p], handler)
	handler(children)
	return nil
}

func (f *fakeCoordinator) SessionEvents() <-chan SessionState { return f.sessionCh }

func (f *fakeCoordinator) Close() error { return nil }

// expireSession drops every ephemeral node this fake holds, mimicking a
// real ensemble's behavior when a session expires (spec §5, Session loss).
func (f *fakeCoordinator) expireSession() {
	f.mu.Lock()
	var parents []string
	for p, n := range f.nodes {
		if n.ephemeral {
			delete(f.nodes, p)
			parents = append(parents, parentOf(p))
		}
	}
	f.mu.Unlock()
	f.mu.Lock()
	for _, parent := range parents {
		f.fireWatches(parent)
	}
	f.mu.Unlock()
}

func parentOf(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}
