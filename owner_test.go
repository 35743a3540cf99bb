package kzgroup

import (
	"context"
	"testing"
)

func TestOwnerAcquireClaimsAndReleases(t *testing.T) {
	coord := newFakeCoordinator()
	ctx := context.Background()
	o := &ownerWriter{coord: coord, group: "g", topic: "t", identity: "host:1", logger: nopLogger{}}

	p0 := PartitionDescriptor{Topic: "t", LeaderID: 1, ID: 0}
	p1 := PartitionDescriptor{Topic: "t", LeaderID: 1, ID: 1}

	_ = coord.EnsurePath(ctx, ownersPath("g", "t"))
	if err := o.acquire(ctx, []PartitionDescriptor{p0, p1}, nil); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	for _, p := range []PartitionDescriptor{p0, p1} {
		payload, _, err := coord.Get(ctx, ownerNodePath("g", "t", p))
		if err != nil {
			t.Fatalf("Get %s: %v", p.Canonical(), err)
		}
		if string(payload) != "host:1" {
			t.Fatalf("payload = %q, want host:1", payload)
		}
	}

	// Shrinking to just p0 must release p1.
	if err := o.acquire(ctx, []PartitionDescriptor{p0}, []PartitionDescriptor{p0, p1}); err != nil {
		t.Fatalf("acquire (shrink): %v", err)
	}
	if _, err := coord.Get(ctx, ownerNodePath("g", "t", p1)); err == nil {
		t.Fatal("p1 should have been released")
	}
	if _, err := coord.Get(ctx, ownerNodePath("g", "t", p0)); err != nil {
		t.Fatalf("p0 should still be owned: %v", err)
	}
}

// TestOwnerAcquireIdempotent checks spec §8's Idempotent rebalance
// invariant at the C5 layer: re-acquiring an unchanged set performs no
// deletes and no creates (Create would fail AlreadyExists if it tried).
func TestOwnerAcquireIdempotent(t *testing.T) {
	coord := newFakeCoordinator()
	ctx := context.Background()
	o := &ownerWriter{coord: coord, group: "g", topic: "t", identity: "host:1", logger: nopLogger{}}
	p0 := PartitionDescriptor{Topic: "t", LeaderID: 1, ID: 0}

	_ = coord.EnsurePath(ctx, ownersPath("g", "t"))
	if err := o.acquire(ctx, []PartitionDescriptor{p0}, nil); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := o.acquire(ctx, []PartitionDescriptor{p0}, []PartitionDescriptor{p0}); err != nil {
		t.Fatalf("second acquire: %v", err)
	}
}

// TestOwnerAcquireContention checks spec §7/§8: claiming a partition still
// owned (server-side) by another member surfaces *ContentionError rather
// than silently overwriting.
func TestOwnerAcquireContention(t *testing.T) {
	coord := newFakeCoordinator()
	ctx := context.Background()
	p0 := PartitionDescriptor{Topic: "t", LeaderID: 1, ID: 0}

	_ = coord.EnsurePath(ctx, ownersPath("g", "t"))
	_ = coord.Create(ctx, ownerNodePath("g", "t", p0), []byte("host:other"), true)

	o := &ownerWriter{coord: coord, group: "g", topic: "t", identity: "host:1", logger: nopLogger{}}
	err := o.acquire(ctx, []PartitionDescriptor{p0}, nil)
	if err == nil {
		t.Fatal("expected ContentionError")
	}
	if _, ok := err.(*ContentionError); !ok {
		t.Fatalf("got %T, want *ContentionError", err)
	}
}
