package kzgroup

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type stubTopic struct {
	name       string
	partitions []PartitionDescriptor
}

func (s stubTopic) Name() string { return s.name }

func (s stubTopic) Partitions(ctx context.Context) ([]PartitionDescriptor, error) {
	return s.partitions, nil
}

func threePartitions(topic string) []PartitionDescriptor {
	return []PartitionDescriptor{
		{Topic: topic, LeaderID: 1, ID: 2},
		{Topic: topic, LeaderID: 1, ID: 0},
		{Topic: topic, LeaderID: 1, ID: 1},
	}
}

func TestViewListPeersEmptyGroup(t *testing.T) {
	coord := newFakeCoordinator()
	v := &view{coord: coord, topic: stubTopic{name: "t"}, group: "g", logger: nopLogger{}}

	peers, err := v.listPeers(context.Background())
	if err != nil {
		t.Fatalf("listPeers: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("got %d peers, want 0", len(peers))
	}
}

func TestViewListPeersFiltersByTopicAndSorts(t *testing.T) {
	coord := newFakeCoordinator()
	ctx := context.Background()
	v := &view{coord: coord, topic: stubTopic{name: "t"}, group: "g", logger: nopLogger{}}

	_ = coord.EnsurePath(ctx, idsPath("g"))
	_ = coord.Create(ctx, memberPath("g", "c"), []byte("t"), true)
	_ = coord.Create(ctx, memberPath("g", "a"), []byte("t"), true)
	_ = coord.Create(ctx, memberPath("g", "b"), []byte("other-topic"), true)

	peers, err := v.listPeers(ctx)
	if err != nil {
		t.Fatalf("listPeers: %v", err)
	}
	want := []PeerDescriptor{{Identity: "a", Topic: "t"}, {Identity: "c", Topic: "t"}}
	if diff := cmp.Diff(want, peers); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestViewListPartitionsSorted(t *testing.T) {
	v := &view{topic: stubTopic{name: "t", partitions: threePartitions("t")}}

	got, err := v.listPartitions(context.Background())
	if err != nil {
		t.Fatalf("listPartitions: %v", err)
	}
	for i := 0; i < len(got)-1; i++ {
		if got[i].Canonical() >= got[i+1].Canonical() {
			t.Fatalf("partitions not sorted at index %d: %v", i, got)
		}
	}
}
