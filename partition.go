package kzgroup

import (
	"fmt"
	"sort"
)

// PartitionDescriptor identifies a single partition of a topic by its
// leader broker and partition id. Two partitions are equal iff all three
// fields match.
type PartitionDescriptor struct {
	Topic    string
	LeaderID int32
	ID       int32
}

// Canonical returns the textual form used for sorting and as the key when
// comparing partition sets; the ownership znode name is ownerNode(), not
// this. All group members must agree on this byte-for-byte.
func (p PartitionDescriptor) Canonical() string {
	return fmt.Sprintf("%s-%d-%d", p.Topic, p.LeaderID, p.ID)
}

// ownerNode returns the child node name used under
// /consumers/<group>/owners/<topic>, i.e. "<leader-id>-<partition-id>".
func (p PartitionDescriptor) ownerNode() string {
	return fmt.Sprintf("%d-%d", p.LeaderID, p.ID)
}

// PeerDescriptor is a group member's identity together with the topic it
// has registered interest in. Peers sort by Identity (lexicographic).
type PeerDescriptor struct {
	Identity string
	Topic    string
}

// sortPartitions sorts partitions ascending by their canonical form. The
// sort must be total and stable across every group member (spec §8,
// Determinism), so it is always driven off Canonical(), never field order.
func sortPartitions(ps []PartitionDescriptor) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].Canonical() < ps[j].Canonical()
	})
}

// sortPeers sorts peers ascending by identity string.
func sortPeers(ps []PeerDescriptor) {
	sort.Slice(ps, func(i, j int) bool {
		return ps[i].Identity < ps[j].Identity
	})
}
