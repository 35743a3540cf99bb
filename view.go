package kzgroup

import "context"

// view implements C3, the Peer & Partition View: read-only snapshots taken
// fresh on every rebalance pass, never cached across passes.
type view struct {
	coord Coordinator
	topic ClusterTopic
	group string

	logger Logger
}

// listPeers returns the sorted set of group members registered under this
// topic. A missing /consumers/<group>/ids returns the empty list; a
// member that disappears between GetChildren and Get is silently skipped
// (spec §4.3, race-tolerant).
func (v *view) listPeers(ctx context.Context) ([]PeerDescriptor, error) {
	children, err := v.coord.GetChildren(ctx, idsPath(v.group))
	if _, ok := err.(*NodeMissingError); ok {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	peers := make([]PeerDescriptor, 0, len(children))
	for _, identity := range children {
		payload, _, err := v.coord.Get(ctx, memberPath(v.group, identity))
		if _, ok := err.(*NodeMissingError); ok {
			continue
		}
		if err != nil {
			return nil, err
		}
		topic := string(payload)
		if topic == v.topic.Name() {
			peers = append(peers, PeerDescriptor{Identity: identity, Topic: topic})
		}
	}
	sortPeers(peers)
	return peers, nil
}

// listPartitions returns the topic's partitions, sorted by canonical form
// (spec §3, §4.3).
func (v *view) listPartitions(ctx context.Context) ([]PartitionDescriptor, error) {
	partitions, err := v.topic.Partitions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PartitionDescriptor, len(partitions))
	copy(out, partitions)
	sortPartitions(out)
	return out, nil
}
