package kzgroup

import "context"

// registrar implements C2, the Membership Registrar.
type registrar struct {
	coord    Coordinator
	view     *view
	group    string
	identity string
	topic    string
	logger   Logger
}

// register publishes this member's presence under the group, guarding
// against over-subscription (spec §4.2). Returning a nil error with
// registered=false means the guard fired; the caller stays passive until a
// future rebalance finds room.
func (r *registrar) register(ctx context.Context) (registered bool, err error) {
	peers, err := r.view.listPeers(ctx)
	if err != nil {
		return false, err
	}

	partitions, err := r.view.listPartitions(ctx)
	if err != nil {
		return false, err
	}

	if len(peers) >= len(partitions) {
		r.logger.Log(LogLevelWarn, "over-subscribed, staying passive",
			"peers", len(peers), "partitions", len(partitions))
		return false, nil
	}

	if err := r.coord.EnsurePath(ctx, idsPath(r.group)); err != nil {
		return false, err
	}

	path := memberPath(r.group, r.identity)
	if err := r.coord.Create(ctx, path, []byte(r.topic), true); err != nil {
		if _, ok := err.(*NodeExistsError); ok {
			// Already registered under this session; treat as success.
			return true, nil
		}
		return false, err
	}
	r.logger.Log(LogLevelInfo, "registered member", "identity", shortID(r.identity), "topic", r.topic)
	return true, nil
}
