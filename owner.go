package kzgroup

import "context"

// ownerWriter implements C5: claims and releases ownership znodes,
// resolving contention.
type ownerWriter struct {
	coord    Coordinator
	group    string
	topic    string
	identity string
	logger   Logger
}

// acquire releases every partition in currents that is not in targets,
// then creates an ownership node for every partition in targets that is
// not already in currents. Releases always precede acquisitions within a
// single call (spec §4.5), so a peer that lost a partition in the
// previous round gets a chance to release it before we claim it.
//
// On AlreadyExists for an acquisition, acquire returns a *ContentionError
// for that partition immediately; partitions already released in this
// call stay released (they are not rolled back), matching the spec's
// framing of contention as "retry the whole pass", not "undo this call".
func (o *ownerWriter) acquire(ctx context.Context, targets, currents []PartitionDescriptor) error {
	targetSet := make(map[string]struct{}, len(targets))
	for _, p := range targets {
		targetSet[p.Canonical()] = struct{}{}
	}
	currentSet := make(map[string]struct{}, len(currents))
	for _, p := range currents {
		currentSet[p.Canonical()] = struct{}{}
	}

	for _, p := range currents {
		if _, keep := targetSet[p.Canonical()]; keep {
			continue
		}
		if err := o.coord.Delete(ctx, ownerNodePath(o.group, o.topic, p)); err != nil {
			if _, ok := err.(*NodeMissingError); ok {
				continue // absence is benign
			}
			return err
		}
		o.logger.Log(LogLevelDebug, "released partition", "partition", p.Canonical())
	}

	for _, p := range targets {
		if _, already := currentSet[p.Canonical()]; already {
			continue
		}
		err := o.coord.Create(ctx, ownerNodePath(o.group, o.topic, p), []byte(o.identity), true)
		if err != nil {
			if _, ok := err.(*NodeExistsError); ok {
				return &ContentionError{Partition: p}
			}
			return err
		}
		o.logger.Log(LogLevelDebug, "claimed partition", "partition", p.Canonical())
	}
	return nil
}
