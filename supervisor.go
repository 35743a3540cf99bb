package kzgroup

import "context"

// ClusterTopic is the external cluster collaborator (spec §6): a topic
// handle with a name and a live mapping of partition-id to partition
// descriptor. Cluster/broker metadata discovery is explicitly out of
// scope for this module; something else maintains this mapping and hands
// it to the Group at construction time.
type ClusterTopic interface {
	Name() string
	Partitions(ctx context.Context) ([]PartitionDescriptor, error)
}

// Message is a single consumed record, passed through from the inner
// consumer without interpretation.
type Message struct {
	Partition PartitionDescriptor
	Offset    int64
	Key       []byte
	Value     []byte
}

// InnerConsumer is the external per-partition fetch consumer (spec §6),
// out of scope for this module beyond the interface it must satisfy.
type InnerConsumer interface {
	Consume(ctx context.Context) (*Message, error)
	Stop() error
}

// InnerConsumerFactory constructs an InnerConsumer for a newly decided
// partition set. Parameters: the topic handle, group, the assigned
// partitions, and the forwarded auto-commit/socket options. There is no
// separate cluster parameter; the ClusterTopic handle is the only cluster
// collaborator passed in.
type InnerConsumerFactory func(
	topic ClusterTopic,
	group string,
	partitions []PartitionDescriptor,
	autoCommitEnable bool,
	autoCommitInterval int,
	socketTimeoutMS int,
) (InnerConsumer, error)

// supervisor implements C7: it starts, stops, and replaces the downstream
// inner consumer whenever the assignment changes.
type supervisor struct {
	topic   ClusterTopic
	group   string
	cfg     cfg
	factory InnerConsumerFactory
	logger  Logger

	current    InnerConsumer
	currentSet map[string]PartitionDescriptor // keyed by Canonical()
}

func newSupervisor(topic ClusterTopic, group string, cfg cfg, factory InnerConsumerFactory) *supervisor {
	return &supervisor{
		topic:   topic,
		group:   group,
		cfg:     cfg,
		factory: factory,
		logger:  cfg.logger,
	}
}

// replace stops the current inner consumer (if any) and starts a new one
// for owned, unless owned is identical to the currently running set, in
// which case it is a no-op (spec §4.7). Stopping fully releases resources
// before construction begins.
func (s *supervisor) replace(owned []PartitionDescriptor) error {
	next := make(map[string]PartitionDescriptor, len(owned))
	for _, p := range owned {
		next[p.Canonical()] = p
	}
	if sameSet(next, s.currentSet) {
		return nil
	}

	if s.current != nil {
		if err := s.current.Stop(); err != nil {
			s.logger.Log(LogLevelWarn, "error stopping inner consumer", "err", err)
		}
		s.current = nil
		s.currentSet = nil
	}

	if len(owned) == 0 {
		return nil
	}

	ic, err := s.factory(
		s.topic,
		s.group,
		owned,
		s.cfg.autoCommitEnable,
		s.cfg.autoCommitIntervalMS,
		s.cfg.socketTimeoutMS,
	)
	if err != nil {
		return err
	}
	s.current = ic
	s.currentSet = next
	s.logger.Log(LogLevelInfo, "inner consumer (re)started", "partitions", len(owned))
	return nil
}

func (s *supervisor) stop() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Stop()
	s.current = nil
	s.currentSet = nil
	return err
}

func (s *supervisor) consumer() InnerConsumer { return s.current }

func sameSet(a, b map[string]PartitionDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
