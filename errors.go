package kzgroup

import "fmt"

// The error taxonomy of spec §7. Each kind is a distinct type, following
// the teacher's convention of typed errors (e.g. ErrDataLoss) rather than
// bare sentinel values, so callers can type-switch on the kind while
// %w-wrapping still works with errors.As.

// ContentionError signals that another member has not yet released a
// partition this member is trying to claim (C5 create -> AlreadyExists).
// It is retried within a rebalance pass, up to the configured retry budget.
type ContentionError struct {
	Partition PartitionDescriptor
}

func (e *ContentionError) Error() string {
	return fmt.Sprintf("contention claiming partition %s", e.Partition.Canonical())
}

// TransientCoordinationError wraps an I/O timeout or a suspended session.
// The controller surfaces it and retries on the next watch fire.
type TransientCoordinationError struct {
	Op  string
	Err error
}

func (e *TransientCoordinationError) Error() string {
	return fmt.Sprintf("transient coordination error during %s: %v", e.Op, e.Err)
}

func (e *TransientCoordinationError) Unwrap() error { return e.Err }

// SessionLostError signals that the coordination session expired; all
// ephemeral state created through it is gone. The controller returns to
// the Starting state.
type SessionLostError struct{}

func (e *SessionLostError) Error() string { return "coordination session lost" }

// BrokerPathMissingError signals that /brokers/ids was absent at startup.
// Fatal to the member.
type BrokerPathMissingError struct {
	Path string
}

func (e *BrokerPathMissingError) Error() string {
	return fmt.Sprintf("broker path %q missing in coordination store", e.Path)
}

// OverSubscribedError is advisory, not a hard failure: peers already
// outnumber (or equal) partitions at registration time.
type OverSubscribedError struct {
	Peers      int
	Partitions int
}

func (e *OverSubscribedError) Error() string {
	return fmt.Sprintf("over-subscribed: %d peers for %d partitions", e.Peers, e.Partitions)
}

// StopRequestedError signals clean termination requested by the host.
type StopRequestedError struct{}

func (e *StopRequestedError) Error() string { return "stop requested" }
