package kzgroup

import "fmt"

// Coordination store layout (spec §3). These are part of the wire
// contract with other group members and must be bit-exact.

func idsPath(group string) string {
	return fmt.Sprintf("/consumers/%s/ids", group)
}

func memberPath(group, identity string) string {
	return fmt.Sprintf("%s/%s", idsPath(group), identity)
}

func ownersPath(group, topic string) string {
	return fmt.Sprintf("/consumers/%s/owners/%s", group, topic)
}

func ownerNodePath(group, topic string, p PartitionDescriptor) string {
	return fmt.Sprintf("%s/%s", ownersPath(group, topic), p.ownerNode())
}

const (
	brokersIDsPath    = "/brokers/ids"
	brokersTopicsPath = "/brokers/topics"
)
