package kzgroup

import "testing"

// TestPathsBitExact locks down the wire contract of spec §3/§6: other
// language implementations read these same paths, so the literal strings
// must never drift.
func TestPathsBitExact(t *testing.T) {
	cases := []struct {
		got  string
		want string
	}{
		{idsPath("g"), "/consumers/g/ids"},
		{memberPath("g", "host:1"), "/consumers/g/ids/host:1"},
		{ownersPath("g", "t"), "/consumers/g/owners/t"},
		{ownerNodePath("g", "t", PartitionDescriptor{Topic: "t", LeaderID: 3, ID: 7}), "/consumers/g/owners/t/3-7"},
		{brokersIDsPath, "/brokers/ids"},
		{brokersTopicsPath, "/brokers/topics"},
	}
	for _, tc := range cases {
		if tc.got != tc.want {
			t.Errorf("got %q, want %q", tc.got, tc.want)
		}
	}
}
