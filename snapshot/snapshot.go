package snapshot

import "time"

const fileName = "snapshot.bin"

type Snapshot struct {
	Seq     uint64
	Created time.Time
	Entries []Entry
}

// Entry is one key/value pair, stored in ascending key order.
type Entry struct {
	Key   string
	Value []byte
}
