package snapshot

import (
	"encoding/gob"
	"os"

	"github.com/cockroachdb/errors"

	"rbkv/domain/redblack"
)

// Load inserts the snapshot at path into tree and returns its sequence
// number. A missing snapshot is not an error: the tree is left untouched
// and 0 is returned.
func Load(path string, tree *redblack.Tree[string, []byte]) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "snapshot: open")
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, errors.Wrapf(err, "snapshot: decode %s", path)
	}

	for _, e := range s.Entries {
		tree.Insert(e.Key, e.Value)
	}
	return s.Seq, nil
}
