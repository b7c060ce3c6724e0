package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

type Writer struct {
	Dir string
}

func (w *Writer) Path() string {
	return filepath.Join(w.Dir, fileName)
}

// WriteEntries dumps entries, already copied out of the tree in key order,
// as the state at seq. The previous snapshot is replaced atomically.
func (w *Writer) WriteEntries(seq uint64, entries []Entry) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.Wrap(err, "snapshot: mkdir")
	}

	f, err := os.CreateTemp(w.Dir, fileName+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "snapshot: create")
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Entries: entries,
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "snapshot: encode")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "snapshot: sync")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "snapshot: close")
	}
	return errors.Wrap(os.Rename(tmp, w.Path()), "snapshot: rename")
}
