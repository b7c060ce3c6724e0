// Package entry is the store's write-ahead log. Every mutation is appended
// here before it is applied to the in-memory tree, and the log is replayed
// on startup on top of the latest snapshot.
package entry

import (
	"os"
	"sync"

	"github.com/cockroachdb/errors"

	"rbkv/infra/memory"
)

const defaultSegmentSize = 2 << 20

var frames = memory.NewBufferPool(256)

type Config struct {
	Dir         string
	SegmentSize int64
	// SyncEveryWrite fsyncs after each Append.
	SyncEveryWrite bool
}

type WAL struct {
	mu      sync.Mutex
	dir     string
	segSize int64
	sync    bool
	current *segment
}

// Open opens dir for appending, resuming at the newest existing segment.
// A frame torn by a crash at the end of that segment is cut off first.
func Open(cfg Config) (*WAL, error) {
	if cfg.Dir == "" {
		return nil, errors.New("entry wal: empty dir")
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "entry wal: mkdir")
	}

	segs, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	index := 0
	if len(segs) > 0 {
		newest := segs[len(segs)-1]
		if err := repairTail(newest.path); err != nil {
			return nil, err
		}
		index = newest.index
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:     cfg.Dir,
		segSize: cfg.SegmentSize,
		sync:    cfg.SyncEveryWrite,
		current: seg,
	}, nil
}

func (w *WAL) Dir() string { return w.dir }

func (w *WAL) Append(r *Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := frames.Get()
	*buf = r.appendTo(*buf)
	err := w.current.append(*buf)
	frames.Put(buf)
	if err != nil {
		return errors.Wrapf(err, "entry wal: append seq %d", r.Seq)
	}
	if w.sync {
		if err := w.current.sync(); err != nil {
			return errors.Wrap(err, "entry wal: sync")
		}
	}

	if w.current.offset >= w.segSize {
		return w.rotate()
	}
	return nil
}

func (w *WAL) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.sync()
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return err
	}
	return w.current.close()
}

func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return errors.Wrap(err, "entry wal: sync before rotate")
	}
	_ = w.current.close()

	seg, err := openSegment(w.dir, w.current.index+1)
	if err != nil {
		return err
	}
	w.current = seg
	return nil
}

// TruncateBefore removes closed segments whose records all have seq <= seq.
// The segment being appended to is never removed.
func (w *WAL) TruncateBefore(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	segs, err := listSegments(w.dir)
	if err != nil {
		return err
	}

	for _, s := range segs {
		if s.index >= w.current.index {
			continue
		}
		maxSeq, err := maxSeqInSegment(s.path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			if err := os.Remove(s.path); err != nil {
				return errors.Wrapf(err, "entry wal: remove %s", s.path)
			}
		}
	}
	return nil
}
