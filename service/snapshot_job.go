package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"rbkv/snapshot"
)

// StartSnapshotJob writes a snapshot to dir every interval until ctx is
// done.
func (s *StoreService) StartSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	w := &snapshot.Writer{Dir: dir}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := s.TakeSnapshot(w); err != nil {
					s.logger.Error("snapshot failed", "err", err)
				}
			}
		}
	}()
}

// TakeSnapshot writes one snapshot and then drops the entry WAL segments
// and acknowledged outbox events it covers.
func (s *StoreService) TakeSnapshot(w *snapshot.Writer) error {
	seq, entries := s.Entries()

	if err := w.WriteEntries(seq, entries); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.Snapshots.Inc()
	}

	if err := s.entryWAL.TruncateBefore(seq); err != nil {
		return errors.Wrap(err, "snapshot: truncate entry wal")
	}
	if s.exitWAL != nil {
		if err := s.exitWAL.TruncateAckedUpTo(seq); err != nil {
			return errors.Wrap(err, "snapshot: truncate outbox")
		}
	}

	s.logger.Debug("snapshot written", "seq", seq, "len", len(entries))
	return nil
}
