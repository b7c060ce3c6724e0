package service

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"rbkv/domain/redblack"
	"rbkv/infra/codec"
	"rbkv/infra/sequence"
	entrywal "rbkv/infra/wal/entry"
	"rbkv/snapshot"
)

// ReplayFromWAL rebuilds tree from the snapshot at snapshotPath plus every
// later entry WAL record, then resumes seqGen after the last one applied.
// It must run before the service accepts traffic. The outbox is not
// replayed.
func ReplayFromWAL(
	walDir string,
	snapshotPath string,
	tree *redblack.Tree[string, []byte],
	seqGen *sequence.Sequencer,
	logger *slog.Logger,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	snapSeq, err := snapshot.Load(snapshotPath, tree)
	if err != nil {
		return err
	}

	applied := 0
	lastSeq, err := entrywal.Replay(walDir, func(rec *entrywal.Record) error {
		if rec.Seq <= snapSeq {
			return nil
		}

		var m codec.Mutation
		if err := m.Unmarshal(rec.Data); err != nil {
			return errors.Wrapf(err, "replay: seq %d", rec.Seq)
		}
		if m.Seq != rec.Seq {
			return errors.AssertionFailedf("replay: record seq %d carries mutation seq %d", rec.Seq, m.Seq)
		}
		if want := recordTypeFor(m.Op); rec.Type != want {
			return errors.AssertionFailedf("replay: seq %d is a %s record carrying a %s", rec.Seq, rec.Type, m.Op)
		}

		applyMutation(tree, &m)
		applied++
		return nil
	})
	if err != nil {
		return err
	}

	seqGen.Reset(max(lastSeq, snapSeq))

	logger.Info("replay complete",
		"snapshot_seq", snapSeq,
		"last_seq", seqGen.Current(),
		"applied", applied,
		"len", tree.Len(),
	)
	return nil
}
