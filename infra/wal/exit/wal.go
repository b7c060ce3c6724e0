// Package exit is the store's outbox: every applied mutation is recorded
// here, keyed by sequence number, until the broadcaster has published it.
package exit

import (
	"encoding/binary"
	"fmt"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// -------------------- State --------------------

type ExitState uint8

const (
	StateNew ExitState = iota
	StateSent
	StateAcked
	StateFailed
)

func (s ExitState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

type ExitRecord struct {
	Seq         uint64
	State       ExitState
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const recordHeader = 1 + 4 + 8

var ErrBadRecord = errors.New("exit wal: invalid record")

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r ExitRecord) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(seq uint64, b []byte) (ExitRecord, error) {
	if len(b) < recordHeader {
		return ExitRecord{}, errors.Wrapf(ErrBadRecord, "seq %d: %d bytes", seq, len(b))
	}
	return ExitRecord{
		Seq:         seq,
		State:       ExitState(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte{}, b[recordHeader:]...),
	}, nil
}

// -------------------- WAL --------------------

type ExitWAL struct {
	db *pebble.DB
}

func Open(dir string) (*ExitWAL, error) {
	return open(dir, &pebble.Options{})
}

// OpenInMemory opens an outbox that lives in memory only.
func OpenInMemory() (*ExitWAL, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dir string, opts *pebble.Options) (*ExitWAL, error) {
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "exit wal: open %q", dir)
	}
	return &ExitWAL{db: db}, nil
}

func (w *ExitWAL) Close() error {
	return w.db.Close()
}

// -------------------- API --------------------

// PutNew records a freshly applied mutation.
func (w *ExitWAL) PutNew(seq uint64, payload []byte) error {
	rec := ExitRecord{State: StateNew, Payload: payload}
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// UpdateState moves a record to state, stamping the attempt time.
func (w *ExitWAL) UpdateState(seq uint64, state ExitState, retries uint32) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return w.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

func (w *ExitWAL) MarkSent(seq uint64, retries uint32) error {
	return w.UpdateState(seq, StateSent, retries)
}

func (w *ExitWAL) MarkAcked(seq uint64, retries uint32) error {
	return w.UpdateState(seq, StateAcked, retries)
}

func (w *ExitWAL) MarkFailed(seq uint64, retries uint32) error {
	return w.UpdateState(seq, StateFailed, retries)
}

// Bury moves seq out of the event range into the dead-letter range, keeping
// its payload and retry count. Buried events are never scanned for
// publishing again.
func (w *ExitWAL) Bury(seq uint64) error {
	rec, err := w.Get(seq)
	if err != nil {
		return err
	}

	batch := w.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(deadKeyFor(seq), encodeRecord(rec), nil); err != nil {
		return err
	}
	if err := batch.Delete(keyFor(seq), nil); err != nil {
		return err
	}
	return errors.Wrapf(batch.Commit(pebble.Sync), "exit wal: bury %d", seq)
}

// Get returns the record for seq; a missing record wraps pebble.ErrNotFound.
func (w *ExitWAL) Get(seq uint64) (ExitRecord, error) {
	val, closer, err := w.db.Get(keyFor(seq))
	if err != nil {
		return ExitRecord{}, errors.Wrapf(err, "exit wal: get %d", seq)
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

// -------------------- Scan --------------------

// ScanByState calls fn, in sequence order, for every record in one of the
// given states.
func (w *ExitWAL) ScanByState(fn func(rec ExitRecord) error, states ...ExitState) error {
	return w.scanRange(keyPrefix, func(rec ExitRecord) error {
		if !slices.Contains(states, rec.State) {
			return nil
		}
		return fn(rec)
	})
}

// ScanDeadLetters calls fn, in sequence order, for every buried event.
func (w *ExitWAL) ScanDeadLetters(fn func(rec ExitRecord) error) error {
	return w.scanRange(deadPrefix, fn)
}

func (w *ExitWAL) scanRange(prefix string, fn func(rec ExitRecord) error) error {
	iter, err := w.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: []byte(prefix + "~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key(), prefix)
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// ScanPending visits records that still need publishing. SENT records are
// included: a record left SENT was interrupted before its ack, so delivery
// is at-least-once.
func (w *ExitWAL) ScanPending(fn func(rec ExitRecord) error) error {
	return w.ScanByState(fn, StateNew, StateSent, StateFailed)
}

// TruncateAckedUpTo deletes acknowledged records with seq <= upTo.
func (w *ExitWAL) TruncateAckedUpTo(upTo uint64) error {
	batch := w.db.NewBatch()
	defer batch.Close()

	err := w.ScanByState(func(rec ExitRecord) error {
		if rec.Seq > upTo {
			return nil
		}
		return batch.Delete(keyFor(rec.Seq), nil)
	}, StateAcked)
	if err != nil {
		return err
	}
	if batch.Empty() {
		return nil
	}
	return batch.Commit(pebble.Sync)
}

// -------------------- Helpers --------------------

const (
	keyPrefix  = "event/"
	deadPrefix = "dead/"
)

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func deadKeyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", deadPrefix, seq))
}

func parseKey(b []byte, prefix string) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(b[len(prefix):]), "%d", &seq); err != nil {
		return 0, errors.Wrapf(err, "exit wal: bad key %q", b)
	}
	return seq, nil
}
