package service

import (
	"log/slog"
	"sync"

	"github.com/cockroachdb/errors"

	"rbkv/domain/redblack"
	"rbkv/infra/codec"
	"rbkv/infra/metrics"
	"rbkv/infra/sequence"
	entrywal "rbkv/infra/wal/entry"
	exitwal "rbkv/infra/wal/exit"
	"rbkv/snapshot"
)

type Stats struct {
	Len    int
	Height int
}

// StoreService owns the tree. All access goes through its mutex; the tree
// itself is not safe for concurrent use.
type StoreService struct {
	mu sync.Mutex

	tree     *redblack.Tree[string, []byte]
	seqGen   *sequence.Sequencer
	entryWAL *entrywal.WAL
	exitWAL  *exitwal.ExitWAL
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewStoreService wires the service. exitWAL and m may be nil, which turns
// off broadcasting and metrics respectively.
func NewStoreService(
	tree *redblack.Tree[string, []byte],
	seqGen *sequence.Sequencer,
	entryWAL *entrywal.WAL,
	exitWAL *exitwal.ExitWAL,
	m *metrics.Metrics,
	logger *slog.Logger,
) *StoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreService{
		tree:     tree,
		seqGen:   seqGen,
		entryWAL: entryWAL,
		exitWAL:  exitWAL,
		metrics:  m,
		logger:   logger.With("component", "store"),
	}
}

// Put stores value under key and returns the mutation's sequence number.
func (s *StoreService) Put(key string, value []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := codec.Mutation{Op: codec.OpPut, Key: key, Value: value}
	if err := s.apply(&m); err != nil {
		return 0, err
	}
	return m.Seq, nil
}

// Delete removes key. Deleting a missing key is a no-op and returns seq 0.
func (s *StoreService) Delete(key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Find(key); !ok {
		return 0, nil
	}

	m := codec.Mutation{Op: codec.OpDelete, Key: key}
	if err := s.apply(&m); err != nil {
		return 0, err
	}
	return m.Seq, nil
}

// apply runs with s.mu held.
func (s *StoreService) apply(m *codec.Mutation) error {
	m.Seq = s.seqGen.Next()
	payload := m.Marshal()

	if err := s.entryWAL.Append(entrywal.NewRecord(recordTypeFor(m.Op), m.Seq, payload)); err != nil {
		return errors.Wrapf(err, "store: log %s %q", m.Op, m.Key)
	}

	applyMutation(s.tree, m)

	if s.exitWAL != nil {
		if err := s.exitWAL.PutNew(m.Seq, payload); err != nil {
			// The mutation is durable and applied; only its broadcast is lost.
			s.logger.Error("outbox put failed", "seq", m.Seq, "err", err)
		}
	}
	if s.metrics != nil {
		s.metrics.Observe(m.Op.String(), s.tree.Len(), s.tree.Height())
	}
	return nil
}

func recordTypeFor(op codec.Op) entrywal.RecordType {
	if op == codec.OpDelete {
		return entrywal.RecordRemove
	}
	return entrywal.RecordInsert
}

func applyMutation(tree *redblack.Tree[string, []byte], m *codec.Mutation) {
	switch m.Op {
	case codec.OpPut:
		tree.Insert(m.Key, m.Value)
	case codec.OpDelete:
		tree.Remove(m.Key)
	}
}

func (s *StoreService) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Find(key)
}

func (s *StoreService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Len: s.tree.Len(), Height: s.tree.Height()}
}

// Verify checks every tree invariant.
func (s *StoreService) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Verify()
}

// Entries copies the store's contents in key order along with the sequence
// number they reflect.
func (s *StoreService) Entries() (uint64, []snapshot.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]snapshot.Entry, 0, s.tree.Len())
	for k, v := range s.tree.All() {
		out = append(out, snapshot.Entry{Key: k, Value: v})
	}
	return s.seqGen.Current(), out
}
