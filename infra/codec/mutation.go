// Package codec encodes store mutations in protobuf wire format. The same
// bytes are used as entry WAL payload, outbox payload and Kafka message
// value.
package codec

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

type Op uint8

const (
	OpPut Op = iota + 1
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpPut:
		return "put"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Field numbers of the Mutation message.
const (
	fieldSeq   protowire.Number = 1
	fieldOp    protowire.Number = 2
	fieldKey   protowire.Number = 3
	fieldValue protowire.Number = 4
)

var ErrBadMutation = errors.New("codec: malformed mutation")

// Mutation is one applied change to the store.
type Mutation struct {
	Seq   uint64
	Op    Op
	Key   string
	Value []byte
}

func (m *Mutation) Marshal() []byte {
	b := make([]byte, 0, 16+len(m.Key)+len(m.Value))
	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, m.Seq)
	b = protowire.AppendTag(b, fieldOp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Op))
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, m.Key)
	if m.Value != nil {
		b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Value)
	}
	return b
}

// Unmarshal decodes b into m. Unknown fields are skipped. Value is copied
// out of b.
func (m *Mutation) Unmarshal(b []byte) error {
	*m = Mutation{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "codec: tag")
		}
		b = b[n:]

		switch {
		case num == fieldSeq && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "codec: seq")
			}
			m.Seq, b = v, b[n:]
		case num == fieldOp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "codec: op")
			}
			m.Op, b = Op(v), b[n:]
		case num == fieldKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "codec: key")
			}
			m.Key, b = v, b[n:]
		case num == fieldValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "codec: value")
			}
			m.Value, b = append([]byte{}, v...), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "codec: unknown field")
			}
			b = b[n:]
		}
	}

	if m.Op != OpPut && m.Op != OpDelete {
		return errors.Wrapf(ErrBadMutation, "op %d", m.Op)
	}
	return nil
}
