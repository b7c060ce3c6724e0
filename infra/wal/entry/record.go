package entry

import (
	"encoding/binary"
	"time"
)

type RecordType uint8

const (
	RecordInsert RecordType = iota + 1
	RecordRemove
)

func (t RecordType) String() string {
	switch t {
	case RecordInsert:
		return "insert"
	case RecordRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Frame layout:
// [type:1][seq:8][time:8][len:4][payload][crc:4]
const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4
)

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}

// appendTo appends r's frame to dst.
func (r *Record) appendTo(dst []byte) []byte {
	start := len(dst)
	dst = append(dst, byte(r.Type))
	dst = binary.BigEndian.AppendUint64(dst, r.Seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(r.Time))
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(r.Data)))
	dst = append(dst, r.Data...)
	return binary.BigEndian.AppendUint32(dst, checksum(dst[start:]))
}
