package entry

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// maxSeqInSegment returns the largest sequence number in a segment. Only
// headers are read; payloads are skipped.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var (
		maxSeq uint64
		header [headerSize]byte
	)
	for {
		if _, err := io.ReadFull(f, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return maxSeq, nil
			}
			return maxSeq, err
		}

		seq := binary.BigEndian.Uint64(header[1:9])
		maxSeq = max(maxSeq, seq)

		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if _, err := f.Seek(int64(payloadLen)+crcSize, io.SeekCurrent); err != nil {
			return maxSeq, err
		}
	}
}

// validPrefix returns the length of the longest run of whole frames at the
// start of the segment at path. A frame cut short at the end is not
// counted; a checksum mismatch is an error.
func validPrefix(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var end int64
	for {
		rec, err := readRecord(r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return end, nil
			}
			return end, errors.Wrapf(err, "entry wal: %s at offset %d", path, end)
		}
		end += int64(headerSize + len(rec.Data) + crcSize)
	}
}

// repairTail cuts a torn frame off the end of the segment at path so that
// new frames are not appended behind it.
func repairTail(path string) error {
	end, err := validPrefix(path)
	if err != nil {
		return err
	}
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if st.Size() == end {
		return nil
	}
	return errors.Wrapf(os.Truncate(path, end), "entry wal: truncate torn tail of %s", path)
}
