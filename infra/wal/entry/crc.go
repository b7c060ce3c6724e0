package entry

import "hash/crc32"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// checksum covers the frame header and payload.
func checksum(parts ...[]byte) uint32 {
	var sum uint32
	for _, p := range parts {
		sum = crc32.Update(sum, castagnoli, p)
	}
	return sum
}
