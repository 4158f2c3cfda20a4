// Package record implements the on-disk format shared by the history ring
// and the persistent store: a plain sequence of records, each a 4-byte
// big-endian length followed by that many bytes of UTF-8 text. There is no
// header, checksum or compression. End of input is end of sequence.
package record

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// prefixSize is the width of the big-endian length prefix.
const prefixSize = 4

// CorruptRecordError reports input that does not decode into whole records.
type CorruptRecordError struct {
	Offset    int    // Byte offset of the record that failed
	Declared  uint32 // Length the prefix declared (0 for a dangling prefix)
	Remaining int    // Bytes left in the input at Offset
	Reason    string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record at offset %d: %s (declared %d bytes, %d remaining)",
		e.Offset, e.Reason, e.Declared, e.Remaining)
}

// Decode parses a record stream into its ordered entries. Partial data is
// never returned: any malformed record fails the whole decode.
func Decode(data []byte) ([]string, error) {
	items := make([]string, 0)
	off := 0
	for off < len(data) {
		remaining := len(data) - off
		if remaining < prefixSize {
			return nil, &CorruptRecordError{
				Offset:    off,
				Remaining: remaining,
				Reason:    "dangling length prefix",
			}
		}
		n := binary.BigEndian.Uint32(data[off : off+prefixSize])
		body := remaining - prefixSize
		if uint64(n) > uint64(body) {
			return nil, &CorruptRecordError{
				Offset:    off,
				Declared:  n,
				Remaining: body,
				Reason:    "truncated payload",
			}
		}
		start := off + prefixSize
		payload := data[start : start+int(n)]
		if !utf8.Valid(payload) {
			return nil, &CorruptRecordError{
				Offset:    off,
				Declared:  n,
				Remaining: body,
				Reason:    "payload is not valid UTF-8",
			}
		}
		items = append(items, string(payload))
		off = start + int(n)
	}
	return items, nil
}

// Encode serializes entries in order. Encode(nil) returns an empty slice.
func Encode(items []string) []byte {
	size := 0
	for _, item := range items {
		size += prefixSize + len(item)
	}
	out := make([]byte, 0, size)
	for _, item := range items {
		out = binary.BigEndian.AppendUint32(out, uint32(len(item)))
		out = append(out, item...)
	}
	return out
}
