package watcher

import (
	"encoding/binary"
	"iter"
	"unicode/utf16"
)

// FILE_NOTIFY_INFORMATION layout: NextEntryOffset, Action and FileNameLength
// as little-endian uint32, then FileNameLength bytes of UTF-16 name
const notifyHeaderLen = 12

// Actions reported by ReadDirectoryChangesW
const (
	fileActionAdded          = 1
	fileActionRemoved        = 2
	fileActionModified       = 3
	fileActionRenamedOldName = 4
	fileActionRenamedNewName = 5
)

// notifyRecords decodes a ReadDirectoryChangesW buffer into actions and
// root-relative names. A truncated record ends the sequence.
func notifyRecords(buf []byte) iter.Seq2[uint32, string] {
	return func(yield func(uint32, string) bool) {
		for len(buf) >= notifyHeaderLen {
			next := int(binary.LittleEndian.Uint32(buf[0:]))
			action := binary.LittleEndian.Uint32(buf[4:])
			nameLen := int(binary.LittleEndian.Uint32(buf[8:]))
			if notifyHeaderLen+nameLen > len(buf) {
				return
			}
			if !yield(action, decodeUTF16(buf[notifyHeaderLen:notifyHeaderLen+nameLen])) {
				return
			}
			if next <= 0 || next > len(buf) {
				return
			}
			buf = buf[next:]
		}
	}
}

// isRemoval reports whether a notify action means the name is gone. Moving
// to the recycle bin arrives as a rename.
func isRemoval(action uint32) bool {
	return action == fileActionRemoved || action == fileActionRenamedOldName
}

func decodeUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units))
}
