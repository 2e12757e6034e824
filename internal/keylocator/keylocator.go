// Package keylocator binary-searches a sorted, multi-file line dataset
// for the byte offset of a given key's line.
package keylocator

import (
	"bytes"
	"fmt"

	"github.com/edulix/pjoin/internal/offsetio"
)

type line struct {
	key    string
	offset uint64
	length uint64
}

// Key extracts the value of the key field from a raw line (which may
// carry its trailing '\n'). It is the same extraction the merge-join's
// line parser performs, and must stay byte-for-byte identical to it —
// any divergence between this and internal/lineparser's splitting will
// silently drop or duplicate matched rows.
func Key(rawLine []byte, separator byte, keyField int) (string, error) {
	trimmed := bytes.TrimSuffix(rawLine, []byte{'\n'})
	fields := bytes.Split(trimmed, []byte{separator})
	if keyField < 0 || keyField >= len(fields) {
		return "", fmt.Errorf("keylocator: key field %d absent from line %q", keyField, trimmed)
	}
	return string(fields[keyField]), nil
}

func readLineAt(files []offsetio.FileInfo, pos uint64, separator byte, keyField int) (line, error) {
	s, err := offsetio.Open(files, pos)
	if err != nil {
		return line{}, err
	}
	defer s.Close()
	var buf []byte
	n, err := s.ReadLine(&buf)
	if err != nil {
		return line{}, err
	}
	key, err := Key(buf, separator, keyField)
	if err != nil {
		return line{}, err
	}
	return line{key: key, offset: pos, length: uint64(n)}, nil
}

// discardThenReadLine seeks to pos (which may fall mid-line), discards
// the remainder of whatever line it lands in, and reads the next whole
// line. It returns that line's own starting offset (pos plus however
// many bytes were discarded), not pos itself.
func discardThenReadLine(files []offsetio.FileInfo, pos uint64, separator byte, keyField int) (line, error) {
	s, err := offsetio.Open(files, pos)
	if err != nil {
		return line{}, err
	}
	defer s.Close()

	var discard []byte
	dn, err := s.ReadLine(&discard)
	if err != nil {
		return line{}, err
	}
	cut := pos + uint64(dn)

	var buf []byte
	n, err := s.ReadLine(&buf)
	if err != nil {
		return line{}, err
	}
	key, err := Key(buf, separator, keyField)
	if err != nil {
		return line{}, err
	}
	return line{key: key, offset: cut, length: uint64(n)}, nil
}

func lastLine(files []offsetio.FileInfo, separator byte, keyField int) (line, error) {
	total := offsetio.TotalLength(files)
	var start uint64
	if total > offsetio.BufferSize {
		start = total - offsetio.BufferSize
	}
	s, err := offsetio.Open(files, start)
	if err != nil {
		return line{}, err
	}
	defer s.Close()

	var last line
	pos := start
	for {
		var buf []byte
		n, err := s.ReadLine(&buf)
		if err != nil {
			return line{}, err
		}
		if n == 0 {
			break
		}
		key, err := Key(buf, separator, keyField)
		if err != nil && pos == start && start > 0 {
			// start may fall mid-line; a leading fragment that lacks the
			// key field is skipped.
			pos += uint64(n)
			continue
		}
		if err != nil {
			return line{}, err
		}
		last = line{key: key, offset: pos, length: uint64(n)}
		pos += uint64(n)
	}
	return last, nil
}

// Find returns the byte offset of key's line within files, sorted
// ascending by the field at keyField and split by separator.
//
// If a line with that exact key exists, it returns the offset of the
// first such line (exact == true) — duplicates of a boundary key are
// never split across the line before the returned offset. Otherwise it
// returns the offset of the greatest line whose key is strictly less
// than key (exact == false); if key is less than every key present, it
// returns offset 0.
func Find(files []offsetio.FileInfo, separator byte, keyField int, key string) (offset uint64, exact bool, err error) {
	if len(files) == 0 {
		return 0, false, fmt.Errorf("keylocator: empty file list")
	}

	bottom, err := readLineAt(files, 0, separator, keyField)
	if err != nil {
		return 0, false, err
	}
	if bottom.key == key {
		return bottom.offset, true, nil
	}
	if bottom.key > key {
		// key is below every key present; floor is conventionally 0.
		return 0, false, nil
	}

	top, err := lastLine(files, separator, keyField)
	if err != nil {
		return 0, false, err
	}
	if top.key < key {
		return top.offset, false, nil
	}

	// Invariant from here on: bottom.key < key <= top.key.
	for {
		if bottom.offset+bottom.length == top.offset {
			if top.key == key {
				return top.offset, true, nil
			}
			return bottom.offset, false, nil
		}

		mid := bottom.offset + (top.offset-bottom.offset)/2
		cut, err := discardThenReadLine(files, mid, separator, keyField)
		if err != nil {
			return 0, false, err
		}
		if cut.offset == top.offset {
			// The midpoint collapsed onto top; fall back to the line
			// immediately after bottom, which is known to be a line
			// boundary already.
			cut, err = readLineAt(files, bottom.offset+bottom.length, separator, keyField)
			if err != nil {
				return 0, false, err
			}
		}

		if cut.key < key {
			bottom = cut
		} else {
			top = cut
		}
	}
}
