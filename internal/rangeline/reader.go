// Package rangeline restricts an offsetio.Stream to a half-open global
// byte range while still delivering whole lines, and can report the
// last complete line the range would deliver without consuming it.
package rangeline

import (
	"fmt"
	"strings"

	"github.com/edulix/pjoin/internal/offsetio"
)

// Reader reads lines from a Stream, stopping once its current position
// has passed end. end is "orientative": a line straddling it is
// delivered whole, and the call after that returns 0.
type Reader struct {
	stream  *offsetio.Stream
	end     uint64
	current uint64
}

// OpenRange opens a Reader over [start, end) with no adjustment to the
// first line delivered. Used when start is already known to land on a
// line boundary, as it does when derived from the key locator.
func OpenRange(files []offsetio.FileInfo, start, end uint64) (*Reader, error) {
	s, err := offsetio.Open(files, start)
	if err != nil {
		return nil, err
	}
	return &Reader{stream: s, end: end, current: start}, nil
}

// OpenPartitions divides files into n Readers of roughly equal byte
// size, splitting only on line boundaries. Every partition but the
// first discards its first line: wherever a range boundary lands
// mid-line, that line belongs to the partition before it, since that
// partition's peek-last-line will have already reported it.
func OpenPartitions(files []offsetio.FileInfo, n uint64) ([]*Reader, error) {
	if n == 0 {
		return nil, fmt.Errorf("rangeline: n must be >= 1")
	}
	total := offsetio.TotalLength(files)
	rangeSize := (total + n - 1) / n
	readers := make([]*Reader, n)
	for i := uint64(0); i < n; i++ {
		r, err := OpenRange(files, i*rangeSize, (i+1)*rangeSize)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			var discard []byte
			if _, err := r.ReadLine(&discard); err != nil {
				return nil, err
			}
		}
		readers[i] = r
	}
	return readers, nil
}

// Pos is the reader's current global offset.
func (r *Reader) Pos() uint64 { return r.current }

// End is the reader's (orientative) upper bound.
func (r *Reader) End() uint64 { return r.end }

// ReadLine reads the next line, or returns 0 once the reader's current
// position has passed End.
func (r *Reader) ReadLine(buf *[]byte) (int, error) {
	if r.current > r.end {
		return 0, nil
	}
	n, err := r.stream.ReadLine(buf)
	if err != nil {
		return 0, err
	}
	r.current += uint64(n)
	return n, nil
}

// Clone returns an independent Reader with its own underlying file
// handle, positioned identically to r.
func (r *Reader) Clone() (*Reader, error) {
	s2, err := r.stream.Clone()
	if err != nil {
		return nil, err
	}
	return &Reader{stream: s2, end: r.end, current: r.current}, nil
}

// PeekLastLine returns the last complete line this reader would
// deliver, without mutating the reader. It is idempotent: calling it
// repeatedly, or after consuming some lines, returns the same string.
//
// bufEndPos below is one past the index within buf of the byte at end.
// The line containing that byte is the last one ReadLine delivers,
// since ReadLine keeps reading while the current position is at or
// before end.
func (r *Reader) PeekLastLine() (string, error) {
	const w = uint64(offsetio.BufferSize)
	var seekPos uint64
	if r.end > w {
		seekPos = r.end - w
	}

	total := r.stream.Length()
	avail := total - seekPos
	mainLen := w
	if avail < mainLen {
		mainLen = avail
	}
	var tailSlack uint64
	if total > r.end {
		remain := total - r.end
		if remain < w {
			tailSlack = remain
		} else {
			tailSlack = w
		}
	}

	clone, err := r.stream.Clone()
	if err != nil {
		return "", err
	}
	defer clone.Close()
	if err := clone.Seek(seekPos); err != nil {
		return "", err
	}
	buf := make([]byte, mainLen+tailSlack)
	n, err := clone.Read(buf)
	if err != nil {
		return "", err
	}
	buf = buf[:n]

	bufEndPos := r.end - seekPos + 1

	// Case A: the buffer ran out exactly where the stream does; the
	// last line is the penultimate '\n'-split token (the final token
	// is empty, since every file ends with '\n').
	if bufEndPos >= uint64(len(buf)) {
		parts := strings.Split(string(buf), "\n")
		return parts[len(parts)-2], nil
	}

	// Case B: end is the first byte of a line; the last line of the
	// range is the one beginning at end.
	if bufEndPos < 2 || buf[bufEndPos-2] == '\n' {
		parts := strings.SplitN(string(buf[bufEndPos-1:]), "\n", 2)
		return parts[0], nil
	}

	// Case C: end falls inside a line; that line starts at the last
	// '\n' strictly before it.
	firstPart := buf[:bufEndPos-1]
	startPos := strings.LastIndexByte(string(firstPart), '\n')
	rest := buf[startPos+1:]
	parts := strings.SplitN(string(rest), "\n", 2)
	return parts[0], nil
}
