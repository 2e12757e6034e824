package offsetio

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Stream reads an ordered list of files as a single seekable sequence of
// bytes and lines, addressed by global offsets into their concatenation.
type Stream struct {
	files     []FileInfo
	fileIndex int
	file      *os.File
	br        *bufio.Reader
	pos       uint64
}

// Open positions a new Stream at global offset pos, opening whichever
// file that offset falls in.
func Open(files []FileInfo, pos uint64) (*Stream, error) {
	s := &Stream{files: files}
	if err := s.openAt(findFileIndex(files, pos), pos); err != nil {
		return nil, err
	}
	return s, nil
}

// Length is the total byte length of the concatenated file list.
func (s *Stream) Length() uint64 { return TotalLength(s.files) }

// Pos is the global offset of the next byte this Stream will deliver.
func (s *Stream) Pos() uint64 { return s.pos }

// Files exposes the offset table the Stream was opened with, so callers
// building new streams (a different range, a clone at another offset)
// don't need to re-stat every file.
func (s *Stream) Files() []FileInfo { return s.files }

func (s *Stream) openAt(idx int, pos uint64) error {
	f, err := os.Open(s.files[idx].Path)
	if err != nil {
		return fmt.Errorf("offsetio: open %s: %w", s.files[idx].Path, err)
	}
	if _, err := f.Seek(int64(pos-s.files[idx].Start), io.SeekStart); err != nil {
		_ = f.Close()
		return fmt.Errorf("offsetio: seek %s: %w", s.files[idx].Path, err)
	}
	adviseSequential(f)
	if s.file != nil {
		_ = s.file.Close()
	}
	s.file = f
	s.fileIndex = idx
	s.br = bufio.NewReaderSize(f, BufferSize)
	s.pos = pos
	return nil
}

// Seek repositions the Stream at global offset pos, opening a different
// file only when pos falls outside the one currently held open.
func (s *Stream) Seek(pos uint64) error {
	fi := s.files[s.fileIndex]
	if pos >= fi.Start && pos <= fi.End {
		if _, err := s.file.Seek(int64(pos-fi.Start), io.SeekStart); err != nil {
			return fmt.Errorf("offsetio: seek %s: %w", fi.Path, err)
		}
		s.br.Reset(s.file)
		s.pos = pos
		return nil
	}
	return s.openAt(findFileIndex(s.files, pos), pos)
}

// ReadLine appends one \n-terminated line (the terminator included) to
// *buf and returns the number of bytes appended. On exhausting the
// current file it transparently advances to the next one and retries;
// it returns 0 once the file list itself is exhausted.
func (s *Stream) ReadLine(buf *[]byte) (int, error) {
	for {
		data, err := s.br.ReadBytes('\n')
		if len(data) > 0 {
			*buf = append(*buf, data...)
			s.pos += uint64(len(data))
			return len(data), nil
		}
		if err == nil {
			return 0, nil
		}
		if err != io.EOF {
			return 0, fmt.Errorf("offsetio: read %s: %w", s.files[s.fileIndex].Path, err)
		}
		if s.fileIndex+1 >= len(s.files) {
			return 0, nil
		}
		if err := s.openAt(s.fileIndex+1, s.pos); err != nil {
			return 0, err
		}
	}
}

// Read fills buf with exactly len(buf) bytes drawn across file
// boundaries as needed, or fewer if the file list is exhausted first.
func (s *Stream) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := s.br.Read(buf[total:])
		total += n
		s.pos += uint64(n)
		if err == nil {
			continue
		}
		if err != io.EOF {
			return total, fmt.Errorf("offsetio: read %s: %w", s.files[s.fileIndex].Path, err)
		}
		if s.fileIndex+1 >= len(s.files) {
			return total, nil
		}
		if err := s.openAt(s.fileIndex+1, s.pos); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Clone returns an independent Stream over the same file list, with its
// own file handle positioned at this Stream's current offset.
func (s *Stream) Clone() (*Stream, error) {
	return Open(s.files, s.pos)
}

// Close releases the currently open file handle.
func (s *Stream) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
