// Package offsetio exposes an ordered list of files as one concatenated,
// seekable, line-oriented byte stream addressed by global offsets.
package offsetio

import (
	"fmt"
	"os"
	"sort"
)

// BufferSize is the working-set size assumed by callers that peek at the
// tail of the stream (the range reader's last-line lookup and the key
// locator's initial bounds). The final line of the final file must fit
// within it.
const BufferSize = 16384

// FileInfo is a file's path plus its [Start, End) window in the logical
// concatenation of the file list it belongs to.
type FileInfo struct {
	Path  string
	Start uint64
	End   uint64
}

// BuildFileInfos stats each path once, in order, and returns the
// contiguous offset table used to translate a global offset into a
// (file, in-file offset) pair. Files are assumed immutable for the
// duration of the run.
func BuildFileInfos(paths []string) ([]FileInfo, error) {
	infos := make([]FileInfo, 0, len(paths))
	var cursor uint64
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("offsetio: stat %s: %w", p, err)
		}
		size := uint64(st.Size())
		infos = append(infos, FileInfo{Path: p, Start: cursor, End: cursor + size})
		cursor += size
	}
	return infos, nil
}

// TotalLength returns the length of the logical concatenation described
// by infos.
func TotalLength(infos []FileInfo) uint64 {
	if len(infos) == 0 {
		return 0
	}
	return infos[len(infos)-1].End
}

// findFileIndex returns the index of the file containing pos. When pos
// equals the total length (the stream is exactly at EOF), it clamps to
// the last file, mirroring the tolerance required of Seek and Clone at
// that boundary.
func findFileIndex(infos []FileInfo, pos uint64) int {
	idx := sort.Search(len(infos), func(i int) bool { return infos[i].End > pos })
	if idx == len(infos) {
		return len(infos) - 1
	}
	return idx
}
