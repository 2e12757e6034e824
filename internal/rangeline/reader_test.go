package rangeline

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edulix/pjoin/internal/offsetio"
)

func writeFiles(t *testing.T, spec string) []string {
	t.Helper()
	dir := t.TempDir()
	parts := strings.Split(spec, "|")
	paths := make([]string, len(parts))
	for i, p := range parts {
		path := filepath.Join(dir, strconv.Itoa(i))
		var sb strings.Builder
		for _, line := range strings.Split(p, ",") {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
		paths[i] = path
	}
	return paths
}

// assertReaderDelivers consumes r fully and checks it produced exactly
// the comma-separated lines in want, that it then reports EOF, and that
// PeekLastLine, called once the reader is exhausted, agrees with the
// last line delivered.
func assertReaderDelivers(t *testing.T, r *Reader, want string) {
	t.Helper()
	expectedLast := ""
	for _, line := range strings.Split(want, ",") {
		expectedLast = line
		var buf []byte
		n, err := r.ReadLine(&buf)
		require.NoError(t, err)
		require.Equal(t, line+"\n", string(buf))
		require.Equal(t, len(line)+1, n)
	}
	var buf []byte
	n, err := r.ReadLine(&buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	last, err := r.PeekLastLine()
	require.NoError(t, err)
	require.Equal(t, expectedLast, last)
}

func testPartitioning(t *testing.T, input, output string) {
	t.Helper()
	files := writeFiles(t, input)
	infos, err := offsetio.BuildFileInfos(files)
	require.NoError(t, err)

	outputs := strings.Split(output, "|")
	readers, err := OpenPartitions(infos, uint64(len(outputs)))
	require.NoError(t, err)
	require.Len(t, readers, len(outputs))

	for i, want := range outputs {
		assertReaderDelivers(t, readers[i], want)
	}
}

func TestByteRangePartitioning(t *testing.T) {
	cases := []struct{ input, output string }{
		{
			"0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16",
			"0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16",
		},
		{"0,1,2,3,4,5", "0,1,2,3|4,5"},
		{"0,1,2|3,4,5", "0,1,2,3|4,5"},
		{"0,1,2,3,4|5", "0,1,2,3|4,5"},
		{"0,1|2,3,4|5", "0,1,2,3|4,5"},
		{"0,1,2,3,4,5,6", "0,1,2,3|4,5,6"},
		{"0,1,2,3,4,5,6,7", "0,1,2,3,4|5,6,7"},
		{"0,1,2,3,4,5,6,7,8", "0,1,2,3,4|5,6,7,8"},
		{"0,1,2,3,4,5,6,7,8,9", "0,1,2,3,4,5|6,7,8,9"},
		{
			"0,1,2|3|4,5,6|7,8,9,10|11,12,13,14,15,16",
			"0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16",
		},
	}
	for _, c := range cases {
		c := c
		t.Run(c.input, func(t *testing.T) {
			testPartitioning(t, c.input, c.output)
		})
	}
}

func TestLastLineIsIdempotent(t *testing.T) {
	files := writeFiles(t, "0,1,2,3,4,5")
	infos, err := offsetio.BuildFileInfos(files)
	require.NoError(t, err)

	readers, err := OpenPartitions(infos, 1)
	require.NoError(t, err)
	r := readers[0]

	var buf []byte
	_, err = r.ReadLine(&buf)
	require.NoError(t, err)
	require.Equal(t, "0\n", string(buf))

	buf = buf[:0]
	_, err = r.ReadLine(&buf)
	require.NoError(t, err)
	require.Equal(t, "1\n", string(buf))

	last, err := r.PeekLastLine()
	require.NoError(t, err)
	require.Equal(t, "5", last)

	// Reading on afterwards is unaffected by the peek.
	buf = buf[:0]
	_, err = r.ReadLine(&buf)
	require.NoError(t, err)
	require.Equal(t, "2\n", string(buf))

	last2, err := r.PeekLastLine()
	require.NoError(t, err)
	require.Equal(t, last, last2)
}
