package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	entries := map[string]string{
		KeyName:             "orders",
		KeyPrecombineField:  "ts",
		KeyArchivelogFolder: "archive",
		KeyTableType:        "COPY_ON_WRITE",
		KeyPartitionFields:  "region,day",
	}
	data := Encode(entries)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestEncodeDeterministicOrder(t *testing.T) {
	entries := map[string]string{"b": "2", "a": "1", "c": "3"}
	first := Encode(entries)
	second := Encode(entries)
	assert.Equal(t, first, second)
}

func TestEncodeEscapesNewlinesAndBackslashes(t *testing.T) {
	entries := map[string]string{"note": "line1\\nline2\\actual\\newline:\n"}
	got, err := Decode(Encode(entries))
	require.NoError(t, err)
	assert.Equal(t, entries["note"], got["note"])
}

func TestDecodeRejectsTamperedPayload(t *testing.T) {
	data := Encode(map[string]string{"name": "orders"})
	data = append([]byte(nil), data...)
	data[0] = 'x' // corrupt the first key byte without touching the checksum line
	_, err := Decode(data)
	require.Error(t, err)

	var e interface{ Error() string }
	require.ErrorAs(t, err, &e)
}

func TestDecodeRejectsMissingChecksum(t *testing.T) {
	_, err := Decode([]byte("name=orders\n"))
	require.Error(t, err)
}

func TestDecodeRejectsMalformedLine(t *testing.T) {
	_, err := Decode([]byte("not-a-key-value-line\nchecksum=00000000\n"))
	require.Error(t, err)
}

func TestDecodeSkipsBlankAndCommentLines(t *testing.T) {
	entries := map[string]string{"name": "orders"}
	data := Encode(entries)
	withComments := append([]byte("# a header comment\n\n"), data...)
	got, err := Decode(withComments)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
