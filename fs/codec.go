package fs

import (
	"bufio"
	"bytes"
	"fmt"
	"hash/crc32"
	"sort"
	"strings"

	"github.com/sharedcode/tableconfig/internal/errs"
)

// ChecksumKey is the reserved key whose value carries the integrity digest
// over every other entry (SPEC_FULL.md §5.1).
const ChecksumKey = "checksum"

// checksum computes the CRC32 digest over the deterministic form of a
// TableConfig's entries: ascending key order, UTF-8, "\n"-separated
// "key=value" lines, excluding the checksum key itself. This is the same
// algorithm (hash/crc32, IEEE polynomial) the teacher's marshalData uses
// over binary blocks, applied here to the canonical textual form instead.
func checksum(entries map[string]string) uint32 {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		if k == ChecksumKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(entries[k])
		buf.WriteByte('\n')
	}
	return crc32.ChecksumIEEE(buf.Bytes())
}

// escapeValue backslash-escapes newlines and backslashes so a value cannot
// smuggle an extra "key=value" line into the file.
func escapeValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	return v
}

func unescapeValue(v string) string {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		if v[i] == '\\' && i+1 < len(v) {
			switch v[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(v[i])
	}
	return b.String()
}

// Encode serializes entries to the canonical line-oriented property format:
// one "key=value" line per non-reserved-for-checksum entry in ascending key
// order, followed by a trailing "checksum=<digest>" line. Write order need
// not match digest order in general, but using the same sorted order for
// both keeps the format trivially diffable.
func Encode(entries map[string]string) []byte {
	sum := checksum(entries)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		if k == ChecksumKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(escapeValue(entries[k]))
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "%s=%08x\n", ChecksumKey, sum)
	return buf.Bytes()
}

// Decode parses the canonical property format and validates its checksum
// envelope. A missing checksum line, a malformed "key=value" line, or a
// digest mismatch all fail with tableconfig.InvalidConfig — never silently.
func Decode(data []byte) (map[string]string, error) {
	entries := make(map[string]string)
	var sumText string
	haveSum := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		i := strings.IndexByte(line, '=')
		if i < 0 {
			return nil, errs.Error{Code: errs.InvalidConfig,
				Err: fmt.Errorf("malformed property line %q", line)}
		}
		key := line[:i]
		value := unescapeValue(line[i+1:])
		if key == ChecksumKey {
			sumText = value
			haveSum = true
			continue
		}
		entries[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Error{Code: errs.InvalidConfig, Err: err}
	}
	if !haveSum {
		return nil, errs.Error{Code: errs.InvalidConfig,
			Err: fmt.Errorf("missing %s entry", ChecksumKey)}
	}

	var want uint32
	if _, err := fmt.Sscanf(sumText, "%08x", &want); err != nil {
		return nil, errs.Error{Code: errs.InvalidConfig,
			Err: fmt.Errorf("malformed %s value %q", ChecksumKey, sumText)}
	}
	if got := checksum(entries); got != want {
		return nil, errs.Error{Code: errs.InvalidConfig,
			Err: fmt.Errorf("checksum mismatch: file has %08x, computed %08x", want, got)}
	}
	return entries, nil
}
