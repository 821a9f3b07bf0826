// Package sniff detects the encoding and delimiter of delimited text files.
package sniff

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// Encoding identifies a text file encoding detected from its byte order mark.
type Encoding string

const (
	EncUTF8    Encoding = "utf-8"
	EncUTF8Sig Encoding = "utf-8-sig"
	EncUTF16LE Encoding = "utf-16-le"
	EncUTF16BE Encoding = "utf-16-be"
	EncUTF32LE Encoding = "utf-32-le"
	EncUTF32BE Encoding = "utf-32-be"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
)

// DetectEncoding inspects the leading bytes for a byte order mark and returns
// the detected encoding plus the BOM length. UTF-32 LE is checked before
// UTF-16 LE because the shorter mark is a prefix of the longer one. Files
// without a mark are treated as plain UTF-8.
func DetectEncoding(head []byte) (Encoding, int) {
	switch {
	case bytes.HasPrefix(head, bomUTF32LE):
		return EncUTF32LE, 4
	case bytes.HasPrefix(head, bomUTF32BE):
		return EncUTF32BE, 4
	case bytes.HasPrefix(head, bomUTF8):
		return EncUTF8Sig, 3
	case bytes.HasPrefix(head, bomUTF16LE):
		return EncUTF16LE, 2
	case bytes.HasPrefix(head, bomUTF16BE):
		return EncUTF16BE, 2
	default:
		return EncUTF8, 0
	}
}

// DetectFileEncoding reads the first bytes of path and detects its encoding.
func DetectFileEncoding(path string) (Encoding, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return EncUTF8, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, 4)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return EncUTF8, fmt.Errorf("read %s: %w", path, err)
	}
	enc, _ := DetectEncoding(head[:n])
	return enc, nil
}

// textEncoding returns the x/text codec for e. Plain UTF-8 needs no codec.
func (e Encoding) textEncoding() encoding.Encoding {
	switch e {
	case EncUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case EncUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case EncUTF32LE:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM)
	case EncUTF32BE:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM)
	default:
		return nil
	}
}

// NewReader wraps r so that reads yield UTF-8 text with any byte order mark
// stripped, regardless of the source encoding.
func (e Encoding) NewReader(r io.Reader) io.Reader {
	if enc := e.textEncoding(); enc != nil {
		return enc.NewDecoder().Reader(r)
	}
	if e == EncUTF8Sig {
		return &bomStripReader{r: r}
	}
	return r
}

// NewWriter wraps w so that UTF-8 text written to it is stored in encoding e,
// re-emitting the byte order mark the source file carried.
func (e Encoding) NewWriter(w io.Writer) io.Writer {
	if enc := e.textEncoding(); enc != nil {
		return enc.NewEncoder().Writer(w)
	}
	if e == EncUTF8Sig {
		return &bomPrefixWriter{w: w}
	}
	return w
}

// DuckDBName returns the encoding name DuckDB's read_csv accepts, or "" when
// the file must be transcoded before DuckDB can read it.
func (e Encoding) DuckDBName() string {
	switch e {
	case EncUTF8, EncUTF8Sig:
		return "utf-8"
	case EncUTF16LE:
		return "utf-16"
	default:
		return ""
	}
}

type bomStripReader struct {
	r       io.Reader
	started bool
}

func (b *bomStripReader) Read(p []byte) (int, error) {
	if !b.started {
		b.started = true
		head := make([]byte, 3)
		n, err := io.ReadFull(b.r, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return 0, err
		}
		rest := head[:n]
		if bytes.Equal(rest, bomUTF8) {
			rest = nil
		}
		if len(rest) > 0 {
			b.r = io.MultiReader(bytes.NewReader(rest), b.r)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			if len(rest) == 0 {
				return 0, io.EOF
			}
		}
	}
	return b.r.Read(p)
}

type bomPrefixWriter struct {
	w       io.Writer
	started bool
}

func (b *bomPrefixWriter) Write(p []byte) (int, error) {
	if !b.started {
		b.started = true
		if _, err := b.w.Write(bomUTF8); err != nil {
			return 0, err
		}
	}
	return b.w.Write(p)
}

// delimiter candidates in priority order for ties
var delimCandidates = []rune{',', ';', '\t', '|'}

// SniffDelimiter picks the most plausible field delimiter from a sample of
// the file's decoded text. Occurrences inside double-quoted fields do not
// count. At most the first 20 lines are considered. Falls back to comma.
func SniffDelimiter(sample string) rune {
	lines := strings.Split(sample, "\n")
	if len(lines) > 20 {
		lines = lines[:20]
	}

	counts := make(map[rune]int, len(delimCandidates))
	for _, line := range lines {
		inQuotes := false
		for _, r := range line {
			if r == '"' {
				inQuotes = !inQuotes
				continue
			}
			if inQuotes {
				continue
			}
			for _, c := range delimCandidates {
				if r == c {
					counts[c]++
					break
				}
			}
		}
	}

	best := ','
	bestCount := 0
	for _, c := range delimCandidates {
		if counts[c] > bestCount {
			best = c
			bestCount = counts[c]
		}
	}
	return best
}

// SniffFile detects both the encoding and the delimiter of a delimited file,
// decoding the sampled bytes before counting delimiters.
func SniffFile(path string) (Encoding, rune, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return EncUTF8, ',', fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	head := make([]byte, 64*1024)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return EncUTF8, ',', fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]

	enc, _ := DetectEncoding(head)
	decoded, err := io.ReadAll(enc.NewReader(bytes.NewReader(head)))
	if err != nil {
		// A truncated sample can split a multi-byte sequence. Sniff what
		// decoded cleanly.
		if len(decoded) == 0 {
			return enc, ',', nil
		}
	}
	return enc, SniffDelimiter(string(decoded)), nil
}
