// Package charset resolves the candidate text encodings a markdown file may
// have been saved in and decodes raw bytes strictly: a candidate either
// yields the exact text the bytes encode or reports an error, it never
// papers over bad input with replacement characters.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var (
	// ErrUnknownEncoding is returned by Lookup for names it does not recognise.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrInvalidSequence is returned when bytes are not valid in an encoding.
	ErrInvalidSequence = errors.New("invalid byte sequence")
)

// Encoding is a named candidate encoding.
type Encoding struct {
	Name  string
	codec encoding.Encoding // nil means UTF-8
	holes []byte            // bytes the code page leaves undefined
}

// cp1252 leaves five code points unassigned; x/text maps them to C1 controls.
var cp1252Holes = []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

var (
	utf8Enc    = Encoding{Name: "utf-8"}
	latin1Enc  = Encoding{Name: "latin1", codec: charmap.ISO8859_1}
	cp1252Enc  = Encoding{Name: "cp1252", codec: charmap.Windows1252, holes: cp1252Holes}
	gbkEnc     = Encoding{Name: "gbk", codec: simplifiedchinese.GBK}
	gb2312Enc  = Encoding{Name: "gb2312", codec: simplifiedchinese.GBK}
	gb18030Enc = Encoding{Name: "gb18030", codec: simplifiedchinese.GB18030}
)

var aliases = map[string]Encoding{
	"utf-8":        utf8Enc,
	"utf8":         utf8Enc,
	"latin1":       latin1Enc,
	"latin-1":      latin1Enc,
	"iso-8859-1":   latin1Enc,
	"iso8859-1":    latin1Enc,
	"l1":           latin1Enc,
	"cp1252":       cp1252Enc,
	"windows-1252": cp1252Enc,
	"gbk":          gbkEnc,
	"cp936":        gbkEnc,
	"gb2312":       gb2312Enc,
	"euc-cn":       gb2312Enc,
	"gb18030":      gb18030Enc,
}

// Lookup resolves an encoding name. Matching ignores case, surrounding space
// and the underscore/hyphen distinction.
func Lookup(name string) (Encoding, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	enc, ok := aliases[key]
	if !ok {
		return Encoding{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Decode converts data to a UTF-8 string, failing on any byte the encoding
// cannot represent.
func (e Encoding) Decode(data []byte) (string, error) {
	if e.codec == nil {
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: %w", e.Name, ErrInvalidSequence)
		}
		return string(data), nil
	}
	for _, h := range e.holes {
		if bytes.IndexByte(data, h) >= 0 {
			return "", fmt.Errorf("%s: %w", e.Name, ErrInvalidSequence)
		}
	}
	out, err := e.codec.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.Name, err)
	}
	// x/text substitutes U+FFFD for malformed input instead of failing
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("%s: %w", e.Name, ErrInvalidSequence)
	}
	back, _, err := transform.Bytes(e.codec.NewEncoder(), out)
	if err != nil || !bytes.Equal(back, data) {
		return "", fmt.Errorf("%s: %w", e.Name, ErrInvalidSequence)
	}
	return string(out), nil
}
