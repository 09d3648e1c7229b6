package edifact

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var ErrCharset = errors.New("unsupported character set")

// syntaxEncodings maps syntax identifiers (0001) to their character
// repertoire. UNOA and UNOB are subsets of ASCII.
var syntaxEncodings = map[string]encoding.Encoding{
	"UNOA": encoding.Nop,
	"UNOB": encoding.Nop,
	"UNOC": charmap.ISO8859_1,
	"UNOD": charmap.ISO8859_2,
	"UNOE": charmap.ISO8859_5,
	"UNOF": charmap.ISO8859_7,
	"UNOW": unicode.UTF8,
	"UNOY": unicode.UTF8,
}

func syntaxEncoding(syntaxID string) (encoding.Encoding, error) {
	enc, ok := syntaxEncodings[syntaxID]
	if !ok {
		return nil, fmt.Errorf("%w: syntax identifier '%s'", ErrCharset, syntaxID)
	}
	return enc, nil
}

// encodeText encodes UTF-8 text with the character set of the given
// syntax identifier. Characters outside the repertoire are an error.
func encodeText(text string, syntaxID string) ([]byte, error) {
	enc, err := syntaxEncoding(syntaxID)
	if err != nil {
		return nil, err
	}
	if enc == encoding.Nop {
		for i := 0; i < len(text); i++ {
			if text[i] >= utf8.RuneSelf {
				return nil, fmt.Errorf(
					"%w: non-ASCII character at byte %d for syntax '%s'",
					ErrCharset, i, syntaxID,
				)
			}
		}
		return []byte(text), nil
	}
	data, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCharset, err)
	}
	return data, nil
}

// decodeText decodes raw interchange bytes to UTF-8 text, using the
// syntax identifier found in UNB. Unknown identifiers are read as UTF-8.
func decodeText(data []byte, syntaxID string) (string, error) {
	enc, err := syntaxEncoding(syntaxID)
	if err != nil || enc == encoding.Nop || enc == unicode.UTF8 {
		if !utf8.Valid(data) {
			return "", fmt.Errorf(
				"%w: message text is not valid UTF-8 (syntax '%s')",
				ErrCharset, syntaxID,
			)
		}
		return string(data), nil
	}
	text, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCharset, err)
	}
	return string(text), nil
}

// sniffSyntaxID returns the syntax identifier from the start of the
// UNB segment, ex: `UNB+UNOC:3+...` returns UNOC. The envelope prefix
// is always within the basic character set, so no decoding is needed.
func sniffSyntaxID(data []byte, d Delimiters) string {
	data = bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(data, []byte(unaSegmentId)) && len(data) >= unaLength {
		data = bytes.TrimLeft(data[unaLength:], " \t\r\n")
	}
	prefix := []byte(unbSegmentId + string(d.Element))
	if !bytes.HasPrefix(data, prefix) {
		return ""
	}
	data = data[len(prefix):]
	end := bytes.IndexFunc(data, func(r rune) bool {
		return r == d.Component || r == d.Element || r == d.Segment
	})
	if end < 0 {
		return ""
	}
	return string(data[:end])
}
