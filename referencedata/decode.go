package referencedata

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText returns b as UTF-8 text. Input that is not valid UTF-8 is
// assumed to be ISO-8859-1, which is what older scanners and pharmacy
// exports tend to produce.
func DecodeText(b []byte) (string, error) {
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	if utf8.Valid(b) {
		return string(b), nil
	}

	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(b)))
	if err != nil {
		return "", fmt.Errorf("failed to decode ISO-8859-1 text: %w", err)
	}
	return string(decoded), nil
}
