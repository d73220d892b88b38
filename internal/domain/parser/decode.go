package parser

import (
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeInput strips a UTF-8 or UTF-16 byte order mark and transcodes
// UTF-16 input to UTF-8. Input without a BOM passes through unchanged.
func decodeInput(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// newXMLDecoder returns a decoder that honours the encoding declared in the
// XML prolog. UTF declarations are accepted as-is because decodeInput has
// already produced UTF-8.
func newXMLDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		if strings.HasPrefix(strings.ToLower(label), "utf") {
			return input, nil
		}
		enc, err := ianaindex.IANA.Encoding(label)
		if err != nil || enc == nil {
			return nil, fmt.Errorf("unsupported charset %q", label)
		}
		return enc.NewDecoder().Reader(input), nil
	}
	return d
}

// fingerprint identifies an issue independent of its line number so the
// same finding keeps its identity across report revisions.
func fingerprint(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
