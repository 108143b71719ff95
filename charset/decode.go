package charset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
)

// Lookup returns the decoder side of an encoding name. The name is resolved
// like detector clues, and looked up as given when its alias target is not
// decodable.
func Lookup(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	candidates := []string{name}
	if resolved, ok := Resolve(name); ok {
		candidates = []string{resolved, name}
	}
	// vendor prefixed alias targets, like x-windows-949, are registered
	// without the prefix
	if trimmed, ok := strings.CutPrefix(strings.ToLower(candidates[0]), "x-"); ok {
		candidates = append(candidates, trimmed)
	}
	for _, candidate := range candidates {
		if u, ok := utf32Encodings[strings.ToLower(candidate)]; ok {
			return u.encoding, nil
		}
		if enc, err := htmlindex.Get(candidate); err == nil {
			return enc, nil
		}
		if enc, err := ianaindex.IANA.Encoding(candidate); err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("unsupported encoding %q", name)
}

// Decode converts data in the named encoding to a UTF-8 string. Invalid
// sequences are replaced rather than rejected.
func Decode(data []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), nil
}
