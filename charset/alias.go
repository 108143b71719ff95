package charset

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode/utf32"
)

// aliases maps encodings that are often used to label documents written in a
// superset encoding to that superset. Keys are lower-case.
var aliases = map[string]string{
	"iso-8859-1": "windows-1252",
	"euc-kr":     "x-windows-949",
	"x-euc-cn":   "GB18030",
	"gbk":        "GB18030",
}

// utf32Encodings covers the UTF-32 forms chardet reports, which neither
// ianaindex nor htmlindex provide. Keys are lower-case.
var utf32Encodings = map[string]struct {
	name     string
	encoding encoding.Encoding
}{
	"utf-32":   {name: "UTF-32", encoding: utf32.UTF32(utf32.BigEndian, utf32.UseBOM)},
	"utf-32be": {name: "UTF-32BE", encoding: utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM)},
	"utf-32le": {name: "UTF-32LE", encoding: utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM)},
}

// Resolve canonicalizes an encoding name and applies the alias table.
// It reports false for names that are neither recognized nor aliased.
func Resolve(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	canonical, known := canonicalName(name)
	if !known {
		canonical = name
	}
	if alias, ok := aliases[strings.ToLower(canonical)]; ok {
		return alias, true
	}
	if !known {
		return "", false
	}
	return canonical, true
}

// canonicalName returns the preferred MIME name of a registered encoding,
// falling back to its IANA name.
func canonicalName(name string) (string, bool) {
	if u, ok := utf32Encodings[strings.ToLower(name)]; ok {
		return u.name, true
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(name)
		if err != nil {
			return "", false
		}
	}
	return encodingName(enc)
}

func encodingName(enc encoding.Encoding) (string, bool) {
	if n, err := ianaindex.MIME.Name(enc); err == nil && n != "" {
		return n, true
	}
	if n, err := ianaindex.IANA.Name(enc); err == nil && n != "" {
		return n, true
	}
	if n, err := htmlindex.Name(enc); err == nil && n != "" {
		return n, true
	}
	return "", false
}
