package importer

import (
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/asthma-connect/clinic/errors"
)

var delimiters = []rune{'\t', ';', ','}

// ReadDelimited reads comma, semicolon or tab separated text
func ReadDelimited(data []byte) ([][]string, error) {
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = SniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse delimited file: %w", errors.BadRequest, err)
	}
	return table, nil
}

// DecodeText converts the encodings exported by Thai hospital systems to UTF-8.
// Input that is neither UTF-16 with a byte order mark nor valid UTF-8 is read as Windows-874 (TIS-620).
func DecodeText(data []byte) (string, error) {
	switch {
	case hasPrefix(data, 0xEF, 0xBB, 0xBF):
		return string(data[3:]), nil
	case hasPrefix(data, 0xFF, 0xFE), hasPrefix(data, 0xFE, 0xFF):
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("%w: invalid utf-16 text: %w", errors.BadRequest, err)
		}
		return string(decoded), nil
	case utf8.Valid(data):
		return string(data), nil
	}

	decoded, err := charmap.Windows874.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: unable to decode text: %w", errors.BadRequest, err)
	}
	return string(decoded), nil
}

// SniffDelimiter picks the delimiter occurring most often in the header line, comma by default
func SniffDelimiter(text string) rune {
	header, _, _ := strings.Cut(text, "\n")
	best, count := ',', 0
	for _, d := range delimiters {
		if c := strings.Count(header, string(d)); c > count {
			best, count = d, c
		}
	}
	return best
}
