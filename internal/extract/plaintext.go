package extract

import (
	"errors"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodePlainText returns the file content as-is. Content must be valid UTF-8.
func decodePlainText(data []byte) (string, error) {
	data = trimBOM(data)
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8")
	}
	return string(data), nil
}
