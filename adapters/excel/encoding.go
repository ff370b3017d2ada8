package excel

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"evdash/internal/errors"

	"golang.org/x/text/encoding/korean"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText converts CSV bytes to UTF-8. Korean public datasets are commonly
// published as CP949; x/text's EUC-KR decoder accepts the CP949 extensions.
func decodeText(data []byte, encoding string) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	switch strings.ToLower(encoding) {
	case "", "auto":
		if utf8.Valid(data) {
			return data, "utf-8", nil
		}
		decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
		if err != nil {
			return nil, "", errors.ParseError("failed to decode file as UTF-8 or CP949", err)
		}
		return decoded, "cp949", nil
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return nil, "", errors.ParseError("file is not valid UTF-8 (set ENCODING=cp949 for Korean encoded files)", nil)
		}
		return data, "utf-8", nil
	case "euc-kr", "euckr", "cp949":
		decoded, err := korean.EUCKR.NewDecoder().Bytes(data)
		if err != nil {
			return nil, "", errors.ParseError("failed to decode file as CP949", err)
		}
		return decoded, "cp949", nil
	default:
		return nil, "", errors.InvalidInput("unsupported encoding: " + encoding)
	}
}
