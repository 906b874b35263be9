package process

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/kbukum/prockit/errors"
)

// resolveDecoder looks up the charset by its WHATWG label. UTF-8 and the
// empty label return a nil decoder, meaning bytes pass through unchanged.
func resolveDecoder(charset string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf8", "utf-8":
		return nil, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, errors.InvalidInput("encoding", "unknown charset "+charset).WithCause(err)
	}
	return enc.NewDecoder(), nil
}

func decode(dec *encoding.Decoder, b []byte) (string, error) {
	if dec == nil {
		return string(b), nil
	}
	out, err := dec.Bytes(b)
	if err != nil {
		return "", errors.Internal(err)
	}
	return string(out), nil
}
