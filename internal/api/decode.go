package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// flexInt accepts a JSON number, a numeric string, or null.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = flexInt{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = flexInt{}
			return nil
		}
		data = []byte(s)
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Accept integral floats such as 3.0.
		fl, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil || fl != float64(int64(fl)) {
			return fmt.Errorf("not an integer: %s", data)
		}
		n = int64(fl)
	}
	*f = flexInt{Value: n, Set: true}
	return nil
}

// flexBool accepts a JSON bool, 0/1, or "true"/"false".
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch strings.ToLower(strings.Trim(string(data), `"`)) {
	case "true", "1":
		*b = true
	case "false", "0", "", "null":
		*b = false
	default:
		return fmt.Errorf("not a boolean: %s", data)
	}
	return nil
}

var errMissingField = errors.New("missing required field")

// decodeList decodes a JSON array whose elements are either objects or
// strings holding a JSON object. Elements that do not decode or that fail
// validate are logged and skipped; only a malformed top-level value is an
// error.
func decodeList[T any](raw []byte, validate func(*T) error, log *logrus.Entry) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decoding list: %w", err)
	}

	out := make([]T, 0, len(elems))
	for i, elem := range elems {
		v, err := decodeElement[T](elem)
		if err == nil && validate != nil {
			err = validate(&v)
		}
		if err != nil {
			log.WithError(err).WithField("index", i).Warn("skipping malformed entry")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// decodeElement decodes one list element, unwrapping a JSON-encoded string.
func decodeElement[T any](elem json.RawMessage) (T, error) {
	var v T
	elem = bytes.TrimSpace(elem)
	if len(elem) > 0 && elem[0] == '"' {
		var inner string
		if err := json.Unmarshal(elem, &inner); err != nil {
			return v, err
		}
		elem = json.RawMessage(inner)
	}
	if len(elem) == 0 || elem[0] != '{' {
		return v, fmt.Errorf("expected an object, got %.20q", string(elem))
	}
	if err := json.Unmarshal(elem, &v); err != nil {
		return v, err
	}
	return v, nil
}
