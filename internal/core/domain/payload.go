package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mitchellh/copystructure"
)

// Payload is the opaque, arbitrarily nested state a subsystem hands to
// the coordinator. Nested values may be any JSON-encodable Go value:
// generic or typed maps and slices, structs and scalars.
type Payload map[string]any

// Clone returns a deep copy of the payload. Nested maps, slices and
// pointers of any element type are copied; channels and functions are
// shared.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	if c, err := copystructure.Copy(p); err == nil {
		if out, ok := c.(Payload); ok {
			return out
		}
	}
	return p.cloneGeneric()
}

// cloneGeneric copies the generic containers only. It backs Clone for
// values copystructure refuses.
func (p Payload) cloneGeneric() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Payload:
		return t.cloneGeneric()
	case map[string]any:
		return map[string]any(Payload(t).cloneGeneric())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Canonicalize returns the canonical encoding of p: compact JSON with
// map keys sorted at every nesting level and no HTML escaping.
func Canonicalize(p Payload) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, ErrPayloadEncoding.WithCause(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Fingerprint returns the lowercase hex SHA-256 digest of the canonical
// encoding of p.
func Fingerprint(p Payload) (string, error) {
	canonical, err := Canonicalize(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
