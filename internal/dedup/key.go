package dedup

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Request describes an outbound call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   any
}

// Key identifies logically identical requests. Two requests share a key when
// method, URL, headers and body are equal after canonicalization: header
// names are case-folded and sorted, and the JSON body is re-encoded with
// object keys in sorted order.
type Key struct {
	Method string
	URL    string
	Digest string
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s#%s", k.Method, k.URL, k.Digest)
}

// KeyFor returns the dedup key for req together with the canonical body bytes
// that will be sent on the wire.
func KeyFor(req Request) (Key, []byte, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	payload, err := canonicalBody(req.Body)
	if err != nil {
		return Key{}, nil, err
	}

	h := sha256.New()
	h.Write([]byte(canonicalHeader(req.Header)))
	h.Write([]byte{0})
	h.Write(payload)
	sum := h.Sum(nil)

	return Key{
		Method: method,
		URL:    req.URL,
		Digest: hex.EncodeToString(sum[:8]),
	}, payload, nil
}

// canonicalBody round-trips the body through a generic value so maps and
// structs with the same fields encode identically; encoding/json sorts map
// keys.
func canonicalBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	var raw []byte
	switch b := body.(type) {
	case []byte:
		raw = b
	case json.RawMessage:
		raw = b
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("dedup: failed to encode body: %w", err)
		}
		raw = encoded
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("dedup: body is not valid JSON: %w", err)
	}

	out, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("dedup: failed to canonicalize body: %w", err)
	}
	return out, nil
}

// canonicalHeader reads the map directly rather than through Header.Values,
// so keys that were set without canonicalization still count.
func canonicalHeader(h http.Header) string {
	if len(h) == 0 {
		return ""
	}

	keys := make([]string, 0, len(h))
	for name := range h {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	folded := make(map[string][]string, len(h))
	names := make([]string, 0, len(h))
	for _, name := range keys {
		lower := strings.ToLower(name)
		if _, seen := folded[lower]; !seen {
			names = append(names, lower)
		}
		folded[lower] = append(folded[lower], h[name]...)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteByte(':')
		sb.WriteString(strings.Join(folded[name], ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}
