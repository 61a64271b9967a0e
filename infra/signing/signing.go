// Package signing implements the HMAC-SHA256 signed-field protocol used by
// redirect-form gateways such as eSewa.
//
// A signer declares an ordered list of field names, joins them as
// name1=value1,name2=value2 and signs that string with a shared secret.
// The verifier must rebuild the string in the order the signer declared.
package signing

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSignatureMismatch reports a signature that does not match its fields
	ErrSignatureMismatch = errors.New("signature mismatch")
	// ErrMissingSignature reports a payload without signature or signed field names
	ErrMissingSignature = errors.New("missing signature")
)

// ParseFieldNames splits a comma separated list, dropping blanks
func ParseFieldNames(names string) []string {
	parts := strings.Split(names, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinFieldNames renders names the way they travel on the wire
func JoinFieldNames(names []string) string {
	return strings.Join(names, ",")
}

// BuildSignedFieldString builds the canonical message. Missing fields render as empty values.
func BuildSignedFieldString(fields map[string]any, names []string) string {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(stringify(fields[name]))
	}
	return b.String()
}

// Sign returns base64(HMAC-SHA256(secret, message))
func Sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature of message and compares it in constant time
func Verify(secret, message, signature string) bool {
	expected := []byte(Sign(secret, message))
	given := []byte(signature)
	if len(expected) != len(given) {
		return false
	}
	return hmac.Equal(expected, given)
}

// SignFields signs fields over names
func SignFields(secret string, fields map[string]any, names []string) string {
	return Sign(secret, BuildSignedFieldString(fields, names))
}

// VerifyDocument checks a decoded document that carries its own
// signed_field_names and signature.
func VerifyDocument(secret string, doc map[string]any) error {
	names := ParseFieldNames(stringify(doc["signed_field_names"]))
	signature := stringify(doc["signature"])
	if len(names) == 0 || signature == "" {
		return ErrMissingSignature
	}
	if !Verify(secret, BuildSignedFieldString(doc, names), signature) {
		return ErrSignatureMismatch
	}
	return nil
}

// DecodeBase64JSON decodes a base64 encoded JSON object.
// Numbers are kept as json.Number so they re-render exactly as the signer sent them.
func DecodeBase64JSON(encoded string) (map[string]any, error) {
	raw, err := decodeBase64(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("signing: decode base64: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("signing: decode json: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("signing: decoded payload is not an object")
	}
	return doc, nil
}

// decodeBase64 accepts padded, unpadded and URL-safe input
func decodeBase64(encoded string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		raw, err := enc.DecodeString(encoded)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// EncodeBase64JSON is the inverse of DecodeBase64JSON
func EncodeBase64JSON(doc map[string]any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("signing: encode json: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
