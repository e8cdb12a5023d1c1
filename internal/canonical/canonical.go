// Package canonical produces deterministic SHA-256 digests of record field
// sets. The encoding is sorted-key JSON with every value reduced to a stable
// form: times as RFC 3339 UTC with nanoseconds, floats in their shortest
// round-trippable decimal form, nested maps and slices recursed. Two
// structurally equal inputs always digest identically regardless of how they
// were built in memory.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Encodable is the capability a record exposes to be hashed: a fixed,
// versioned field set. Implementations must return the same keys and values
// for the same record every time.
type Encodable interface {
	CanonicalFields() map[string]any
}

// ErrEncoding reports a value that has no canonical representation, such as a
// NaN or infinite float. It is a programming or input-shape defect, never
// retried.
var ErrEncoding = errors.New("canonical: value cannot be canonically encoded")

// Digest computes the hex-encoded SHA-256 of a record's canonical form.
func Digest(e Encodable) (string, error) {
	return DigestFields(e.CanonicalFields())
}

// DigestFields computes the digest of an explicit field map. Used directly
// for synthetic field sets such as the link binding of a chain transaction.
func DigestFields(fields map[string]any) (string, error) {
	normalized, err := normalizeMap(fields)
	if err != nil {
		return "", err
	}
	// encoding/json writes map keys in sorted order, which is exactly the
	// canonical ordering contract.
	raw, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func normalizeMap(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		normalized, err := normalizeValue(key, value)
		if err != nil {
			return nil, err
		}
		out[key] = normalized
	}
	return out, nil
}

func normalizeValue(path string, value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string, bool, int, int32, int64, uint, uint32, uint64:
		return v, nil
	case float64:
		return normalizeFloat(path, v)
	case float32:
		return normalizeFloat(path, float64(v))
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), nil
	case uuid.UUID:
		return v.String(), nil
	case map[string]any:
		return normalizeMap(v)
	case []string:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			normalized, err := normalizeValue(fmt.Sprintf("%s[%d]", path, i), item)
			if err != nil {
				return nil, err
			}
			out[i] = normalized
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: field %q has unsupported type %T", ErrEncoding, path, value)
	}
}

func normalizeFloat(path string, f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: field %q is not a finite number", ErrEncoding, path)
	}
	return f, nil
}
