package util

import (
	"encoding/base64"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// ShortUUID generates a short UUID with 22 symbols
func ShortUUID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:]) // 22 symbols
}

// NewFeatureID generates the identity of a committed feature (UUID v4)
func NewFeatureID() string {
	return uuid.NewString()
}

// FeatureID returns the identity of a feature as a string, "" when unset.
// Identities read back from GeoJSON documents may be numbers.
func FeatureID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return formatNumberID(v)
	case int:
		return formatNumberID(float64(v))
	case int64:
		return formatNumberID(float64(v))
	default:
		return ""
	}
}

func formatNumberID(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
