package application

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims holds what the sync services need from a ledger access token
type TokenClaims struct {
	ExpiresAt *time.Time
	TenantID  *int64
}

var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeTokenClaims reads exp and tenantId from the payload segment without verifying the signature.
// The issuer is trusted. Any decoding problem yields empty claims, since the token may still be
// accepted by the ledger even when it cannot be parsed locally.
func DecodeTokenClaims(token string) TokenClaims {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return TokenClaims{}
	}
	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return TokenClaims{}
	}

	claims := jwt.MapClaims{}
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	if err := decoder.Decode(&claims); err != nil {
		return TokenClaims{}
	}

	var result TokenClaims
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt := exp.Time.UTC()
		result.ExpiresAt = &expiresAt
	}
	if tenantID, ok := int64Claim(claims["tenantId"]); ok {
		result.TenantID = &tenantID
	}
	return result
}

func int64Claim(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return int64(f), true
		}
	case float64:
		return int64(v), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}
