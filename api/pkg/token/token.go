package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openslot/openslot/api/pkg/types"
)

// Codec signs and verifies the opaque confirm/decline credentials carried in
// outbound notifications. Tokens are HS256 JWTs whose claims pin the tenant,
// entry, slot and action; possession of a valid token authorizes exactly one
// transition without further authentication.

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	jwt.RegisteredClaims
	TenantID string            `json:"tenant_id"`
	EntryID  string            `json:"entry_id"`
	SlotID   string            `json:"slot_id"`
	Action   types.TokenAction `json:"action"`
}

type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret not specified")
	}
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

func (c *Codec) Sign(tenantID, entryID, slotID string, action types.TokenAction, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   entryID,
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "openslot-waitlist",
		},
		TenantID: tenantID,
		EntryID:  entryID,
		SlotID:   slotID,
		Action:   action,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature and TTL and returns the claims. The caller still
// has to check the action and tenant against the request context.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TenantID == "" || claims.EntryID == "" || claims.SlotID == "" {
		return nil, ErrInvalidToken
	}
	switch claims.Action {
	case types.TokenActionConfirm, types.TokenActionDecline:
	default:
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Hash fingerprints a token pair for storage on the notification row; the
// raw tokens never touch the database.
func Hash(tokens ...string) string {
	h := sha256.New()
	for _, t := range tokens {
		h.Write([]byte(t))
	}
	return hex.EncodeToString(h.Sum(nil))
}
