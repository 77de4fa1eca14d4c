// Package gateway is the HTTP front door: it authenticates a bearer JWT,
// sniffs the request body against the platform's closed set of JSON
// intents, forwards the decoded command to the dispatcher over L8, and
// relays the response back as JSON.
package gateway

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// claims is the token shape every bearer token must carry: sub is the
// tenant id, exp the standard expiry. The platform has no notion of roles
// finer than "authenticated tenant" — every verified caller acts as its own
// sub's tenant.
type claims struct {
	jwt.RegisteredClaims
}

// Authenticator verifies ES256-signed bearer tokens against one public key.
type Authenticator struct {
	pub *ecdsa.PublicKey
}

// NewAuthenticator parses a PEM-encoded EC public key, the JWT_PUB_KEY
// environment value, the same shape the token-issuing side signs with.
func NewAuthenticator(pemBytes string) (*Authenticator, error) {
	block, _ := pem.Decode([]byte(pemBytes))
	if block == nil {
		return nil, fmt.Errorf("gateway: JWT_PUB_KEY is not valid PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("gateway: parsing JWT public key: %w", err)
	}
	ecPub, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("gateway: JWT_PUB_KEY is not an EC public key")
	}
	return &Authenticator{pub: ecPub}, nil
}

// TenantID extracts and verifies the bearer token from r's Authorization
// header, returning the tenant id carried in its sub claim.
func (a *Authenticator) TenantID(r *http.Request) (int64, error) {
	raw := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return 0, fmt.Errorf("gateway: missing bearer token")
	}
	tokenStr := strings.TrimPrefix(raw, prefix)

	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("gateway: unexpected signing method %v", t.Header["alg"])
		}
		return a.pub, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("gateway: invalid bearer token: %w", err)
	}

	tenantID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("gateway: token sub %q is not a tenant id", c.Subject)
	}
	return tenantID, nil
}
