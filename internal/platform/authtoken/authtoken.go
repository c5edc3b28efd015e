// Package authtoken verifies the HS256 bearer tokens issued by the account
// service. The subject claim carries the user's uuid.
package authtoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/platform/ctxutil"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Claims struct {
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Issue signs a token for userID. Used by tests and the dev token command.
func (v *Verifier) Issue(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Parse(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID, nil
}

// SetContextFromToken verifies tokenString and attaches the caller to ctx.
func (v *Verifier) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, err := v.Parse(tokenString)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{TokenString: tokenString, UserID: userID}), nil
}
