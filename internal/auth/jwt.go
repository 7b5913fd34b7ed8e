package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are issued by the staff login collaborator.
// StaffID is empty for unattributed restaurant sessions.
type Claims struct {
	RestaurantID string `json:"restaurant_id"`
	StaffID      string `json:"staff_id,omitempty"`
	Role         string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller of a staff endpoint.
type Identity struct {
	RestaurantID uuid.UUID
	Actor        Actor
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

type Authenticator struct {
	secret []byte
	logger apt.Logger
}

func NewAuthenticator(secret string, logger apt.Logger) *Authenticator {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// Issue signs a token for a staff member. A nil staffID yields an unattributed session.
func (a *Authenticator) Issue(restaurantID, staffID uuid.UUID, role staffrole.Role, ttl time.Duration) (string, error) {
	claims := &Claims{
		RestaurantID: restaurantID.String(),
		Role:         role.Code(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	if staffID != uuid.Nil {
		claims.StaffID = staffID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Parse verifies a token string and resolves the caller identity.
func (a *Authenticator) Parse(tokenStr string) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	restaurantID, err := uuid.Parse(claims.RestaurantID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad restaurant_id", ErrInvalidToken)
	}

	id := Identity{RestaurantID: restaurantID, Actor: Unattributed()}
	if claims.StaffID == "" {
		return id, nil
	}

	staffID, err := uuid.Parse(claims.StaffID)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad staff_id", ErrInvalidToken)
	}
	role := staffrole.ByName(claims.Role)
	if role == nil {
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	id.Actor = Staff(staffID, *role)
	return id, nil
}

// BearerToken reads the token from the Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// SocketToken reads the Authorization header, then the token query parameter.
// Browsers cannot set headers on WebSocket upgrades.
func SocketToken(r *http.Request) string {
	if t := BearerToken(r); t != "" {
		return t
	}
	return r.URL.Query().Get("token")
}

// RequireStaff rejects requests without a valid staff token.
func (a *Authenticator) RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Parse(BearerToken(r))
		if err != nil {
			a.logger.Debug("staff authentication failed", "path", r.URL.Path, "error", err)
			apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
