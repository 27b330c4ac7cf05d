// Package auth issues short-lived room tickets: a successful password check
// over the REST API yields a signed token the websocket join can present
// instead of repeating the password.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type TicketClaims struct {
	RoomID   string `json:"rid"`
	Nickname string `json:"nick"`
	jwt.RegisteredClaims
}

type TicketManager struct {
	secretKey string
	maxTTL    time.Duration
}

func NewTicketManager(secret string, maxTTL time.Duration) *TicketManager {
	if maxTTL <= 0 {
		maxTTL = 10 * time.Minute
	}
	return &TicketManager{secretKey: secret, maxTTL: maxTTL}
}

// Issue creates a ticket for (room, nickname). The ticket never outlives the
// room itself.
func (m *TicketManager) Issue(roomID uuid.UUID, nickname string, roomExpiresAt time.Time) (string, error) {
	expires := time.Now().Add(m.maxTTL)
	if roomExpiresAt.Before(expires) {
		expires = roomExpiresAt
	}

	claims := TicketClaims{
		RoomID:   roomID.String(),
		Nickname: nickname,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secretKey))
}

// Verify parses a ticket and returns its claims.
func (m *TicketManager) Verify(ticket string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(ticket, &TicketClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid ticket")
	}
	return claims, nil
}
