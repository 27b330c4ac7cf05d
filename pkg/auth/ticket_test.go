package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func TestTicketRoundTrip(t *testing.T) {
	m := NewTicketManager("secret", 10*time.Minute)
	roomID := uuid.New()

	ticket, err := m.Issue(roomID, "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := m.Verify(ticket)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.RoomID != roomID.String() {
		t.Errorf("RoomID = %q, want %q", claims.RoomID, roomID)
	}
	if claims.Nickname != "alice" {
		t.Errorf("Nickname = %q, want alice", claims.Nickname)
	}
}

func TestTicketBoundedByRoomExpiry(t *testing.T) {
	m := NewTicketManager("secret", 10*time.Minute)
	roomExpiry := time.Now().Add(2 * time.Minute)

	ticket, err := m.Issue(uuid.New(), "alice", roomExpiry)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	claims, err := m.Verify(ticket)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.ExpiresAt.After(roomExpiry.Add(time.Second)) {
		t.Errorf("ticket expiry %v outlives room expiry %v", claims.ExpiresAt, roomExpiry)
	}
}

func TestExpiredTicketRejected(t *testing.T) {
	m := NewTicketManager("secret", 10*time.Minute)

	// Room already expired, so the ticket is born expired.
	ticket, err := m.Issue(uuid.New(), "alice", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := m.Verify(ticket); err == nil {
		t.Error("Verify() accepted an expired ticket")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := NewTicketManager("secret-a", 10*time.Minute)
	verifier := NewTicketManager("secret-b", 10*time.Minute)

	ticket, err := issuer.Issue(uuid.New(), "alice", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := verifier.Verify(ticket); err == nil {
		t.Error("Verify() accepted a ticket signed with a different secret")
	}
}

func TestUnsignedTokenRejected(t *testing.T) {
	m := NewTicketManager("secret", 10*time.Minute)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, TicketClaims{
		RoomID:   uuid.NewString(),
		Nickname: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := m.Verify(unsigned); err == nil {
		t.Error("Verify() accepted an unsigned token")
	}
}
