package rooms

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestRoom() *Room {
	now := time.Now()
	return newRoom(uuid.New(), "r", "", now, now.Add(time.Hour))
}

func TestJoinRejectsDuplicateNickname(t *testing.T) {
	room := newTestRoom()

	if _, err := room.Join("conn-1", "alice"); err != nil {
		t.Fatalf("first Join() error: %v", err)
	}
	if _, err := room.Join("conn-2", "alice"); !errors.Is(err, ErrNicknameTaken) {
		t.Errorf("duplicate Join() = %v, want ErrNicknameTaken", err)
	}

	// Case-sensitive: a different casing is a different nickname.
	if _, err := room.Join("conn-3", "Alice"); err != nil {
		t.Errorf("Join() with different casing: %v", err)
	}
}

func TestConcurrentJoinsSameNicknameOneWinner(t *testing.T) {
	const attempts = 50

	for round := 0; round < 10; round++ {
		room := newTestRoom()

		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = room.Join(fmt.Sprintf("conn-%d", i), "bob")
			}(i)
		}
		wg.Wait()

		var won, taken int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrNicknameTaken):
				taken++
			default:
				t.Fatalf("unexpected Join() error: %v", err)
			}
		}
		if won != 1 || taken != attempts-1 {
			t.Fatalf("round %d: %d joins won, %d rejected; want exactly 1 winner", round, won, taken)
		}
	}
}

func TestJoinEmptyNickname(t *testing.T) {
	room := newTestRoom()
	if _, err := room.Join("conn-1", ""); !errors.Is(err, ErrInvalidNickname) {
		t.Errorf("Join() with empty nickname = %v, want ErrInvalidNickname", err)
	}
	if room.MemberCount() != 0 {
		t.Error("rejected join changed the member set")
	}
}

func TestLeaveIdempotent(t *testing.T) {
	room := newTestRoom()
	room.Join("conn-1", "alice")

	member, ok := room.Leave("conn-1")
	if !ok || member.Nickname != "alice" {
		t.Fatalf("Leave() = (%v, %v), want alice membership", member, ok)
	}

	if _, ok := room.Leave("conn-1"); ok {
		t.Error("second Leave() reported a removal")
	}
	if _, ok := room.Leave("never-joined"); ok {
		t.Error("Leave() for unknown connection reported a removal")
	}
}

func TestMembersSnapshotInsertionOrder(t *testing.T) {
	room := newTestRoom()
	for i, nick := range []string{"a", "b", "c", "d"} {
		if _, err := room.Join(fmt.Sprintf("conn-%d", i), nick); err != nil {
			t.Fatalf("Join(%q) error: %v", nick, err)
		}
	}
	room.Leave("conn-1")

	members := room.Members()
	want := []string{"a", "c", "d"}
	if len(members) != len(want) {
		t.Fatalf("Members() returned %d entries, want %d", len(members), len(want))
	}
	for i, nick := range want {
		if members[i].Nickname != nick {
			t.Errorf("members[%d] = %q, want %q", i, members[i].Nickname, nick)
		}
	}
	if room.MemberCount() != 3 {
		t.Errorf("MemberCount() = %d, want 3", room.MemberCount())
	}
}
