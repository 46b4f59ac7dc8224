package hub

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/scrimlabs/inhouse-backend/internal/session"
)

func recvSession(t *testing.T, ch <-chan *session.Session) *session.Session {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for hub reply")
		return nil // unreachable
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), session.NopArchiver{}, zap.NewNop())
	reply := make(chan *session.Session, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	s1 := recvSession(t, reply)

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	s2 := recvSession(t, reply)

	if s1 == nil || s2 == nil || s1 != s2 {
		t.Fatalf("expected same session pointer")
	}
}

func TestHub_CreateIsIdempotentPerCode(t *testing.T) {
	h := NewHub(context.Background(), session.NopArchiver{}, zap.NewNop())
	reply := make(chan *session.Session, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	s1 := recvSession(t, reply)
	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	s2 := recvSession(t, reply)

	if s1 != s2 {
		t.Fatalf("second create replaced the room")
	}
}

func TestHub_RemoveRoom(t *testing.T) {
	h := NewHub(context.Background(), session.NopArchiver{}, zap.NewNop())
	reply := make(chan *session.Session, 1)

	h.Inbox() <- CreateRoom{Code: "ZED123", Reply: reply}
	_ = recvSession(t, reply)

	h.Inbox() <- RemoveRoom{Code: "ZED123"}

	h.Inbox() <- GetRoom{Code: "ZED123", Reply: reply}
	if got := recvSession(t, reply); got != nil {
		t.Fatalf("expected room to be gone, got %v", got)
	}
}
