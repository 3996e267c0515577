package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"
)

type fakeStore struct {
	active    bool
	activeErr error
	insertErr error

	inserts []insertCall
}

type insertCall struct {
	key    string
	userID string
}

func (f *fakeStore) Insert(_ context.Context, key, userID string) error {
	f.inserts = append(f.inserts, insertCall{key: key, userID: userID})
	return f.insertErr
}

func (f *fakeStore) HasActiveKey(_ context.Context, _ string) (bool, error) {
	return f.active, f.activeErr
}

func (f *fakeStore) Count(_ context.Context, unusedOnly bool) (int, error) {
	if unusedOnly {
		return 3, nil
	}
	return 7, nil
}

func TestIssueKeyNewUser(t *testing.T) {
	store := &fakeStore{}
	h := NewHandlers(store)

	reply, err := h.issueKey(context.Background(), 12345, "alice")
	if err != nil {
		t.Fatalf("issueKey: %v", err)
	}

	if len(store.inserts) != 1 {
		t.Fatalf("insert calls = %d, expected 1", len(store.inserts))
	}
	ins := store.inserts[0]
	if ins.userID != "12345" {
		t.Errorf("inserted user_id = %q, expected \"12345\"", ins.userID)
	}
	if len(ins.key) != 22 {
		t.Errorf("inserted key %q has length %d, expected 22", ins.key, len(ins.key))
	}

	if !strings.Contains(reply, "<code>"+ins.key+"</code>") {
		t.Errorf("reply does not carry the inserted key as inline code: %q", reply)
	}
	if !strings.Contains(reply, "@alice (ID: 12345)") {
		t.Errorf("reply does not bind key to user: %q", reply)
	}
	if !strings.HasPrefix(reply, "🔑") {
		t.Errorf("reply missing key marker: %q", reply)
	}
}

func TestIssueKeyAlreadyActive(t *testing.T) {
	store := &fakeStore{active: true}
	h := NewHandlers(store)

	reply, err := h.issueKey(context.Background(), 12345, "alice")
	if err != nil {
		t.Fatalf("issueKey: %v", err)
	}
	if reply != msgAlreadyHasKey {
		t.Errorf("reply = %q, expected already-has-key text", reply)
	}
	if len(store.inserts) != 0 {
		t.Errorf("insert calls = %d, expected 0", len(store.inserts))
	}
}

func TestIssueKeyCheckFailure(t *testing.T) {
	store := &fakeStore{activeErr: errors.New("boom")}
	h := NewHandlers(store)

	if _, err := h.issueKey(context.Background(), 1, "bob"); err == nil {
		t.Fatal("expected error when active-key check fails")
	}
	if len(store.inserts) != 0 {
		t.Errorf("insert calls = %d, expected 0", len(store.inserts))
	}
}

func TestIssueKeyInsertFailure(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("boom")}
	h := NewHandlers(store)

	if _, err := h.issueKey(context.Background(), 1, "bob"); err == nil {
		t.Fatal("expected error when insert fails")
	}
}

func TestIssueKeyUniquePerCall(t *testing.T) {
	store := &fakeStore{}
	h := NewHandlers(store)

	for i := 0; i < 10; i++ {
		if _, err := h.issueKey(context.Background(), int64(i), fmt.Sprintf("user%d", i)); err != nil {
			t.Fatalf("issueKey: %v", err)
		}
	}
	seen := make(map[string]struct{}, len(store.inserts))
	for _, ins := range store.inserts {
		if _, dup := seen[ins.key]; dup {
			t.Fatalf("duplicate key issued: %q", ins.key)
		}
		seen[ins.key] = struct{}{}
	}
}

func TestSenderName(t *testing.T) {
	tests := []struct {
		name   string
		sender *tele.User
		want   string
	}{
		{"with username", &tele.User{ID: 12345, Username: "alice"}, "alice"},
		{"without username", &tele.User{ID: 12345}, "user_12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := senderName(tt.sender); got != tt.want {
				t.Fatalf("senderName = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestStartTextIsStatic(t *testing.T) {
	if !strings.Contains(msgStart, "/getkey") {
		t.Fatalf("greeting must point at /getkey: %q", msgStart)
	}
}
