package network

import "testing"

func TestRoomAddReportsRejoinForSameUser(t *testing.T) {
	r := newRoom("g1")

	first := &Session{ID: "s1", GameID: "g1", UserID: 7}
	ok, rejoined := r.add(first, 0)
	if !ok || rejoined {
		t.Fatalf("first session: ok=%v rejoined=%v, want true/false", ok, rejoined)
	}

	second := &Session{ID: "s2", GameID: "g1", UserID: 7}
	ok, rejoined = r.add(second, 0)
	if !ok || !rejoined {
		t.Fatalf("second session for the same user: ok=%v rejoined=%v, want true/true", ok, rejoined)
	}

	other := &Session{ID: "s3", GameID: "g1", UserID: 8}
	ok, rejoined = r.add(other, 0)
	if !ok || rejoined {
		t.Fatalf("first session of another user: ok=%v rejoined=%v, want true/false", ok, rejoined)
	}
}

func TestRoomAddEnforcesConnectionCap(t *testing.T) {
	r := newRoom("g1")
	if ok, _ := r.add(&Session{ID: "s1", UserID: 1}, 1); !ok {
		t.Fatal("first session should fit under a cap of 1")
	}
	if ok, _ := r.add(&Session{ID: "s2", UserID: 2}, 1); ok {
		t.Fatal("second session should be rejected at the cap")
	}
}

func TestRoomRemoveDropsUserEntryWhenLastSessionLeaves(t *testing.T) {
	r := newRoom("g1")
	s1 := &Session{ID: "s1", UserID: 7}
	s2 := &Session{ID: "s2", UserID: 7}
	r.add(s1, 0)
	r.add(s2, 0)

	r.remove(s1)
	r.mu.RLock()
	_, present := r.byUser[7]
	r.mu.RUnlock()
	if !present {
		t.Fatal("user should remain while another of their sessions is live")
	}

	r.remove(s2)
	r.mu.RLock()
	_, present = r.byUser[7]
	r.mu.RUnlock()
	if present {
		t.Fatal("user entry should be dropped with their last session")
	}
	if !r.empty() {
		t.Fatal("room should be empty after both sessions leave")
	}
}

func TestHubSendWithoutRoomReportsFailure(t *testing.T) {
	h := NewHub(nil, 0, 0)
	if h.Send("missing", 1, "your_turn", nil) {
		t.Fatal("Send into a room that does not exist should report failure")
	}
}
