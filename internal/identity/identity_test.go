package identity

import "testing"

func TestStaticResolverResolvesKnownToken(t *testing.T) {
	r := StaticResolver{"abc": 7}
	id, err := r.ResolveUserID("abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected user id 7, got %d", id)
	}
}

func TestStaticResolverRejectsUnknownToken(t *testing.T) {
	r := StaticResolver{"abc": 7}
	if _, err := r.ResolveUserID("nope"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestStaticResolverRejectsNonPositiveUserID(t *testing.T) {
	r := StaticResolver{"ai-seat": -1, "zero": 0}
	if _, err := r.ResolveUserID("ai-seat"); err != ErrInvalidToken {
		t.Fatalf("expected a negative (AI) user id to be rejected, got %v", err)
	}
	if _, err := r.ResolveUserID("zero"); err != ErrInvalidToken {
		t.Fatalf("expected a zero user id to be rejected, got %v", err)
	}
}
