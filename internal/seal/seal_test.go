package seal

import (
	"bytes"
	"errors"
	"testing"
)

func TestSealRoundTrip(t *testing.T) {
	s, err := New("test-signing-secret")
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	plaintext := []byte(`{"access_token":"abc","refresh_token":"def"}`)
	envelope, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(envelope, []byte("abc")) {
		t.Error("envelope leaks plaintext")
	}

	got, err := s.Open(envelope)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip: got %q, want %q", got, plaintext)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, _ := New("test-signing-secret")
	envelope, err := s.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	envelope[len(envelope)-1] ^= 0x01
	if _, err := s.Open(envelope); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("tampered envelope: got %v, want ErrInvalidEnvelope", err)
	}
}

func TestOpenRejectsWrongSecret(t *testing.T) {
	a, _ := New("secret-a")
	b, _ := New("secret-b")

	envelope, err := a.Seal([]byte("payload"))
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := b.Open(envelope); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("wrong secret: got %v, want ErrInvalidEnvelope", err)
	}
}

func TestSealStringRoundTrip(t *testing.T) {
	s, _ := New("test-signing-secret")
	encoded, err := s.SealString([]byte("cookie-envelope"))
	if err != nil {
		t.Fatalf("seal string: %v", err)
	}
	got, err := s.OpenString(encoded)
	if err != nil {
		t.Fatalf("open string: %v", err)
	}
	if string(got) != "cookie-envelope" {
		t.Errorf("round trip: got %q", got)
	}

	if _, err := s.OpenString("not base64 !!!"); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("garbage input: got %v, want ErrInvalidEnvelope", err)
	}
}
