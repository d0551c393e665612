package common

import (
	"errors"
	"testing"
)

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte("Abcdef1!")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- errors ----------

func TestDuplicateIdentityErrors_Wrap(t *testing.T) {
	if !errors.Is(ErrEmailTaken, ErrDuplicateIdentity) {
		t.Fatal("ErrEmailTaken must wrap ErrDuplicateIdentity")
	}
	if !errors.Is(ErrMobileTaken, ErrDuplicateIdentity) {
		t.Fatal("ErrMobileTaken must wrap ErrDuplicateIdentity")
	}
	if errors.Is(ErrEmailTaken, ErrMobileTaken) {
		t.Fatal("email and mobile errors must stay distinguishable")
	}
}
