package wire

import (
	"bytes"
	"testing"
)

func TestInt32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteInt32(&buf, -42); err != nil {
		t.Fatalf("WriteInt32: %v", err)
	}
	got, err := ReadInt32(&buf)
	if err != nil {
		t.Fatalf("ReadInt32: %v", err)
	}
	if got != -42 {
		t.Fatalf("got %d, want -42", got)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFloat32(&buf, 3.25); err != nil {
		t.Fatalf("WriteFloat32: %v", err)
	}
	got, err := ReadFloat32(&buf)
	if err != nil {
		t.Fatalf("ReadFloat32: %v", err)
	}
	if got != 3.25 {
		t.Fatalf("got %v, want 3.25", got)
	}
}

func TestCheckPayloadLen(t *testing.T) {
	cases := []struct {
		n    int32
		want bool // true = accepted
	}{
		{0, true},
		{1024, true},
		{MaxPayloadBytes - 1, true},
		{MaxPayloadBytes, false},
		{MaxPayloadBytes + 1, false},
		{-1, false},
	}
	for _, c := range cases {
		err := CheckPayloadLen(c.n)
		if (err == nil) != c.want {
			t.Errorf("CheckPayloadLen(%d) err=%v, want accepted=%v", c.n, err, c.want)
		}
	}
}
