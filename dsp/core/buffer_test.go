package core

import "testing"

func TestEnsureLenReuse(t *testing.T) {
	buf := make([]float64, 4, 8)

	out := EnsureLen(buf, 6)
	if len(out) != 6 {
		t.Fatalf("len = %d, want 6", len(out))
	}

	if cap(out) != cap(buf) {
		t.Fatalf("cap = %d, want %d", cap(out), cap(buf))
	}

	if got := EnsureLen(buf, 0); len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}

func TestZero(t *testing.T) {
	buf := []float64{1, 2, 3}
	Zero(buf)

	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0", i, v)
		}
	}
}

func TestNewPlanarChannelsAreIndependent(t *testing.T) {
	bufs := NewPlanar(2, 4)
	if len(bufs) != 2 || len(bufs[0]) != 4 || len(bufs[1]) != 4 {
		t.Fatalf("unexpected shape: %d x %d", len(bufs), len(bufs[0]))
	}

	// Appending to one channel must not overwrite the next.
	_ = append(bufs[0], 99)
	if bufs[1][0] != 0 {
		t.Fatalf("channel 1 clobbered: %v", bufs[1])
	}

	if NewPlanar(0, 4) != nil {
		t.Fatal("expected nil for zero channels")
	}
}

func TestInterleaveRoundTrip(t *testing.T) {
	src := []float32{1, -1, 0.5, -0.5, 0.25, -0.25}
	planar := NewPlanar(2, 3)

	frames := Deinterleave(planar, src)
	if frames != 3 {
		t.Fatalf("frames = %d, want 3", frames)
	}

	if planar[0][1] != 0.5 || planar[1][2] != -0.25 {
		t.Fatalf("unexpected planar data: %v", planar)
	}

	out := make([]float32, len(src))
	Interleave(out, planar, frames)

	for i := range src {
		if out[i] != src[i] {
			t.Fatalf("index %d: got %v, want %v", i, out[i], src[i])
		}
	}
}
