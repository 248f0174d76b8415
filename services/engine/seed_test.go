package engine

import "testing"

func TestNewEntropy(t *testing.T) {
	a, err := NewEntropy()
	if err != nil {
		t.Fatalf("NewEntropy: %v", err)
	}
	if a <= 0 {
		t.Fatalf("entropy = %d, want positive", a)
	}

	b, err := NewEntropy()
	if err != nil {
		t.Fatalf("NewEntropy: %v", err)
	}
	if a == b {
		t.Fatalf("two entropy draws both = %d", a)
	}
}

func TestMixSeed(t *testing.T) {
	s := MixSeed(1, 2, "session-a")
	if s < 0 {
		t.Fatalf("MixSeed = %d, want non-negative", s)
	}
	if again := MixSeed(1, 2, "session-a"); again != s {
		t.Fatalf("MixSeed not stable: %d then %d", s, again)
	}

	if MixSeed(1, 2, "session-b") == s {
		t.Fatal("different session id produced the same seed")
	}
	if MixSeed(3, 2, "session-a") == s {
		t.Fatal("different commit entropy produced the same seed")
	}
	if MixSeed(1, 4, "session-a") == s {
		t.Fatal("different reveal entropy produced the same seed")
	}
}

func TestSubSeedStreams(t *testing.T) {
	base := MixSeed(7, 11, "s")

	if SubSeed(base, "map", 0) != SubSeed(base, "map", 0) {
		t.Fatal("SubSeed not stable")
	}
	if SubSeed(base, "map", 0) == SubSeed(base, "map", 1) {
		t.Fatal("draw counter ignored")
	}
	if SubSeed(base, "map", 0) == SubSeed(base, "objectives", 0) {
		t.Fatal("domain ignored")
	}
	if SubSeed(base, "action", 3) < 0 {
		t.Fatal("SubSeed must be non-negative")
	}
}
