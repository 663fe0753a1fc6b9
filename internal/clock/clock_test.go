package clock

import "testing"

func TestVectorClock_Tick(t *testing.T) {
	vc := New()

	vc.Tick("n1")
	if vc.Counter("n1") != 1 {
		t.Errorf("Expected counter 1, got %d", vc.Counter("n1"))
	}

	vc.Tick("n1")
	vc.Tick("n2")
	if vc.Counter("n1") != 2 || vc.Counter("n2") != 1 {
		t.Errorf("Expected n1=2 n2=1, got n1=%d n2=%d", vc.Counter("n1"), vc.Counter("n2"))
	}

	if vc.Counter("absent") != 0 {
		t.Errorf("Expected absent node counter 0, got %d", vc.Counter("absent"))
	}
}

func TestVectorClock_Merge(t *testing.T) {
	a := VectorClock{"n1": 3, "n2": 1}
	b := VectorClock{"n1": 2, "n2": 5, "n3": 1}

	a.Merge(b)

	want := VectorClock{"n1": 3, "n2": 5, "n3": 1}
	if !a.Equal(want) {
		t.Errorf("Merge result %s, want %s", a, want)
	}
}

func TestVectorClock_Clone_Independent(t *testing.T) {
	a := VectorClock{"n1": 1}
	b := a.Clone()
	b.Tick("n1")

	if a.Counter("n1") != 1 {
		t.Errorf("Clone mutation leaked into original: %s", a)
	}
	if b.Counter("n1") != 2 {
		t.Errorf("Expected clone counter 2, got %d", b.Counter("n1"))
	}
}

func TestVectorClock_MaxCounter(t *testing.T) {
	if c := New().MaxCounter(); c != 0 {
		t.Errorf("Expected empty clock max 0, got %d", c)
	}

	vc := VectorClock{"n1": 2, "n2": 7, "n3": 4}
	if vc.MaxCounter() != 7 {
		t.Errorf("Expected max 7, got %d", vc.MaxCounter())
	}
}

func TestVectorClock_Compare(t *testing.T) {
	tests := []struct {
		name string
		a    VectorClock
		b    VectorClock
		want Ordering
	}{
		{"both empty", New(), New(), Identical},
		{"equal", VectorClock{"n1": 1, "n2": 2}, VectorClock{"n1": 1, "n2": 2}, Identical},
		{"before", VectorClock{"n1": 1}, VectorClock{"n1": 2}, Before},
		{"before with extra node", VectorClock{"n1": 1}, VectorClock{"n1": 1, "n2": 1}, Before},
		{"after", VectorClock{"n1": 2, "n2": 1}, VectorClock{"n1": 1, "n2": 1}, After},
		{"concurrent", VectorClock{"n1": 2, "n2": 1}, VectorClock{"n1": 1, "n2": 2}, Concurrent},
		{"concurrent disjoint", VectorClock{"n1": 1}, VectorClock{"n2": 1}, Concurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("%s.Compare(%s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVectorClock_Compare_Antisymmetric(t *testing.T) {
	a := VectorClock{"n1": 1}
	b := VectorClock{"n1": 1, "n2": 3}

	if a.Compare(b) != Before || b.Compare(a) != After {
		t.Errorf("Expected a before b and b after a, got %s / %s", a.Compare(b), b.Compare(a))
	}
}

func TestVectorClock_String(t *testing.T) {
	if got := New().String(); got != "{}" {
		t.Errorf("Expected {}, got %s", got)
	}

	vc := VectorClock{"n2": 2, "n1": 1}
	if got := vc.String(); got != "{n1:1, n2:2}" {
		t.Errorf("Expected sorted rendering, got %s", got)
	}
}
