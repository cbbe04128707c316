package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 10); got != 5 {
		t.Errorf("Clamp(5,0,10) = %d", got)
	}
	if got := Clamp(-1, 0, 10); got != 0 {
		t.Errorf("Clamp(-1,0,10) = %d", got)
	}
	if got := Clamp(11, 0, 10); got != 10 {
		t.Errorf("Clamp(11,0,10) = %d", got)
	}
	// Swapped bounds still clamp.
	if got := Clamp(11, 10, 0); got != 10 {
		t.Errorf("Clamp(11,10,0) = %d", got)
	}
}

func TestBetween(t *testing.T) {
	if !Between(5, 0, 10) || !Between(0, 0, 10) || !Between(10, 0, 10) {
		t.Error("Between rejected in-range values")
	}
	if Between(-1, 0, 10) || Between(11, 0, 10) {
		t.Error("Between accepted out-of-range values")
	}
	if !Between(5, 10, 0) {
		t.Error("Between ignored swapped bounds")
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 7) != 3 || Min(7, 3) != 3 {
		t.Error("Min wrong")
	}
	if Max(3, 7) != 7 || Max(7, 3) != 7 {
		t.Error("Max wrong")
	}
	if Max(uint32(0), uint32(1)) != 1 {
		t.Error("Max wrong for uint32")
	}
}
