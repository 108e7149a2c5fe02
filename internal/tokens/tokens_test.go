package tokens

import "testing"

func TestEstimateText(t *testing.T) {
	cases := map[string]Count{
		"":         0,
		"abcd":     1,
		"abcdefgh": 2,
		"abc":      0,
	}
	for in, want := range cases {
		if got := EstimateText(in); got != want {
			t.Errorf("EstimateText(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestEstimateMessages(t *testing.T) {
	got := EstimateMessages([]string{"abcd", "efgh", "ij"})
	if got != 2 {
		t.Errorf("EstimateMessages = %d, want 2", got)
	}
}

func TestExceeds(t *testing.T) {
	if Count(10).Exceeds(10) {
		t.Error("10 should not exceed 10")
	}
	if !Count(11).Exceeds(10) {
		t.Error("11 should exceed 10")
	}
}

func TestOfNegativeClampsToZero(t *testing.T) {
	if Of(-5) != 0 {
		t.Error("Of(-5) should clamp to 0")
	}
}

func TestAdd(t *testing.T) {
	if Count(3).Add(Count(4)) != 7 {
		t.Error("3 + 4 should be 7")
	}
}
