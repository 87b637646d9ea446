package money

import "testing"

func TestParseRounding(t *testing.T) {
	for _, s := range []string{"round", "ceil", "floor"} {
		r, err := ParseRounding(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if string(r) != s {
			t.Fatalf("parse %q: got %q", s, r)
		}
	}

	r, err := ParseRounding("")
	if err != nil {
		t.Fatalf("parse kosong: %v", err)
	}
	if r != RoundNearest {
		t.Fatalf("default harus round, got %q", r)
	}

	if _, err := ParseRounding("bankers"); err == nil {
		t.Fatal("metode tidak dikenal harus error")
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		r    Rounding
		in   float64
		want int64
	}{
		{RoundNearest, 2200.0, 2200},
		{RoundNearest, 1484.85, 1485},
		{RoundNearest, 1484.4, 1484},
		{RoundNearest, 1484.5, 1485}, // half away from zero
		{RoundCeil, 1484.01, 1485},
		{RoundCeil, 1484.0, 1484},
		{RoundFloor, 1484.99, 1484},
	}
	for _, c := range cases {
		if got := c.r.Round(c.in); got != c.want {
			t.Errorf("%s.Round(%v) = %d, want %d", c.r, c.in, got, c.want)
		}
	}
}

func TestPercent(t *testing.T) {
	// 11% dari 20000 = 2200
	if got := RoundNearest.Percent(20000, 11); got != 2200 {
		t.Fatalf("11%% dari 20000 = %d, want 2200", got)
	}
	// 10% dari 15000 = 1500
	if got := RoundNearest.Percent(15000, 10); got != 1500 {
		t.Fatalf("10%% dari 15000 = %d, want 1500", got)
	}
	// pembulatan beda metode pada hasil pecahan: 11% dari 101 = 11.11
	if got := RoundFloor.Percent(101, 11); got != 11 {
		t.Fatalf("floor: got %d, want 11", got)
	}
	if got := RoundCeil.Percent(101, 11); got != 12 {
		t.Fatalf("ceil: got %d, want 12", got)
	}
}

func TestMinMax(t *testing.T) {
	if Max(3, 7) != 7 || Max(-1, -5) != -1 {
		t.Fatal("Max salah")
	}
	if Min(3, 7) != 3 || Min(-1, -5) != -5 {
		t.Fatal("Min salah")
	}
}
