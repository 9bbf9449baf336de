package humanize

import "testing"

func TestBytes(t *testing.T) {
	cases := map[int64]string{
		0:                 "0 B",
		1023:              "1023 B",
		1024:              "1.00 KB",
		1536:              "1.50 KB",
		1024 * 1024:       "1.00 MB",
		1024 * 1024 * 1024: "1.00 GB",
	}
	for in, want := range cases {
		if got := Bytes(in); got != want {
			t.Errorf("Bytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(50, 200); got != "25.0%" {
		t.Errorf("Percent(50,200) = %q, want 25.0%%", got)
	}
	if got := Percent(0, 0); got != "0.0%" {
		t.Errorf("Percent(0,0) = %q, want 0.0%%", got)
	}
}
