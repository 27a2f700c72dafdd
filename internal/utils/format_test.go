package utils

import "testing"

func TestFormatRupiah(t *testing.T) {
	tests := map[float64]string{
		0:         "Rp 0",
		950:       "Rp 950",
		1000:      "Rp 1.000",
		4250000:   "Rp 4.250.000",
		1234567.6: "Rp 1.234.568",
		-25000:    "-Rp 25.000",
	}
	for in, want := range tests {
		if got := FormatRupiah(in); got != want {
			t.Errorf("FormatRupiah(%v) = %q, want %q", in, got, want)
		}
	}
}
