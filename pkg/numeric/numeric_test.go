package numeric

import "testing"

func TestInt(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
	}{
		{"1234", 1234},
		{"-56", -56},
		{"1,234,567", 1234567},
		{" 42 ", 42},
		{"12.99", 12},
		{"-3.7", -3},
		{"", 0},
		{"-", 0},
		{"N/A", 0},
		{"abc", 0},
		{"12원", 12},
	}
	for _, tt := range tests {
		if got := Int(tt.in); got != tt.want {
			t.Errorf("Int(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestInt64Large(t *testing.T) {
	t.Parallel()
	if got := Int64("9223372036854775807"); got != 9223372036854775807 {
		t.Errorf("Int64(max) = %d", got)
	}
	if got := Int64("450,000,000,000"); got != 450000000000 {
		t.Errorf("Int64 with separators = %d, want 450000000000", got)
	}
}

func TestFloat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want float64
	}{
		{"12.34", 12.34},
		{"-0.5", -0.5},
		{"1,234.5", 1234.5},
		{"100", 100},
		{"", 0},
		{"--", 0},
		{"12.3%", 12.3},
	}
	for _, tt := range tests {
		if got := Float(tt.in); got != tt.want {
			t.Errorf("Float(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDecimal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"123456789.12", "123456789.12"},
		{"-45.6", "-45.6"},
		{"1,000,000", "1000000"},
		{"", "0"},
		{"garbage", "0"},
	}
	for _, tt := range tests {
		if got := Decimal(tt.in).String(); got != tt.want {
			t.Errorf("Decimal(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
