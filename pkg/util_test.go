package dupefind

import (
	"testing"
)

func TestParseHumanSize(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
		wantErr  bool
	}{
		{"0", 0, false},
		{"4096", 4096, false},
		{"4k", 4096, false},
		{"4KB", 4096, false},
		{"2M", 2 * 1024 * 1024, false},
		{"1.5M", 1536 * 1024, false},
		{"4G", 4294967296, false},
		{"1T", 1 << 40, false},
		{" 512 ", 512, false},
		{"4 KiB", 4096, false},
		{"", 0, true},
		{"abc", 0, true},
		{"10X", 0, true},
		{"99999999999T", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseHumanSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for %q: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseHumanSize(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatHumanSize(t *testing.T) {
	tests := []struct {
		size     int64
		expected string
	}{
		{0, "0.0 B"},
		{100, "100.0 B"},
		{4096, "4.0 KiB"},
		{5000, "4.9 KiB"},
		{1536 * 1024, "1.5 MiB"},
		{4294967296, "4.0 GiB"},
	}

	for _, tt := range tests {
		if got := FormatHumanSize(tt.size); got != tt.expected {
			t.Errorf("FormatHumanSize(%d) = %q, expected %q", tt.size, got, tt.expected)
		}
	}
}
