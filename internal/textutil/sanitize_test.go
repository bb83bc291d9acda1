package textutil

import "testing"

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"store-42", "store-42"},
		{"Lakeside Kiosk", "Lakeside_Kiosk"},
		{"  padded  ", "padded"},
		{"a/b\\c", "a_b_c"},
		{"photo.v2.jpg", "photo.v2.jpg"},
		{"José", "Jos_"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeKey(tt.in); got != tt.want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
