package ui

import "testing"

// TestTruncate tests the truncate helper function
func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"Hello World", 5, "He..."},
		{"Hi", 5, "Hi"},
		{"Test", 4, "Test"},
		{"LongString", 7, "Long..."},
		{"", 5, ""},
		{"NPC不踢箱子", 6, "NPC..."},
		{"abcdef", 2, "ab"},
	}

	for _, test := range tests {
		result := Truncate(test.input, test.maxLen)
		if result != test.expected {
			t.Fatalf("Truncate(%q, %d) = %q, expected %q", test.input, test.maxLen, result, test.expected)
		}
	}
}
