package fuzzy

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"cat", "", 3},
		{"", "dog", 3},
		{"cat", "cat", 0},
		{"cat", "cut", 1},
		{"kitten", "sitting", 3},
		{"cat", "dog", 3},
	}
	for _, test := range tests {
		got := levenshtein([]rune(test.a), []rune(test.b))
		if got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestLevenshteinSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"sticker", "stocker"},
		{"my cat", "cat"},
		{"abc", "xyz"},
	}
	for _, pair := range pairs {
		forward := levenshtein([]rune(pair[0]), []rune(pair[1]))
		reverse := levenshtein([]rune(pair[1]), []rune(pair[0]))
		if forward != reverse {
			t.Errorf("levenshtein(%q, %q) = %d, but reverse = %d",
				pair[0], pair[1], forward, reverse)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("cat", "cat"); got != 100 {
		t.Errorf("Ratio(cat, cat) = %d, want 100", got)
	}
	if got := Ratio("CAT", "cat"); got != 100 {
		t.Errorf("Ratio should be case-insensitive, got %d", got)
	}
	if got := Ratio("cat", "dog"); got > 50 {
		t.Errorf("Ratio(cat, dog) = %d, want low score", got)
	}
}

func TestPartialRatioSubstring(t *testing.T) {
	tests := []struct {
		query, candidate string
	}{
		{"cat", "my cat sticker"}, // inner substring
		{"my", "my cat sticker"},  // prefix
		{"sticker", "my cat sticker"}, // suffix
	}
	for _, test := range tests {
		if got := PartialRatio(test.query, test.candidate); got != 100 {
			t.Errorf("PartialRatio(%q, %q) = %d, want 100", test.query, test.candidate, got)
		}
	}
}

func TestPartialRatioThreshold(t *testing.T) {
	if got := PartialRatio("cat", "my cat sticker"); got <= 90 {
		t.Errorf("PartialRatio(cat, my cat sticker) = %d, want > 90", got)
	}
	if got := PartialRatio("cat", "dog"); got > 90 {
		t.Errorf("PartialRatio(cat, dog) = %d, want <= 90", got)
	}
}

func TestPartialRatioCaseInsensitive(t *testing.T) {
	if got := PartialRatio("CAT", "my cat sticker"); got != 100 {
		t.Errorf("PartialRatio(CAT, ...) = %d, want 100", got)
	}
}

func TestPartialRatioMinorEdit(t *testing.T) {
	// One substitution inside a long window still scores high.
	got := PartialRatio("grumpy cat", "grumpy cot sticker")
	if got <= 80 {
		t.Errorf("PartialRatio with one edit = %d, want > 80", got)
	}
}

func TestPartialRatioEmptyQuery(t *testing.T) {
	if got := PartialRatio("", "anything"); got != 0 {
		t.Errorf("PartialRatio(empty, x) = %d, want 0", got)
	}
}
