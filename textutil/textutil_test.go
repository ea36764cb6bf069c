package textutil

import "testing"

func TestCondenseSpaces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a  b\n\nc", want: "a b c"},
		{in: "  leading and trailing \n", want: "leading and trailing"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := CondenseSpaces(tt.in); got != tt.want {
			t.Errorf("CondenseSpaces(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStripControl(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "nul\x00byte", want: "nulbyte"},
		{in: "bad�rune", want: "badrune"},
		{in: "tab\tand\nnewline", want: "tabandnewline"},
	}

	for _, tt := range tests {
		if got := StripControl(tt.in); got != tt.want {
			t.Errorf("StripControl(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeRichText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "passes markup through",
			in:   "<p>marked <b>passage</b></p>",
			want: "<p>marked <b>passage</b></p>",
		},
		{
			name: "strips script blocks",
			in:   "<p>hi</p><script>alert(1)</script>",
			want: "<p>hi</p>",
		},
		{
			name: "strips style blocks",
			in:   "<style>p{color:red}</style><p>hi</p>",
			want: "<p>hi</p>",
		},
		{
			name: "strips inline handlers",
			in:   `<span onclick="steal()">hi</span>`,
			want: "<span>hi</span>",
		},
		{
			name: "strips javascript urls",
			in:   `<a href="javascript:alert(1)">hi</a>`,
			want: "<a >hi</a>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeRichText(tt.in); got != tt.want {
				t.Errorf("SanitizeRichText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
