package textproc

import "testing"

func TestProcessTranscript(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"line one\nline two", "line one line two"},
		{"tabs\tand\t spaces", "tabs and spaces"},
		{"\n\n trailing newline \n", "trailing newline"},
	}
	for _, tc := range cases {
		if got := ProcessTranscript(tc.in); got != tc.want {
			t.Errorf("ProcessTranscript(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestConvertChineseNoop(t *testing.T) {
	got, err := ConvertChinese("hello", "")
	if err != nil {
		t.Fatalf("empty conversion: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want passthrough", got)
	}

	got, err = ConvertChinese("", "s2t")
	if err != nil {
		t.Fatalf("empty input: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
