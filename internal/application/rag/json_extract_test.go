package rag

import "testing"

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", `Sure, here you go: {"a":1}`, `{"a":1}`},
		{"trailing prose", `{"a":1} hope that helps`, `{"a":1}`},
		{"array", `result: [1,2,3]`, `[1,2,3]`},
		{"no json", "just text", "just text"},
		{"empty", "  ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSONObject(tc.in); got != tc.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	if !isResponseFormatUnsupportedError(errString("unknown parameter: response_format")) {
		t.Error("response_format error not detected")
	}
	if isResponseFormatUnsupportedError(errString("connection refused")) {
		t.Error("unrelated error misclassified")
	}
	if isResponseFormatUnsupportedError(nil) {
		t.Error("nil error misclassified")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
