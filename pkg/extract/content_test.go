package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextFromStream(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "single Tj",
			stream: "BT\n/F1 12 Tf\n(Hello World) Tj\nET",
			want:   "Hello World",
		},
		{
			name:   "TJ array with kerning",
			stream: "[(Hel) -20 (lo)] TJ",
			want:   "Hello",
		},
		{
			name:   "Td separates words",
			stream: "(first) Tj\n10 0 Td\n(second) Tj",
			want:   "first second",
		},
		{
			name:   "T* starts a new line",
			stream: "(line one) Tj\nT*\n(line two) Tj",
			want:   "line one\nline two",
		},
		{
			name:   "quote operator shows on next line",
			stream: "(before) Tj\n(after) '",
			want:   "before\nafter",
		},
		{
			name:   "non-text operators ignored",
			stream: "q\n1 0 0 1 50 700 cm\nQ\n0 0 100 100 re\nf",
			want:   "",
		},
		{
			name:   "empty stream",
			stream: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textFromStream([]byte(tt.stream)))
		})
	}
}

func TestDecodeLiteral(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "plain text", "plain text"},
		{"escaped parens", `a \(b\) c`, "a (b) c"},
		{"escaped backslash", `a\\b`, `a\b`},
		{"newline and tab", `a\nb\tc`, "a\nb\tc"},
		{"octal space", `a\040b`, "a b"},
		{"short octal", `\53`, "+"},
		{"trailing backslash kept", `end\`, `end\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeLiteral([]byte(tt.raw)))
		})
	}
}

func TestLiteralPattern(t *testing.T) {
	stream := `garbage (one) noise [(two)] junk \(not a literal\) (three`
	got := literalRe.FindAllStringSubmatch(stream, -1)
	var texts []string
	for _, m := range got {
		texts = append(texts, m[1])
	}
	// the unterminated literal at the end is dropped, escaped parens
	// outside a literal do not open one
	assert.Equal(t, []string{"one", "two"}, texts)
}
