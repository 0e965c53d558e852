package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "crlf normalized to lf",
			input: "line one\r\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "control characters stripped",
			input: "he\x00llo\x07 wor\x1bld",
			want:  "hello world",
		},
		{
			name:  "newline and tab preserved",
			input: "a\tb\nc",
			want:  "a\tb\nc",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  \n hello \t ",
			want:  "hello",
		},
		{
			name:  "replacement char dropped",
			input: "bad�byte",
			want:  "badbyte",
		},
		{
			name:  "empty stays empty",
			input: "",
			want:  "",
		},
		{
			name:  "only control chars collapses to empty",
			input: "\x00\x01\x02",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}
