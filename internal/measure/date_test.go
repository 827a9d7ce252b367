package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"13/02/2024", "2024-02-13"},
		{"3/2/2024", "2024-02-03"},
		{"13-02-2024", "2024-02-13"},
		{"2024-02-13", "2024-02-13"},
		{" 13.02.2024 ", "2024-02-13"},
		{"", ""},
		{"  ", ""},
		{"febbraio 2024", "febbraio 2024"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDate(tc.raw), "input %q", tc.raw)
	}
}

func TestFormatDisplayDate(t *testing.T) {
	assert.Equal(t, "13/02/2024", FormatDisplayDate("2024-02-13"))
	assert.Equal(t, "febbraio 2024", FormatDisplayDate("febbraio 2024"))
	assert.Equal(t, "", FormatDisplayDate(""))
}
