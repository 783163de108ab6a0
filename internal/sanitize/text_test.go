package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextField(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		input string
		want  string
	}{
		"empty":              {input: "", want: ""},
		"plain":              {input: "New York Times", want: "New York Times"},
		"trims":              {input: "  BBC \n", want: "BBC"},
		"collapses breaks":   {input: "The\n\tGuardian   Weekly", want: "The Guardian Weekly"},
		"strips tags":        {input: "<b>Le</b> <em>Monde</em>", want: "Le Monde"},
		"drops script body":  {input: "Reuters<script>alert(1)</script>", want: "Reuters"},
		"drops style body":   {input: "<style>p{}</style>AP News", want: "AP News"},
		"keeps url":          {input: " https://example.com/a?b=1&c=%20 ", want: "https://example.com/a?b=1&c=%20"},
		"invalid utf8":       {input: "Die \xffZeit", want: "Die Zeit"},
		"keeps entities raw": {input: "<i>AT&amp;T</i>", want: "AT&amp;T"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, TextField(tc.input))
		})
	}
}

func TestAbsInt(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		"10":    10,
		" 7":    7,
		"12abc": 12,
		"3.7":   3,
		"+4":    4,
		"abc":   0,
		"":      0,
		"-5":    0,
		"0":     0,
		"-":     0,
	}

	for input, want := range cases {
		assert.Equal(t, want, AbsInt(input), "input %q", input)
	}
}

func TestParagraphsKeepsLineStructure(t *testing.T) {
	t.Parallel()

	input := "  First   <b>line</b>\r\n\r\nSecond\tpara<script>x()</script>  \n"
	assert.Equal(t, "First line\n\nSecond para", Paragraphs(input))
}
