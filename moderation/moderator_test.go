package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"scam", "idiot"}, '*')
	req.NoError(err)

	tests := []struct {
		description string
		input       string
		want        string
		matches     int
	}{
		{
			"Should leave clean content untouched",
			"Looking forward to the interview",
			"Looking forward to the interview",
			0,
		},
		{
			"Should censor a plain match",
			"this offer is a scam",
			"this offer is a ****",
			1,
		},
		{
			"Should censor regardless of case",
			"this offer is a SCAM",
			"this offer is a ****",
			1,
		},
		{
			"Should censor matches split by punctuation",
			"you i.d-i o.t",
			"you *********",
			1,
		},
		{
			"Should censor every occurrence",
			"scam scam",
			"**** ****",
			2,
		},
		{
			"Should leave empty content untouched",
			"",
			"",
			0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			got, matched := moderator.Censor(tt.input)
			req.Equal(tt.want, got)
			req.Len(matched, tt.matches)
		})
	}
}

func TestModerator_CensorPreservesLength(t *testing.T) {
	req := require.New(t)
	moderator, err := NewModerator([]string{"badword"}, '*')
	req.NoError(err)

	input := "prefix badword suffix"
	got, matched := moderator.Censor(input)
	req.Len(matched, 1)
	req.Equal(len([]rune(input)), len([]rune(got)))
	req.True(strings.HasPrefix(got, "prefix "))
	req.True(strings.HasSuffix(got, " suffix"))
}

func TestLoadBlocklist(t *testing.T) {
	req := require.New(t)

	words, languages, err := LoadBlocklist()
	req.NoError(err)
	req.NotEmpty(words)
	req.Contains(languages, "en")
	for _, word := range words {
		req.NotEmpty(word)
		req.False(strings.HasPrefix(word, "#"), "comment leaked into block list: "+word)
	}
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	req.Equal("en", DetectLanguage("Thank you for your application, we will get back to you shortly"))
	req.Equal("", DetectLanguage("ok"))
}
