package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsWholeWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		term string
		want bool
	}{
		{"exact match", "river", "river", true},
		{"word in sentence", "the river bank flooded", "river", true},
		{"substring of longer word", "the driver renewed the licence", "river", false},
		{"prefix of longer word", "rivers flow downhill", "river", false},
		{"case insensitive", "The RIVER is wide", "river", true},
		{"punctuation boundary", "near the river, downstream", "river", true},
		{"start of string", "river levels rose", "river", true},
		{"end of string", "they crossed the river", "river", true},
		{"hyphen boundary", "the river-side path", "river", true},
		{"digit boundary blocks", "code river2 is assigned", "river", false},
		{"registration number", "vehicle 191-D-12345 was inspected", "191-D-12345", true},
		{"registration inside token", "ref x191-D-12345y logged", "191-D-12345", false},
		{"term absent", "nothing here matches", "river", false},
		{"empty term", "anything", "", false},
		{"empty text", "", "river", false},
		{"second occurrence bounded", "riverside walks along the river", "river", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsWholeWord(tt.text, tt.term))
		})
	}
}

func TestContainsAllWholeWords(t *testing.T) {
	text := "the VIN and registration date are recorded"

	assert.True(t, ContainsAllWholeWords(text, []string{"VIN", "registration"}))
	assert.False(t, ContainsAllWholeWords(text, []string{"VIN", "insurance"}))
	assert.True(t, ContainsAllWholeWords(text, nil))
	assert.True(t, ContainsAllWholeWords(text, []string{}))
}
