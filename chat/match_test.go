package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeywords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"hello", []string{"hello"}},
		{"hello, world", []string{"hello", "world"}},
		{" a ,, b ,a", []string{"a", "b", "a"}},
		{"", []string{}},
		{" , ", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseKeywords(tt.in), "ParseKeywords(%q)", tt.in)
	}
}

func TestMatchTextAndDisplayName(t *testing.T) {
	byText := CommentRecord{ID: "1", AuthorDisplayName: "someone", Text: "hello world"}
	byName := CommentRecord{ID: "2", AuthorDisplayName: "HelloBot", Text: "hi"}
	none := CommentRecord{ID: "3", AuthorDisplayName: "other", Text: "bye"}

	// Case-sensitive.
	got := Match([]CommentRecord{byText, byName, none}, []string{"hello"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	got = Match([]CommentRecord{byText, byName, none}, []string{"Hello"})
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestMatchOncePerKeyword(t *testing.T) {
	r := CommentRecord{ID: "1", AuthorDisplayName: "pog", Text: "pog lul"}

	// Matching the same keyword through both fields counts once.
	assert.Len(t, Match([]CommentRecord{r}, []string{"pog"}), 1)
	// Two distinct keywords produce two entries.
	assert.Len(t, Match([]CommentRecord{r}, []string{"pog", "lul"}), 2)
}

func TestMatchEmpty(t *testing.T) {
	got := Match(nil, []string{"x"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, Match([]CommentRecord{{Text: "x"}}, nil))
}

func TestToExport(t *testing.T) {
	r := CommentRecord{AuthorDisplayName: "a", Text: "b", OffsetSeconds: 90}
	assert.Equal(t, ExportRecord{DisplayName: "a", Text: "b", Offset: 30}, r.ToExport(60))
}
