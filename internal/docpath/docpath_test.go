package docpath

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{
	"title": "Course",
	"chapters": [
		{"title": "One", "sections": [{"title": "A", "content": "old"}]},
		{"title": "Two", "sections": []}
	]
}`

func decodeSample(t *testing.T) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(sample), &doc))
	return doc
}

func mustParse(t *testing.T, raw string) Path {
	t.Helper()
	p, err := Parse(raw)
	require.NoError(t, err)
	return p
}

func TestParse(t *testing.T) {
	p, err := Parse("/chapters/0/title/")
	require.NoError(t, err)
	assert.Equal(t, []string{"chapters", "0", "title"}, p.Segments())

	_, err = Parse("//")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = Parse("chapters//title")
	assert.ErrorIs(t, err, ErrEmptySegment)
}

func TestSetLeafKeepsSiblings(t *testing.T) {
	doc := decodeSample(t)

	out, err := Set(doc, mustParse(t, "chapters/0/sections/0/content"), "new")
	require.NoError(t, err)

	got, err := Get(out, mustParse(t, "chapters/0/sections/0/content"))
	require.NoError(t, err)
	assert.Equal(t, "new", got)

	title, err := Get(out, mustParse(t, "chapters/0/sections/0/title"))
	require.NoError(t, err)
	assert.Equal(t, "A", title)

	second, err := Get(out, mustParse(t, "chapters/1/title"))
	require.NoError(t, err)
	assert.Equal(t, "Two", second)
}

func TestSetTopLevelKey(t *testing.T) {
	doc := decodeSample(t)

	out, err := Set(doc, mustParse(t, "title"), "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", out.(map[string]any)["title"])
}

func TestSetCreatesMissingLeafKey(t *testing.T) {
	doc := decodeSample(t)

	_, err := Set(doc, mustParse(t, "chapters/1/summary"), "added")
	require.NoError(t, err)
	got, err := Get(doc, mustParse(t, "chapters/1/summary"))
	require.NoError(t, err)
	assert.Equal(t, "added", got)
}

func TestSetErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		want     error
		segment  string
		position int
	}{
		{"missing intermediate key", "modules/0/title", ErrKeyNotFound, "modules", 0},
		{"index past end", "chapters/5/title", ErrIndexOutOfRange, "5", 1},
		{"leaf index past end", "chapters/1/sections/0", ErrIndexOutOfRange, "0", 3},
		{"non-numeric index", "chapters/first/title", ErrInvalidIndex, "first", 1},
		{"object expected array", "title/0", ErrNotContainer, "0", 1},
		{"negative index", "chapters/-1/title", ErrIndexOutOfRange, "-1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := decodeSample(t)
			before, _ := json.Marshal(doc)

			_, err := Set(doc, mustParse(t, tt.path), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *PathError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.segment, pe.Segment)
			assert.Equal(t, tt.position, pe.Position)

			after, _ := json.Marshal(doc)
			assert.JSONEq(t, string(before), string(after))
		})
	}
}

func TestGetScalarRoot(t *testing.T) {
	_, err := Get("scalar", mustParse(t, "a"))
	assert.ErrorIs(t, err, ErrNotContainer)
}
