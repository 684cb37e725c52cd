package edit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatch(t *testing.T) {
	want := Batch{
		{StartLine: 2, EndLine: 2, NewContent: "X"},
		{StartLine: 4, EndLine: 5, NewContent: "Y\nZ", Description: "tail"},
	}
	tests := []struct {
		name  string
		input string
	}{
		{"json list", `[{"start_line":2,"end_line":2,"new_content":"X"},
			{"start_line":4,"end_line":5,"new_content":"Y\nZ","description":"tail"}]`},
		{"json document", `{"edits":[{"start_line":2,"end_line":2,"new_content":"X"},
			{"start_line":4,"end_line":5,"new_content":"Y\nZ","description":"tail"}]}`},
		{"yaml list", `
- start_line: 2
  end_line: 2
  new_content: X
- start_line: 4
  end_line: 5
  new_content: "Y\nZ"
  description: tail
`},
		{"yaml document", `
edits:
  - start_line: 2
    end_line: 2
    new_content: X
  - start_line: 4
    end_line: 5
    new_content: |-
      Y
      Z
    description: tail
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBatch([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseBatch_Errors(t *testing.T) {
	_, err := ParseBatch([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = ParseBatch([]byte(`{"edits":[]}`))
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = ParseBatch([]byte(`[{"start_line":"one"}]`))
	assert.Error(t, err)

	_, err = ParseBatch([]byte("just a string"))
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "object", doc["type"])

	props := doc["properties"].(map[string]any)
	edits := props["edits"].(map[string]any)
	assert.Equal(t, "array", edits["type"])

	item := edits["items"].(map[string]any)
	itemProps := item["properties"].(map[string]any)
	for _, key := range []string{"start_line", "end_line", "new_content", "description"} {
		assert.Contains(t, itemProps, key)
	}
	start := itemProps["start_line"].(map[string]any)
	assert.Equal(t, "integer", start["type"])
	assert.EqualValues(t, 1, start["minimum"])
	assert.ElementsMatch(t, []any{"start_line", "end_line"}, item["required"])
}
