package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "plain object",
			input:    `{"decision": "workflow"}`,
			expected: `{"decision": "workflow"}`,
		},
		{
			name:     "fenced object",
			input:    "```json\n{\"decision\": \"direct\"}\n```",
			expected: `{"decision": "direct"}`,
		},
		{
			name:     "object with surrounding prose",
			input:    "Here is my answer:\n{\"is_valid\": true, \"needs_retry\": false}\nHope that helps!",
			expected: `{"is_valid": true, "needs_retry": false}`,
		},
		{
			name:     "array",
			input:    `The relevant tables are: ["customers", "points_transactions"]`,
			expected: `["customers", "points_transactions"]`,
		},
		{
			name:     "nested object",
			input:    `{"title": "Points", "insights": [{"id": 1, "text": "a {brace} inside"}]}`,
			expected: `{"title": "Points", "insights": [{"id": 1, "text": "a {brace} inside"}]}`,
		},
		{
			name:     "escaped quotes inside strings",
			input:    `{"text": "she said \"hi\" {not a bracket}"}`,
			expected: `{"text": "she said \"hi\" {not a bracket}"}`,
		},
		{
			name:    "no json at all",
			input:   "I cannot answer that question.",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"decision": "workflow"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "SELECT 1", StripCodeFences("```sql\nSELECT 1\n```"))
	assert.Equal(t, `{"a": 1}`, StripCodeFences("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, "plain", StripCodeFences("plain"))
}

func TestParseJSONResponse(t *testing.T) {
	type decision struct {
		Decision  string `json:"decision"`
		Reasoning string `json:"reasoning"`
	}

	got, err := ParseJSONResponse[decision]("```json\n{\"decision\": \"workflow\", \"reasoning\": \"needs data\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "workflow", got.Decision)
	assert.Equal(t, "needs data", got.Reasoning)

	_, err = ParseJSONResponse[decision]("not json")
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))

	timeoutErr := ClassifyError(assert.AnError)
	assert.Equal(t, ErrorTypeUnknown, timeoutErr.Type)
	assert.False(t, timeoutErr.IsRetryable())
}
