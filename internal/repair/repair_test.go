package repair_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodnorm/internal/repair"
)

func TestParse_CleanObject(t *testing.T) {
	parsed, ok := repair.Parse(`{"name": "Moringa Oil", "price": 19.99}`)
	require.True(t, ok)
	assert.Equal(t, "Moringa Oil", parsed["name"])
	assert.Equal(t, 19.99, parsed["price"])
}

func TestParse_AlreadyDecodedMap(t *testing.T) {
	t.Run("non_empty_map_passes_through", func(t *testing.T) {
		in := map[string]interface{}{"name": "x"}
		parsed, ok := repair.Parse(in)
		require.True(t, ok)
		assert.Equal(t, "x", parsed["name"])
	})

	t.Run("empty_map_fails", func(t *testing.T) {
		_, ok := repair.Parse(map[string]interface{}{})
		assert.False(t, ok)
	})
}

func TestParse_CodeFence(t *testing.T) {
	t.Run("json_fence", func(t *testing.T) {
		parsed, ok := repair.Parse("```json\n{\"name\": \"x\"}\n```")
		require.True(t, ok)
		assert.Equal(t, "x", parsed["name"])
	})

	t.Run("bare_fence", func(t *testing.T) {
		parsed, ok := repair.Parse("```\n{\"name\": \"y\"}\n```")
		require.True(t, ok)
		assert.Equal(t, "y", parsed["name"])
	})
}

func TestParse_ProseWrapped(t *testing.T) {
	text := `Sure! Here is the normalized object:

{"name": "Baobab Powder", "price": 12}

Let me know if you need anything else.`
	parsed, ok := repair.Parse(text)
	require.True(t, ok)
	assert.Equal(t, "Baobab Powder", parsed["name"])
}

func TestParse_EscapedQuotes(t *testing.T) {
	parsed, ok := repair.Parse(`{\"name\": \"Shea Butter\", \"price\": 8.5}`)
	require.True(t, ok)
	assert.Equal(t, "Shea Butter", parsed["name"])
	assert.Equal(t, 8.5, parsed["price"])
}

func TestParse_SingleObjectArray(t *testing.T) {
	parsed, ok := repair.Parse(`[{"name": "x"}]`)
	require.True(t, ok)
	assert.Equal(t, "x", parsed["name"])
}

func TestParse_Bytes(t *testing.T) {
	parsed, ok := repair.Parse([]byte(`{"name": "from bytes"}`))
	require.True(t, ok)
	assert.Equal(t, "from bytes", parsed["name"])
}

func TestParse_Failures(t *testing.T) {
	t.Run("empty_string", func(t *testing.T) {
		_, ok := repair.Parse("")
		assert.False(t, ok)
	})

	t.Run("whitespace_only", func(t *testing.T) {
		_, ok := repair.Parse("   \n\t ")
		assert.False(t, ok)
	})

	t.Run("prose_without_json", func(t *testing.T) {
		_, ok := repair.Parse("I could not process this product, sorry.")
		assert.False(t, ok)
	})

	t.Run("truncated_object", func(t *testing.T) {
		_, ok := repair.Parse(`{"name": "cut off`)
		assert.False(t, ok)
	})

	t.Run("nil_input", func(t *testing.T) {
		_, ok := repair.Parse(nil)
		assert.False(t, ok)
	})

	t.Run("number_input", func(t *testing.T) {
		_, ok := repair.Parse(42.0)
		assert.False(t, ok)
	})
}

func TestContentFromResult_NominalEnvelope(t *testing.T) {
	line := map[string]interface{}{
		"custom_id": "task-3",
		"response": map[string]interface{}{
			"body": map[string]interface{}{
				"choices": []interface{}{
					map[string]interface{}{
						"message": map[string]interface{}{
							"role":    "assistant",
							"content": `{"name": "x"}`,
						},
					},
				},
			},
		},
	}
	content, ok := repair.ContentFromResult(line)
	require.True(t, ok)
	assert.Equal(t, `{"name": "x"}`, content)
}

func TestContentFromResult_ChoiceTextField(t *testing.T) {
	line := map[string]interface{}{
		"response": map[string]interface{}{
			"body": map[string]interface{}{
				"choices": []interface{}{
					map[string]interface{}{
						"text": `{"name": "completion style"}`,
					},
				},
			},
		},
	}
	content, ok := repair.ContentFromResult(line)
	require.True(t, ok)
	assert.Equal(t, `{"name": "completion style"}`, content)
}

func TestContentFromResult_StringMessage(t *testing.T) {
	line := map[string]interface{}{
		"response": map[string]interface{}{
			"body": map[string]interface{}{
				"choices": []interface{}{
					map[string]interface{}{
						"message": `{"name": "bare string"}`,
					},
				},
			},
		},
	}
	content, ok := repair.ContentFromResult(line)
	require.True(t, ok)
	assert.Equal(t, `{"name": "bare string"}`, content)
}

func TestContentFromResult_TopLevelContent(t *testing.T) {
	line := map[string]interface{}{
		"content": `{"name": "top level"}`,
	}
	content, ok := repair.ContentFromResult(line)
	require.True(t, ok)
	assert.Equal(t, `{"name": "top level"}`, content)
}

func TestContentFromResult_RecursiveSearch(t *testing.T) {
	line := map[string]interface{}{
		"result": map[string]interface{}{
			"data": map[string]interface{}{
				"content": `{"name": "buried"}`,
			},
		},
	}
	content, ok := repair.ContentFromResult(line)
	require.True(t, ok)
	assert.Equal(t, `{"name": "buried"}`, content)
}

func TestContentFromResult_NothingRecoverable(t *testing.T) {
	line := map[string]interface{}{
		"custom_id": "task-9",
		"error":     map[string]interface{}{"message": "request failed"},
	}
	_, ok := repair.ContentFromResult(line)
	assert.False(t, ok)
}

func TestContentFromResult_LooseContentSniff(t *testing.T) {
	// A content key holding plain prose is not JSON-shaped and must not match.
	line := map[string]interface{}{
		"meta": map[string]interface{}{
			"content": "plain prose without structure",
		},
	}
	_, ok := repair.ContentFromResult(line)
	assert.False(t, ok)
}
