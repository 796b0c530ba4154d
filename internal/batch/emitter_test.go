package batch_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodnorm/internal/batch"
	"prodnorm/internal/domain"
	"prodnorm/internal/extract"
	"prodnorm/internal/prompt"
)

func testRecords(t *testing.T) []domain.Record {
	t.Helper()
	raws := []domain.RawRecord{
		{"url": "https://example.com/p/1", "title": "Moringa Oil"},
		{"url": "https://example.com/p/2", "title": "Baobab Powder"},
	}
	recs := make([]domain.Record, len(raws))
	for i, raw := range raws {
		recs[i] = domain.Record{Ordinal: i, Raw: raw, Deterministic: extract.Fields(raw)}
	}
	return recs
}

func TestCustomID(t *testing.T) {
	assert.Equal(t, "task-0", batch.CustomID(0))
	assert.Equal(t, "task-42", batch.CustomID(42))
}

func TestOrdinalFromCustomID(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		for _, ordinal := range []int{0, 7, 1500} {
			n, err := batch.OrdinalFromCustomID(batch.CustomID(ordinal))
			require.NoError(t, err)
			assert.Equal(t, ordinal, n)
		}
	})

	t.Run("no_hyphen", func(t *testing.T) {
		_, err := batch.OrdinalFromCustomID("task7")
		assert.Error(t, err)
	})

	t.Run("trailing_hyphen", func(t *testing.T) {
		_, err := batch.OrdinalFromCustomID("task-")
		assert.Error(t, err)
	})

	t.Run("non_numeric_suffix", func(t *testing.T) {
		_, err := batch.OrdinalFromCustomID("task-abc")
		assert.Error(t, err)
	})
}

func TestEmitter_Emit(t *testing.T) {
	builder, err := prompt.NewBuilder("CTX: " + prompt.Marker)
	require.NoError(t, err)
	emitter := batch.NewEmitter(builder, "o4-mini")

	var buf bytes.Buffer
	n, err := emitter.Emit(&buf, testRecords(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &line))
	assert.Equal(t, "task-0", line["custom_id"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/chat/completions", line["url"])

	body := line["body"].(map[string]interface{})
	assert.Equal(t, "o4-mini", body["model"])

	messages := body["messages"].([]interface{})
	require.Len(t, messages, 2)

	system := messages[0].(map[string]interface{})
	assert.Equal(t, "system", system["role"])
	assert.Equal(t, prompt.SystemMessage, system["content"])

	user := messages[1].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	assert.Contains(t, user["content"], "Moringa Oil")

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "task-1", second["custom_id"])
}

func TestEmitter_Emit_Deterministic(t *testing.T) {
	builder, err := prompt.NewBuilder("CTX: " + prompt.Marker)
	require.NoError(t, err)
	emitter := batch.NewEmitter(builder, "o4-mini")
	recs := testRecords(t)

	var first, second bytes.Buffer
	_, err = emitter.Emit(&first, recs)
	require.NoError(t, err)
	_, err = emitter.Emit(&second, recs)
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestEmitter_Emit_NoRecords(t *testing.T) {
	builder, err := prompt.NewBuilder("CTX: " + prompt.Marker)
	require.NoError(t, err)
	emitter := batch.NewEmitter(builder, "o4-mini")

	var buf bytes.Buffer
	n, err := emitter.Emit(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, buf.Len())
}
