// Package batch emits model-completion request files and merges their
// asynchronous results back into rows.
package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"prodnorm/internal/domain"
	"prodnorm/internal/prompt"
)

// CustomID returns the stable correlation id for the record at the
// given ordinal.
func CustomID(ordinal int) string {
	return fmt.Sprintf("task-%d", ordinal)
}

// OrdinalFromCustomID recovers a record ordinal from its custom id: the
// substring after the last hyphen, parsed as an integer.
func OrdinalFromCustomID(id string) (int, error) {
	idx := strings.LastIndex(id, "-")
	if idx == -1 || idx == len(id)-1 {
		return 0, fmt.Errorf("custom id %q has no ordinal suffix", id)
	}
	n, err := strconv.Atoi(id[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("parsing ordinal from custom id %q: %w", id, err)
	}
	return n, nil
}

type requestLine struct {
	CustomID string      `json:"custom_id"`
	Method   string      `json:"method"`
	URL      string      `json:"url"`
	Body     requestBody `json:"body"`
}

type requestBody struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Emitter writes one chat-completion request line per record.
type Emitter struct {
	builder *prompt.Builder
	model   string
}

// NewEmitter creates a new Emitter.
func NewEmitter(builder *prompt.Builder, model string) *Emitter {
	return &Emitter{builder: builder, model: model}
}

// Emit writes the request lines for records to w and returns the line
// count. The output is deterministic: the same record sequence yields
// byte-identical lines.
func (e *Emitter) Emit(w io.Writer, records []domain.Record) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	written := 0
	for _, rec := range records {
		p, err := e.builder.Build(rec.Deterministic, rec.Raw)
		if err != nil {
			return written, fmt.Errorf("building prompt for record %d: %w", rec.Ordinal, err)
		}
		line := requestLine{
			CustomID: CustomID(rec.Ordinal),
			Method:   "POST",
			URL:      "/chat/completions",
			Body: requestBody{
				Model: e.model,
				Messages: []message{
					{Role: "system", Content: prompt.SystemMessage},
					{Role: "user", Content: p},
				},
			},
		}
		if err := enc.Encode(line); err != nil {
			return written, fmt.Errorf("encoding request line %d: %w", rec.Ordinal, err)
		}
		written++
	}
	return written, nil
}
