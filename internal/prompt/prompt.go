// Package prompt builds the schema-constrained instruction sent to the
// model for each record.
package prompt

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"prodnorm/internal/domain"
)

// Marker is the placeholder in the instruction template replaced by the
// serialized record context.
const Marker = "<<<INPUT_PRODUCT_JSON>>>"

// SystemMessage accompanies every prompt as the system role content.
const SystemMessage = "You are a helpful, precise data formatter."

//go:embed template.txt
var defaultTemplate string

// DefaultTemplate returns the embedded instruction template.
func DefaultTemplate() string { return defaultTemplate }

// Builder renders the final user prompt for a record.
type Builder struct {
	template string
}

// NewBuilder creates a new Builder. An empty template selects the
// embedded default. The template must contain Marker exactly once.
func NewBuilder(template string) (*Builder, error) {
	if template == "" {
		template = defaultTemplate
	}
	switch n := strings.Count(template, Marker); n {
	case 1:
	case 0:
		return nil, domain.ErrMarkerMissing
	default:
		return nil, fmt.Errorf("prompt template contains input marker %d times, want exactly one", n)
	}
	return &Builder{template: template}, nil
}

// Build substitutes the record context into the template. Deterministic
// fields come first in the payload so the model sees them before the
// raw dump.
func (b *Builder) Build(det domain.DeterministicFields, raw domain.RawRecord) (string, error) {
	payload := struct {
		Deterministic domain.DeterministicFields `json:"deterministic"`
		Raw           domain.RawRecord           `json:"raw"`
	}{Deterministic: det, Raw: raw}

	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("marshaling prompt context: %w", err)
	}
	context := strings.TrimSuffix(sb.String(), "\n")
	return strings.Replace(b.template, Marker, context, 1), nil
}
