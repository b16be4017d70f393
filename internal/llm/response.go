package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseError reports LLM content that could not be turned into a protocol
// result. RawContent is the content exactly as the model produced it.
type ParseError struct {
	Message    string
	RawContent string
}

func (e *ParseError) Error() string {
	return "llm output invalid: " + e.Message
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// StripCodeFence removes a leading ```json or ``` fence and a trailing ```.
func StripCodeFence(content string) string {
	out := strings.TrimSpace(content)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```")
		if len(out) >= 4 && strings.EqualFold(out[:4], "json") {
			out = out[4:]
		}
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}

// ResponseSchema validates model output against a JSON Schema before it is
// decoded into a typed value.
type ResponseSchema struct {
	name   string
	schema *jsonschema.Schema
}

// MustCompileSchema compiles source (a JSON Schema document) and panics on
// error. Schemas are package-level constants, so failure is a programming bug.
func MustCompileSchema(name, source string) *ResponseSchema {
	return &ResponseSchema{
		name:   name,
		schema: jsonschema.MustCompileString(name+".json", source),
	}
}

// Decode runs the shared parsing steps on content: fence stripping, JSON
// parsing, the top-level object check and schema validation. On success the
// cleaned JSON is unmarshaled into out. Every failure is a *ParseError.
func (s *ResponseSchema) Decode(content string, out any) error {
	cleaned := StripCodeFence(content)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return &ParseError{Message: "not valid JSON", RawContent: content}
	}
	if _, ok := doc.(map[string]any); !ok {
		return &ParseError{Message: "not a JSON object", RawContent: content}
	}
	if err := s.schema.Validate(doc); err != nil {
		return &ParseError{Message: firstViolation(err), RawContent: content}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &ParseError{Message: fmt.Sprintf("%s: %v", s.name, err), RawContent: content}
	}
	return nil
}

// TrimmedText returns value trimmed of Unicode white space, or a *ParseError
// naming field when nothing is left.
func TrimmedText(content, field, value string) (string, error) {
	text := strings.TrimSpace(value)
	if text == "" {
		return "", &ParseError{Message: field + ": must not be empty", RawContent: content}
	}
	return text, nil
}

// firstViolation picks one leaf cause, ordered by instance location so the
// reported field is stable across runs.
func firstViolation(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	leaves := collectLeaves(verr, nil)
	if len(leaves) == 0 {
		return verr.Message
	}
	sort.SliceStable(leaves, func(i, j int) bool {
		if leaves[i].InstanceLocation != leaves[j].InstanceLocation {
			return leaves[i].InstanceLocation < leaves[j].InstanceLocation
		}
		return leaves[i].KeywordLocation < leaves[j].KeywordLocation
	})
	leaf := leaves[0]
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		field = "response"
	}
	return fmt.Sprintf("%s: %s", strings.ReplaceAll(field, "/", "."), leaf.Message)
}

func collectLeaves(verr *jsonschema.ValidationError, acc []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(verr.Causes) == 0 {
		return append(acc, verr)
	}
	for _, cause := range verr.Causes {
		acc = collectLeaves(cause, acc)
	}
	return acc
}
