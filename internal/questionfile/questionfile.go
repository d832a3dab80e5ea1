// Package questionfile loads authored questions from JSON or YAML files.
package questionfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://question-file.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ErrInvalidFile wraps every schema or decoding failure.
var ErrInvalidFile = errors.New("invalid question file")

// Format selects the decoder.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the top-level shape of a question file.
type Document struct {
	Title     string             `json:"title,omitempty"`
	Questions []variant.Question `json:"questions"`
}

// fileQuestion lets expected_answer be written as a bare number or boolean.
type fileQuestion struct {
	variant.Question
	ExpectedAnswer looseString `json:"expected_answer,omitempty"`
}

type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(bytes.TrimSpace(data))
	return nil
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unsupported extension %q", ErrInvalidFile, filepath.Ext(path))
}

// Load reads and validates the question file at path.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question file: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a question file.
func Parse(data []byte, format Format) (*Document, error) {
	raw, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	schema, err := questionSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var file struct {
		Title     string         `json:"title"`
		Questions []fileQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	doc := &Document{Title: file.Title, Questions: make([]variant.Question, len(file.Questions))}
	seen := make(map[string]bool, len(file.Questions))
	for i, fq := range file.Questions {
		if seen[fq.ID] {
			return nil, fmt.Errorf("%w: %w: %s", ErrInvalidFile, variant.ErrDuplicateQuestionID, fq.ID)
		}
		seen[fq.ID] = true
		q := fq.Question
		q.ExpectedAnswer = string(fq.ExpectedAnswer)
		doc.Questions[i] = q
	}
	return doc, nil
}

func toJSON(data []byte, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return data, nil
	case FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFile, format)
}

func questionSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse question schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add question schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Write encodes questions in the given format, for exporting a stored set.
func Write(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(struct {
			Title     string             `yaml:"title,omitempty"`
			Questions []variant.Question `yaml:"questions"`
		}{doc.Title, doc.Questions})
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
