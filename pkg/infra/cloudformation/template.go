package cloudformation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

const templateFormatVersion = "2010-09-09"

type (
	Template struct {
		AWSTemplateFormatVersion string                       `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
		Description              string                       `json:"Description,omitempty" yaml:"Description,omitempty"`
		Parameters               map[string]Parameter         `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
		Resources                map[string]*TemplateResource `json:"Resources" yaml:"Resources"`
		Outputs                  map[string]Output            `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
	}

	Parameter struct {
		Type        string `json:"Type" yaml:"Type"`
		Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	}

	TemplateResource struct {
		Type                string         `json:"Type" yaml:"Type"`
		Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
		DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
		DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
		UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
		Metadata            map[string]any `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
	}

	Output struct {
		Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
		Value       any    `json:"Value" yaml:"Value"`
	}
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func NewTemplate(description string) *Template {
	return &Template{
		AWSTemplateFormatVersion: templateFormatVersion,
		Description:              description,
		Parameters:               make(map[string]Parameter),
		Resources:                make(map[string]*TemplateResource),
		Outputs:                  make(map[string]Output),
	}
}

var bufPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func releaseBuffer(buf *bytes.Buffer) {
	bufPool.Put(buf)
}

// Render encodes `v` in the given format. Map keys are sorted by both encoders, so equal values always render
// to equal bytes.
func Render(v any, format string) ([]byte, error) {
	buf := getBuffer()
	defer releaseBuffer(buf)

	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
	case FormatYAML:
		enc := yaml.NewEncoder(buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported template format %q", format)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func extension(format string) string {
	if format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}
