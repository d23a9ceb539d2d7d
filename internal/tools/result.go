package tools

import (
	"encoding/json"
	"strings"
)

// ContentBlock is one piece of tool output. Only text blocks are produced.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the output of one tool call.
type Result struct {
	Content []ContentBlock `json:"content"`
}

// NewJSONResult serializes v as indented JSON into a single text block.
func NewJSONResult(v any) (*Result, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Result{Content: []ContentBlock{{Type: "text", Text: string(b)}}}, nil
}

// Text returns the concatenated text of all blocks.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, c := range r.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}
