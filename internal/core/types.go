// Package core holds the shared domain types of the documentation assistant.
package core

import "time"

// Chunk is an indexed piece of library documentation.
type Chunk struct {
	ID       string
	Library  string
	Source   string
	Category string
	Content  string
	Index    int
}

// RetrievedDoc is a chunk with its similarity score for a query.
type RetrievedDoc struct {
	Chunk Chunk
	Score float64
}

// TokenUsage mirrors provider-reported token counts for one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolResult captures one tool invocation folded into an answer.
type ToolResult struct {
	Tool   string `json:"tool"`
	Input  string `json:"input"`
	Output string `json:"output"`
	Err    string `json:"error,omitempty"`
}

// Visual is the structured chart/table payload of a visual-mode answer.
type Visual struct {
	Type  string     `json:"type"`
	Title string     `json:"title,omitempty"`
	Data  VisualData `json:"data"`
	X     string     `json:"x,omitempty"`
	Y     string     `json:"y,omitempty"`
}

// VisualData is the columnar dataset backing a Visual.
type VisualData struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Answer is the assistant's reply to one question.
type Answer struct {
	Text        string       `json:"answer"`
	Language    string       `json:"language"`
	Sources     []string     `json:"sources,omitempty"`
	Strategy    string       `json:"strategy,omitempty"`
	Usage       TokenUsage   `json:"usage"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	Visual      *Visual      `json:"visual,omitempty"`
	AnsweredAt  time.Time    `json:"answered_at"`
}

// HistoryEntry is one turn of a session's conversation.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PackageInfo summarizes PyPI metadata for a package.
type PackageInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Summary     string   `json:"summary"`
	HomePage    string   `json:"home_page,omitempty"`
	License     string   `json:"license,omitempty"`
	RequiresDep []string `json:"requires_dist,omitempty"`
}
