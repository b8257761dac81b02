package nl2sql

import "context"

type Request struct {
	SystemPrompt string `json:"system_prompt"`
	UserMessage  string `json:"user_message"`
}

// Result carries the model output as received and its sanitized SQL form.
type Result struct {
	Raw      string `json:"raw"`
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
