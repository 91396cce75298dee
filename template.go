package ragline

import (
	"strings"
	"text/template"
)

// DefaultTemplateText is the built-in prompt for single-turn answering. It
// carries two slots: {{.Context}} and {{.Question}}.
const DefaultTemplateText = `You are a professional assistant. Answer the user's question using only the context below.

## Context
{{.Context}}

## Question
{{.Question}}

## Guidelines
1. Answer only from the context above; do not invent information.
2. If the context does not contain the answer, say so explicitly.
3. Keep the answer complete, clear, and well structured.

## Answer
`

// DefaultConversationalTemplateText adds a {{.History}} slot so the model can
// resolve references to earlier turns.
const DefaultConversationalTemplateText = `You are a professional assistant. Answer the user's question using the conversation history and the context below.

## Conversation history
{{.History}}

## Context
{{.Context}}

## Question
{{.Question}}

Answer from the context; consult the history when the question refers back to earlier turns. If neither contains the answer, say so explicitly.

## Answer
`

// PromptTemplate renders a prompt string from named slots using Go
// text/template syntax. Slot values are supplied as a map or struct, e.g.
//
//	tmpl, _ := NewPromptTemplate("qa", DefaultTemplateText)
//	prompt, _ := tmpl.Render(map[string]any{"Context": ctx, "Question": q})
type PromptTemplate struct {
	name string
	tmpl *template.Template
}

// NewPromptTemplate parses text into a reusable template.
func NewPromptTemplate(name, text string) (*PromptTemplate, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}
	return &PromptTemplate{name: name, tmpl: tmpl}, nil
}

// MustPromptTemplate is NewPromptTemplate that panics on a parse error.
// Intended for package-level defaults.
func MustPromptTemplate(name, text string) *PromptTemplate {
	tmpl, err := NewPromptTemplate(name, text)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// Name returns the identifier the template was created with.
func (p *PromptTemplate) Name() string { return p.name }

// Render fills the template slots from vars.
func (p *PromptTemplate) Render(vars any) (string, error) {
	var buf strings.Builder
	if err := p.tmpl.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
