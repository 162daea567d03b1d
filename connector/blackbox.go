package connector

import "context"

// Blackbox provides code assistance: completions and documentation
// generation for scaffolded projects.
type Blackbox struct {
	client
}

// Completion is a code completion response.
type Completion struct {
	Code string `json:"code"`
}

// Documentation is a generated documentation response.
type Documentation struct {
	Text string `json:"text"`
}

// NewBlackbox creates a Blackbox connector.
func NewBlackbox(baseURL, apiKey string, opts ...Option) *Blackbox {
	return &Blackbox{client: newClient("blackbox", baseURL, apiKey, opts...)}
}

// CodeCompletion requests a completion for a prompt.
func (c *Blackbox) CodeCompletion(ctx context.Context, prompt string) (*Completion, error) {
	var out Completion
	err := c.postJSON(ctx, "/code-completion", map[string]string{"prompt": prompt}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateDocs generates documentation for a piece of code.
func (c *Blackbox) GenerateDocs(ctx context.Context, code string) (*Documentation, error) {
	var out Documentation
	err := c.postJSON(ctx, "/generate-docs", map[string]string{"code": code}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
