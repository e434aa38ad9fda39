// Package llm wraps the Anthropic API for summary generation. It is a
// pure collaborator: nothing here evaluates summaries — judging stays
// in internal/scoring so the judge is independent of the generator.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client wraps the Anthropic API for summary generation.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// Model returns the opaque model tag recorded on generated candidates.
func (c *Client) Model() string {
	return string(c.model)
}

// buildSummaryPrompt constructs the system and user prompts for a
// first draft.
func buildSummaryPrompt(docText string) (system string, user string) {
	system = `You summarize financial documents professionally. Rules:
- Write a single flowing summary of 4-8 complete sentences
- Cover the concrete topics the document discusses (allocations, contributions, tax treatment, risk, monitoring, rebalancing) rather than generalities
- State findings plainly; do not hedge with words like "maybe" or "probably" unless the document itself is uncertain
- Use plain prose only: no headings, bullet points, or markdown
- End every sentence with terminal punctuation`

	var sb strings.Builder
	sb.WriteString("Summarize this document:\n\n")
	sb.WriteString(docText)
	user = sb.String()
	return
}

// buildRegeneratePrompt constructs prompts for a fresh draft after a
// rejection. The reviewer's feedback is the only extra input.
func buildRegeneratePrompt(docText, priorSummary, feedback string) (system string, user string) {
	system = `You revise rejected document summaries. A human reviewer rejected the previous summary and gave feedback. Rules:
- Write a completely fresh summary that addresses the feedback
- Keep everything from the previous summary that the feedback did not criticize
- Write 4-8 complete sentences of plain prose, no markdown
- State findings plainly; avoid hedging language
- End every sentence with terminal punctuation`

	var sb strings.Builder
	sb.WriteString("Document:\n\n")
	sb.WriteString(docText)
	sb.WriteString("\n\nPrevious summary (rejected):\n\n")
	sb.WriteString(priorSummary)
	sb.WriteString("\n\nReviewer feedback:\n\n")
	sb.WriteString(feedback)
	user = sb.String()
	return
}

// Summarize sends document text to the LLM and returns a draft summary.
func (c *Client) Summarize(ctx context.Context, docText string) (string, error) {
	system, user := buildSummaryPrompt(docText)
	return c.complete(ctx, system, user)
}

// Regenerate produces a fresh draft for a document whose previous
// summary was rejected, steering by the reviewer's feedback.
func (c *Client) Regenerate(ctx context.Context, docText, priorSummary, feedback string) (string, error) {
	system, user := buildRegeneratePrompt(docText, priorSummary, feedback)
	return c.complete(ctx, system, user)
}

func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}

	return stripFencing(text), nil
}

// stripFencing removes markdown fencing some models wrap output in.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
