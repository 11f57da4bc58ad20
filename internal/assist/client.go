// Package assist turns free-form reminder requests ("remind grandma to
// take her pills every morning at eight") into structured reminder fields
// using an OpenAI-compatible model. The model either returns fields for a
// create_reminder action or asks for clarification; the caller creates a
// reminder only in the first case.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"domovoy/internal/metrics"
	"domovoy/internal/models"
)

// Actions the model may answer with.
const (
	ActionCreateReminder = "create_reminder"
	ActionClarify        = "clarify"
)

// ReminderFields is the structured payload extracted from free text.
type ReminderFields struct {
	UserName   string `json:"user_name,omitempty"`
	Title      string `json:"title"`
	Date       string `json:"date,omitempty"` // YYYY-MM-DD
	Time       string `json:"time"`           // HH:MM
	Recurrence string `json:"recurrence,omitempty"`
	Type       string `json:"type,omitempty"`
}

// ParseResult is the model's answer: either fields to create a reminder
// from, or a clarification question to surface unchanged.
type ParseResult struct {
	Action string         `json:"action"`
	Fields ReminderFields `json:"fields,omitempty"`
	Prompt string         `json:"prompt,omitempty"`
}

// Client calls the configured model.
type Client struct {
	client *openai.Client
	model  string
	cache  *Cache
}

// New creates an assist client. baseURL allows OpenAI-compatible gateways;
// cache may be nil.
func New(apiKey, baseURL, model string, cache *Cache) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		cache:  cache,
	}
}

const systemPromptTemplate = `You extract household reminders from natural language.

Reference date: %s (use it to resolve relative dates like "tomorrow" or "next monday").
The person speaking is %q. Known household members: %s.

Respond with JSON only, in one of two shapes:

1. Enough information to create a reminder:
{"action": "create_reminder", "fields": {
  "user_name": "<household member the reminder is for; default to the speaker>",
  "title": "<short imperative title>",
  "date": "<YYYY-MM-DD, omit if the user gave no date>",
  "time": "<HH:MM 24-hour>",
  "recurrence": "<none|daily|weekly|monthly|yearly>",
  "type": "<medication|activity|general>"
}}

2. Something essential is missing or ambiguous (no time given, unknown member name,
unintelligible request):
{"action": "clarify", "prompt": "<one short question to ask the user>"}

Rules:
- A reminder needs at least a title and a time; ask rather than guess.
- "every day/morning/night" means daily; "every week" weekly, and so on.
- Mentions of pills, medication or doses are type medication; sports,
  walks and appointments are activity; otherwise general.`

func (c *Client) systemPrompt(speaker string, members []string, refDate time.Time) string {
	return fmt.Sprintf(systemPromptTemplate,
		refDate.Format(models.DateLayout), speaker, strings.Join(members, ", "))
}

// Parse extracts reminder fields from text. Results are cached by
// normalized input so repeating the same phrasing on the same day does
// not cost another model call.
func (c *Client) Parse(ctx context.Context, text, speaker string, members []string, refDate time.Time) (*ParseResult, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(ctx, text, speaker, refDate); ok {
			metrics.IncParse("cached")
			return cached, nil
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: c.systemPrompt(speaker, members, refDate),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		metrics.IncParse("error")
		return nil, fmt.Errorf("assist model call: %w", err)
	}
	if len(resp.Choices) == 0 {
		metrics.IncParse("error")
		return nil, fmt.Errorf("assist model returned no choices")
	}

	result, err := decodeResult(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.IncParse("error")
		return nil, err
	}
	metrics.IncParse(result.Action)

	if c.cache != nil {
		c.cache.Set(ctx, text, speaker, refDate, result)
	}
	return result, nil
}

// decodeResult parses and sanity-checks the model output.
func decodeResult(content string) (*ParseResult, error) {
	var result ParseResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("decode assist response: %w", err)
	}

	switch result.Action {
	case ActionCreateReminder:
		if result.Fields.Title == "" || result.Fields.Time == "" {
			return nil, fmt.Errorf("assist response missing title or time")
		}
	case ActionClarify:
		if result.Prompt == "" {
			result.Prompt = "Could you rephrase that?"
		}
	default:
		return nil, fmt.Errorf("assist response has unknown action %q", result.Action)
	}
	return &result, nil
}

// ToReminder builds a dormant reminder from parsed fields, applying the
// documented defaults: missing date is today, missing recurrence is none,
// missing type is general. resolveUser maps a member name to an id; an
// unknown name falls back to the speaker's id.
func (f ReminderFields) ToReminder(refDate time.Time, speakerID string, resolveUser func(name string) (string, bool)) models.Reminder {
	r := models.Reminder{
		UserID:     speakerID,
		Title:      f.Title,
		Date:       f.Date,
		Time:       f.Time,
		Recurrence: models.Recurrence(f.Recurrence),
		Type:       models.ReminderType(f.Type),
	}
	if f.UserName != "" && resolveUser != nil {
		if id, ok := resolveUser(f.UserName); ok {
			r.UserID = id
		}
	}
	if r.Date == "" {
		r.Date = refDate.Format(models.DateLayout)
	}
	r.Normalize(refDate)
	return r
}
