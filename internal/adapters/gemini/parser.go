package gemini

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"fieldwork/internal/domain"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Parser turns free-text work orders into structured fields via an LLM. It
// validates only that the response is JSON in the expected shape; field
// accuracy is the model's problem, not this adapter's.
type Parser struct {
	generator contentGenerator
	logger    *zap.Logger
}

func NewParser(generator contentGenerator, logger *zap.Logger) *Parser {
	return &Parser{generator: generator, logger: logger}
}

const promptTemplate = `You are a work order parsing assistant. Extract the following fields from the raw work order text and return ONLY a valid JSON object (no markdown, no explanation). If a field is not found, use a sensible default.

Raw work order text:
{{RAW_TEXT}}

Return JSON with these exact fields:
{
  "job_title": "string (concise title, max 100 chars)",
  "description": "string (detailed problem and scope)",
  "trade_needed": "string (one of: HVAC, Plumbing, Electrical, Handyman, Facilities Tech, Other)",
  "address_text": "string (full address)",
  "scheduled_start_ts": "string (ISO 8601 datetime, e.g. 2025-10-15T14:00:00)",
  "urgency": "string (one of: emergency, same_day, next_day, within_week, flexible)",
  "duration": "string (estimated time, e.g. '2-3 hours')",
  "budget_min": number (in dollars, minimum),
  "budget_max": number (in dollars, maximum),
  "pay_rate": "string (e.g. '$75/hr' or '$500 flat')",
  "contact_name": "string (requester name)",
  "contact_phone": "string (phone number)",
  "contact_email": "string (email address)"
}`

func (p *Parser) Parse(ctx context.Context, rawText string) (*domain.ParsedWorkOrder, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, &domain.ValidationError{Field: "raw_text", Message: "must not be empty"}
	}

	prompt := strings.ReplaceAll(promptTemplate, "{{RAW_TEXT}}", rawText)

	raw, err := p.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &domain.ParseError{Source: "gemini", Message: "generation failed", Err: err}
	}

	p.logger.Debug("gemini parse response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
	)

	cleaned := extractJSON(raw)
	var parsed domain.ParsedWorkOrder
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, &domain.ParseError{Source: "gemini", Message: "response is not valid JSON", Err: err}
	}
	return &parsed, nil
}

// extractJSON strips a markdown code fence when the model wraps its output in
// one despite instructions.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
