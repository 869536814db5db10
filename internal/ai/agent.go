// Package ai is the shop owner's Gemini assistant. The model only reads the
// caller's own shop through the Toolbox.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/auth"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// maxToolRounds bounds how many times the model may call back into tools
// for one question.
const maxToolRounds = 5

// chat is the part of *genai.ChatSession the assistant drives.
type chat interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type Assistant struct {
	apiKey string
	model  string
	tools  *Toolbox
	now    func() time.Time
}

func NewAssistant(apiKey, model string, tools *Toolbox) *Assistant {
	return &Assistant{apiKey: apiKey, model: model, tools: tools, now: time.Now}
}

// Ask answers an admin's question about their shop.
func (a *Assistant) Ask(ctx context.Context, p auth.Principal, message string) (string, error) {
	if err := p.Require(auth.AdminOnly); err != nil {
		return "", err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.New(apperr.InvalidInput, "message is required")
	}
	if a.apiKey == "" {
		return "", apperr.New(apperr.Internal, "AI assistant is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(a.apiKey))
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err, "AI assistant is unavailable")
	}
	defer client.Close()

	model := client.GenerativeModel(a.model)
	model.Tools = a.tools.Declarations()

	answer, err := a.converse(ctx, model.StartChat(), p, message)
	if err != nil {
		if apperr.KindOf(err) != apperr.Internal {
			return "", err
		}
		return "", apperr.Wrap(apperr.Internal, err, "AI assistant failed")
	}
	return answer, nil
}

// converse sends the prompt and keeps answering tool calls until the model
// replies with text.
func (a *Assistant) converse(ctx context.Context, session chat, p auth.Principal, message string) (string, error) {
	resp, err := session.SendMessage(ctx, genai.Text(a.prompt(message)))
	if err != nil {
		return "", err
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			return printResponse(resp), nil
		}

		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.tools.Call(ctx, p, call.Name, call.Args)
			if err != nil {
				return "", fmt.Errorf("tool %s: %w", call.Name, err)
			}
			replies = append(replies, genai.FunctionResponse{Name: call.Name, Response: result})
		}

		resp, err = session.SendMessage(ctx, replies...)
		if err != nil {
			return "", err
		}
	}
	return printResponse(resp), nil
}

func (a *Assistant) prompt(message string) string {
	today := a.now().Format(time.DateOnly)
	return fmt.Sprintf(`SYSTEM: Today is %s. You are the assistant of a retail shop's POS. Amounts are in rupees.

RULES:
1. If the user asks for PRICE, COST, STOCK, or DETAILS of a product, call 'check_inventory' and read the JSON to answer.
2. If the user asks for sales/revenue, use 'get_sales_report'. Both dates are inclusive.
3. If the user asks what to reorder or what is running out, use 'get_low_stock'.
4. You cannot change data. Say so if asked.

USER: %s`, today, message)
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	var calls []genai.FunctionCall
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if fc, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func printResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "I could not come up with an answer."
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "I completed the action."
	}
	return sb.String()
}
