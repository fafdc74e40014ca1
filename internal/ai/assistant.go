// Package ai wraps an OpenAI-compatible chat completion API with the prompts
// used for resume analysis, job matching and cover letters.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"jobtrack.dev/internal/validation"
)

var (
	// ErrUnavailable means no API key was configured.
	ErrUnavailable = errors.New("ai: assistant not configured")
	// ErrUpstream wraps failures of the completion API, including replies
	// that are not the JSON object that was asked for.
	ErrUpstream = errors.New("ai: upstream failure")
)

const (
	analyzeResumePrompt = `You are an expert resume analyzer. Extract and organize the following information from the resume:
1. Skills (technical and soft skills)
2. Experience (company names, titles, dates, and key achievements)
3. Education
4. Key strengths
5. Suggested job titles to search for

Format the response as a JSON object.`

	matchJobPrompt = `You are an expert job matcher. Analyze the job description and the candidate's profile to:
1. Calculate a match percentage
2. List matching skills
3. List missing skills
4. Provide specific recommendations for the application

Format the response as a JSON object.`

	coverLetterPrompt = `You are an expert cover letter writer. Write a professional, compelling cover letter that:
1. Is tailored to the specific job and company
2. Highlights relevant skills and experiences
3. Shows enthusiasm and cultural fit
4. Maintains a professional yet personable tone

Format the letter with proper business letter structure.`

	improvementsPrompt = `You are an expert career coach. Analyze the application materials and provide:
1. Resume improvement suggestions
2. Cover letter improvement suggestions
3. Overall application strategy recommendations
4. Interview preparation tips

Format the response as a JSON object.`
)

// Completer is the part of *openai.Client the assistant needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config selects the model endpoint.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// Assistant runs the prompts. A zero-value client makes every call fail
// with ErrUnavailable.
type Assistant struct {
	client      Completer
	model       string
	temperature float32
}

// New builds an Assistant backed by the OpenAI API, or an unavailable one
// when cfg has no API key.
func New(cfg Config) *Assistant {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &Assistant{}
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}
	return NewWithClient(openai.NewClientWithConfig(oc), cfg.Model, cfg.Temperature)
}

// NewWithClient uses an existing completion client.
func NewWithClient(c Completer, model string, temperature float32) *Assistant {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Assistant{client: c, model: model, temperature: temperature}
}

// Enabled reports whether calls can reach a model.
func (a *Assistant) Enabled() bool { return a != nil && a.client != nil }

// AnalyzeResume extracts skills, experience and suggested titles.
func (a *Assistant) AnalyzeResume(ctx context.Context, resumeText string) (json.RawMessage, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, validation.Field("resume_text", "is required")
	}
	return a.completeJSON(ctx, analyzeResumePrompt, resumeText)
}

// MatchJob compares a job description with an analyzed resume.
func (a *Assistant) MatchJob(ctx context.Context, jobDescription string, resumeAnalysis json.RawMessage) (json.RawMessage, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, validation.Field("job_description", "is required")
	}
	profile, err := compactObject("resume_analysis", resumeAnalysis)
	if err != nil {
		return nil, err
	}
	user := fmt.Sprintf("Job Description: %s\n\nCandidate Profile: %s", jobDescription, profile)
	return a.completeJSON(ctx, matchJobPrompt, user)
}

// GenerateCoverLetter writes a letter for the company and role.
func (a *Assistant) GenerateCoverLetter(ctx context.Context, jobDescription string, resumeAnalysis json.RawMessage, companyName string) (string, error) {
	switch {
	case strings.TrimSpace(jobDescription) == "":
		return "", validation.Field("job_description", "is required")
	case strings.TrimSpace(companyName) == "":
		return "", validation.Field("company_name", "is required")
	}
	profile, err := compactObject("resume_analysis", resumeAnalysis)
	if err != nil {
		return "", err
	}
	user := fmt.Sprintf("Company: %s\nJob Description: %s\nCandidate Profile: %s", companyName, jobDescription, profile)
	return a.complete(ctx, coverLetterPrompt, user, false)
}

// SuggestImprovements reviews resume, cover letter and strategy.
func (a *Assistant) SuggestImprovements(ctx context.Context, materials json.RawMessage) (json.RawMessage, error) {
	body, err := compactObject("application_materials", materials)
	if err != nil {
		return nil, err
	}
	return a.completeJSON(ctx, improvementsPrompt, body)
}

func (a *Assistant) completeJSON(ctx context.Context, system, user string) (json.RawMessage, error) {
	content, err := a.complete(ctx, system, user, true)
	if err != nil {
		return nil, err
	}
	raw := json.RawMessage(strings.TrimSpace(content))
	if !isObject(raw) {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrUpstream)
	}
	return raw, nil
}

func (a *Assistant) complete(ctx context.Context, system, user string, jsonReply bool) (string, error) {
	if !a.Enabled() {
		return "", ErrUnavailable
	}
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: a.temperature,
	}
	if jsonReply {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty reply", ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func compactObject(field string, raw json.RawMessage) (string, error) {
	if !isObject(raw) {
		return "", validation.Field(field, "must be a JSON object")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", validation.Field(field, "must be a JSON object")
	}
	return buf.String(), nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
