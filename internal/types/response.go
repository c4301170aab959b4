package types

import (
	"strings"
	"time"
)

type ResponseType string

const (
	ResponseText       ResponseType = "text"
	ResponseError      ResponseType = "error"
	ResponseFileList   ResponseType = "file-list"
	ResponseDiff       ResponseType = "diff" // reserved, no handler produces it yet
	ResponseMultiStep  ResponseType = "multi-step"
	ResponseAIResponse ResponseType = "ai-response"
)

// SimulationStep is one timed message of a multi-step response.
type SimulationStep struct {
	Label   string        `json:"label"`
	Content string        `json:"content"`
	Delay   time.Duration `json:"delay"`
}

// CommandResponse is a tagged union keyed by Type. Only the fields relevant
// to Type are populated; use the constructors below.
type CommandResponse struct {
	Type        ResponseType     `json:"type"`
	Content     string           `json:"content,omitempty"`
	TypingSpeed time.Duration    `json:"typing_speed,omitempty"`
	Files       []string         `json:"files,omitempty"`
	Steps       []SimulationStep `json:"steps,omitempty"`
}

func Text(content string, speed time.Duration) CommandResponse {
	return CommandResponse{Type: ResponseText, Content: content, TypingSpeed: speed}
}

func AIResponse(content string, speed time.Duration) CommandResponse {
	return CommandResponse{Type: ResponseAIResponse, Content: content, TypingSpeed: speed}
}

func Error(content string) CommandResponse {
	return CommandResponse{Type: ResponseError, Content: content}
}

// FileList renders paths one per line as Content.
func FileList(paths []string) CommandResponse {
	return CommandResponse{Type: ResponseFileList, Content: strings.Join(paths, "\n"), Files: paths}
}

// MultiStep never carries a typing speed; pacing is per step.
func MultiStep(steps ...SimulationStep) CommandResponse {
	return CommandResponse{Type: ResponseMultiStep, Steps: steps}
}

// Animated reports whether the response should be revealed by the typing
// animator rather than written at once.
func (r CommandResponse) Animated() bool {
	return r.Type != ResponseMultiStep && r.TypingSpeed > 0 && r.Content != ""
}

// LineType is the log entry type a response is recorded under.
func (r CommandResponse) LineType() LineType {
	switch r.Type {
	case ResponseError:
		return LineError
	case ResponseAIResponse:
		return LineAIResponse
	default:
		return LineOutput
	}
}
