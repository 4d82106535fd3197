package agentproc

import (
	"encoding/json"

	"github.com/planwright/planwright/internal/domain"
)

// rawStreamLine is the minimal shape shared by both backends' NDJSON
// output; per-backend field dialects are translated into the common
// StreamEvent union here rather than exposed to callers. Full per-CLI
// stream parsing is the out-of-scope collaborator spec.md names; this is
// just enough to keep the phase drivers self-contained for grounding and
// tests.
type rawStreamLine struct {
	Type       string `json:"type"`
	Text       string `json:"text"`
	ToolID     string `json:"tool_id"`
	ToolName   string `json:"tool_name"`
	Preview    string `json:"preview"`
	Summary    string `json:"summary"`
	IsError    bool   `json:"is_error"`
	TokensIn   int64  `json:"tokens_in"`
	TokensOut  int64  `json:"tokens_out"`
	TokensCache int64 `json:"tokens_cache"`
	StopReason string `json:"stop_reason"`
	Model      string `json:"model"`
	Conversation string `json:"conversation_id"`
	Final      string `json:"final"`
}

func parseJSONStreamEvent(line []byte) (StreamEvent, bool) {
	var raw rawStreamLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return StreamEvent{}, false
	}

	switch raw.Type {
	case "text_delta":
		return StreamEvent{Kind: StreamTextDelta, Text: raw.Text}, true
	case "tool_started":
		return StreamEvent{Kind: StreamToolStarted, ToolID: raw.ToolID, ToolName: raw.ToolName, ToolPreview: raw.Preview}, true
	case "tool_result":
		return StreamEvent{Kind: StreamToolResult, ToolID: raw.ToolID, ToolIsError: raw.IsError, ToolSummary: raw.Summary}, true
	case "token_usage":
		return StreamEvent{Kind: StreamTokenUsage, TokensIn: raw.TokensIn, TokensOut: raw.TokensOut, TokensCache: raw.TokensCache}, true
	case "stop_reason":
		return StreamEvent{Kind: StreamStopReason, StopReason: raw.StopReason}, true
	case "model_detected":
		return StreamEvent{Kind: StreamModelDetected, ModelName: raw.Model}, true
	case "conversation_id":
		return StreamEvent{Kind: StreamConversationID, ConversationID: domain.ConversationId(raw.Conversation)}, true
	case "turn_completed":
		return StreamEvent{Kind: StreamTurnCompleted}, true
	case "final_result":
		return StreamEvent{Kind: StreamFinalResult, FinalOutput: raw.Final, FinalIsError: raw.IsError}, true
	default:
		return StreamEvent{}, false
	}
}
