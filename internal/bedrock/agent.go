// Package bedrock talks to hosted agents and models.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/rs/zerolog"
)

var ErrAgentNotConfigured = errors.New("agent id and alias are required")

// AgentRef names one deployed agent alias.
type AgentRef struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
}

func (r AgentRef) Valid() bool {
	return r.ID != "" && r.Alias != ""
}

// EventSource is the completion stream of one agent call.
// *bedrockagentruntime.InvokeAgentEventStream satisfies it.
type EventSource interface {
	Events() <-chan types.ResponseStream
	Close() error
	Err() error
}

// AgentStream is an open agent response.
type AgentStream struct {
	Source      EventSource
	SessionID   string
	ContentType string
}

// AgentAPI opens agent completions.
type AgentAPI interface {
	InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (*AgentStream, error)
}

// RuntimeAgents adapts the Bedrock agent runtime client to AgentAPI.
type RuntimeAgents struct {
	Client *bedrockagentruntime.Client
}

func (r RuntimeAgents) InvokeAgent(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (*AgentStream, error) {
	out, err := r.Client.InvokeAgent(ctx, in)
	if err != nil {
		return nil, err
	}
	return &AgentStream{
		Source:      out.GetStream(),
		SessionID:   aws.ToString(out.SessionId),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// Reply is the collected answer of an agent.
type Reply struct {
	Text        string `json:"text"`
	SessionID   string `json:"sessionId,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Chunks      int    `json:"chunks"`
}

// AgentInvoker sends input to agents and collects the streamed text.
type AgentInvoker struct {
	api    AgentAPI
	logger zerolog.Logger
}

func NewAgentInvoker(api AgentAPI, logger zerolog.Logger) *AgentInvoker {
	return &AgentInvoker{api: api, logger: logger}
}

// Invoke runs one agent turn. Chunk bytes are concatenated in order with
// invalid UTF-8 dropped. The text is trimmed and may be empty.
func (a *AgentInvoker) Invoke(ctx context.Context, ref AgentRef, sessionID, input string) (Reply, error) {
	if !ref.Valid() {
		return Reply{}, ErrAgentNotConfigured
	}
	a.logger.Debug().
		Str("agent", ref.ID).
		Str("session", sessionID).
		Str("input", preview(input, 80)).
		Msg("invoking agent")

	stream, err := a.api.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(ref.ID),
		AgentAliasId: aws.String(ref.Alias),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(input),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("invoke agent %s: %w", ref.ID, err)
	}

	reply := Reply{SessionID: stream.SessionID, ContentType: stream.ContentType}
	if stream.Source == nil {
		return reply, nil
	}
	defer stream.Source.Close()

	var text strings.Builder
	for event := range stream.Source.Events() {
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			continue
		}
		text.Write(chunk.Value.Bytes)
		reply.Chunks++
	}
	if err := stream.Source.Err(); err != nil {
		return Reply{}, fmt.Errorf("read agent %s stream: %w", ref.ID, err)
	}

	reply.Text = strings.TrimSpace(strings.ToValidUTF8(text.String(), ""))
	a.logger.Debug().Str("agent", ref.ID).Int("chunks", reply.Chunks).Int("chars", len(reply.Text)).Msg("agent replied")
	return reply, nil
}

func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
