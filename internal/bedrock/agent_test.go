package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	events chan types.ResponseStream
	err    error
	closed bool
}

func newFakeSource(err error, events ...types.ResponseStream) *fakeSource {
	ch := make(chan types.ResponseStream, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeSource{events: ch, err: err}
}

func (f *fakeSource) Events() <-chan types.ResponseStream { return f.events }
func (f *fakeSource) Close() error                        { f.closed = true; return nil }
func (f *fakeSource) Err() error                          { return f.err }

type fakeAgents struct {
	input  *bedrockagentruntime.InvokeAgentInput
	stream *AgentStream
	err    error
}

func (f *fakeAgents) InvokeAgent(_ context.Context, in *bedrockagentruntime.InvokeAgentInput) (*AgentStream, error) {
	f.input = in
	return f.stream, f.err
}

func chunk(b string) types.ResponseStream {
	return &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte(b)}}
}

func TestAgentInvokerConcatenatesChunks(t *testing.T) {
	source := newFakeSource(nil,
		chunk("  Hello "),
		&types.ResponseStreamMemberTrace{},
		chunk("wor\xffld  "),
	)
	api := &fakeAgents{stream: &AgentStream{Source: source, SessionID: "s-1"}}
	invoker := NewAgentInvoker(api, zerolog.Nop())

	reply, err := invoker.Invoke(context.Background(), AgentRef{ID: "A1", Alias: "AL"}, "s-1", "find jobs")
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if reply.Text != "Hello world" {
		t.Fatalf("text = %q", reply.Text)
	}
	if reply.Chunks != 2 || reply.SessionID != "s-1" {
		t.Fatalf("reply = %+v", reply)
	}
	if !source.closed {
		t.Fatalf("stream not closed")
	}
	if aws.ToString(api.input.AgentId) != "A1" || aws.ToString(api.input.AgentAliasId) != "AL" ||
		aws.ToString(api.input.InputText) != "find jobs" {
		t.Fatalf("input = %+v", api.input)
	}
}

func TestAgentInvokerEmptyReply(t *testing.T) {
	api := &fakeAgents{stream: &AgentStream{Source: newFakeSource(nil)}}
	reply, err := NewAgentInvoker(api, zerolog.Nop()).Invoke(context.Background(), AgentRef{ID: "A", Alias: "B"}, "s", "x")
	if err != nil || reply.Text != "" {
		t.Fatalf("Invoke() = %+v, %v", reply, err)
	}
}

func TestAgentInvokerErrors(t *testing.T) {
	invoker := NewAgentInvoker(&fakeAgents{}, zerolog.Nop())
	if _, err := invoker.Invoke(context.Background(), AgentRef{}, "s", "x"); !errors.Is(err, ErrAgentNotConfigured) {
		t.Fatalf("error = %v", err)
	}

	boom := errors.New("throttled")
	invoker = NewAgentInvoker(&fakeAgents{err: boom}, zerolog.Nop())
	if _, err := invoker.Invoke(context.Background(), AgentRef{ID: "A", Alias: "B"}, "s", "x"); !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}

	broken := &fakeAgents{stream: &AgentStream{Source: newFakeSource(boom, chunk("partial"))}}
	invoker = NewAgentInvoker(broken, zerolog.Nop())
	if _, err := invoker.Invoke(context.Background(), AgentRef{ID: "A", Alias: "B"}, "s", "x"); !errors.Is(err, boom) {
		t.Fatalf("stream error = %v", err)
	}
}
