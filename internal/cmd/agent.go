package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimezsa/careermatch/internal/agent"
	"github.com/jimezsa/careermatch/internal/export"
)

type AgentCmd struct {
	Message string `arg:"" help:"Chat message, e.g. \"find data analyst jobs in Denver\"."`
	Mode    string `help:"Agent: keyword, bedrock, openai or anthropic." enum:",keyword,bedrock,openai,anthropic" default:""`
	Tool    string `help:"Where searches run: local or lambda." enum:",local,lambda" default:""`
	Hosted  bool   `help:"Send the message to the hosted frontend agent instead."`
	Session string `help:"Session id for --hosted." default:"cli"`
}

func (a *AgentCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}

	if a.Hosted {
		reply, err := svc.agents().Invoke(runCtx, agentRef(ctx.Config.Agents.Frontend), a.Session, a.Message)
		if err != nil {
			return err
		}
		if ctx.JSONOutput {
			return writeIndentedJSON(ctx, reply)
		}
		ctx.UI.Reply(reply.Text)
		return nil
	}

	tool, err := svc.searchTool(toolOptions{Mode: a.Tool})
	if err != nil {
		return err
	}
	responder, err := svc.responder(a.Mode, tool)
	if err != nil {
		return err
	}
	answer, err := responder.Respond(runCtx, a.Message)
	if err != nil {
		return err
	}
	return renderAnswer(ctx, answer)
}

func renderAnswer(ctx *Context, answer agent.Answer) error {
	if ctx.JSONOutput {
		return writeIndentedJSON(ctx, map[string]any{"results": answer})
	}

	switch {
	case answer.Error != "":
		return errors.New(answer.Error)
	case answer.Search != nil:
		format := export.FormatTable
		if ctx.PlainText || !isTTY(ctx.Out) {
			format = export.FormatTSV
		}
		return export.WriteResult(ctx.Out, *answer.Search, format, export.WriteOptions{
			ColorEnabled: ctx.UI.ColorEnabled,
			LinkStyle:    export.LinkStyleFull,
		})
	case answer.Message != "":
		ctx.UI.Infof("%s", answer.Message)
	default:
		ctx.UI.Reply(answer.Text)
	}
	return nil
}

func writeIndentedJSON(ctx *Context, value any) error {
	enc := json.NewEncoder(ctx.Out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
