package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jimezsa/careermatch/internal/server"
)

type ServeCmd struct {
	Listen string `help:"Listen address (default from config)."`
	Mode   string `help:"Where searches run: local or lambda." enum:",local,lambda" default:""`
	Agent  string `help:"Agent: keyword, bedrock, openai or anthropic." enum:",keyword,bedrock,openai,anthropic" default:""`
}

func (s *ServeCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}
	tool, err := svc.searchTool(toolOptions{Mode: s.Mode})
	if err != nil {
		return err
	}
	responder, err := svc.responder(s.Agent, tool)
	if err != nil {
		return err
	}
	store, closeStore, err := svc.memoryStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			ctx.Logger.Warn().Err(err).Msg("close memory store")
		}
	}()

	api := server.New(server.Options{
		Tool:      tool,
		Responder: responder,
		Memory:    store,
		Mode:      tool.Mode(),
		Logger:    ctx.Logger,
	})
	return api.ListenAndServe(runCtx, firstNonEmpty(s.Listen, ctx.Config.Listen))
}
