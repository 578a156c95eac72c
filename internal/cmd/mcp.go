package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/jimezsa/careermatch/internal/toolserver"
)

type MCPCmd struct {
	Mode     string `help:"Where searches run: local or lambda." enum:",local,lambda" default:""`
	NoMemory bool   `name:"no-memory" help:"Do not expose the memory tools."`
}

func (m *MCPCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return err
	}
	tool, err := svc.searchTool(toolOptions{Mode: m.Mode})
	if err != nil {
		return err
	}

	var store memory.Store
	if !m.NoMemory {
		opened, closeStore, err := svc.memoryStore()
		if err != nil {
			return err
		}
		defer func() {
			if err := closeStore(); err != nil {
				ctx.Logger.Warn().Err(err).Msg("close memory store")
			}
		}()
		store = opened
	}

	srv := toolserver.New(toolserver.Options{
		Tool:    tool,
		Memory:  store,
		Version: ctx.Version,
		Logger:  ctx.Logger,
	})
	ctx.Logger.Debug().Str("mode", tool.Mode()).Bool("memory", store != nil).Msg("mcp server on stdio")
	return toolserver.ServeStdio(runCtx, srv, ctx.In, ctx.Out)
}
