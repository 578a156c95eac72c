package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

type MemoryCmd struct {
	Get MemoryGetCmd `cmd:"" help:"Print the memory stored for a user."`
	Put MemoryPutCmd `cmd:"" help:"Replace the memory stored for a user."`
}

type MemoryGetCmd struct {
	User string `arg:"" help:"User id."`
}

type MemoryPutCmd struct {
	User string `arg:"" help:"User id."`
	Data string `arg:"" optional:"" help:"JSON object (JSON5 accepted). Read from stdin when omitted."`
}

func (m *MemoryGetCmd) Run(ctx *Context) error {
	runCtx := context.Background()
	store, closeStore, err := openMemory(runCtx, ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	data, err := store.Load(runCtx, m.User)
	if errors.Is(err, memory.ErrNotFound) {
		return fmt.Errorf("no memory stored for %q", m.User)
	}
	if err != nil {
		return err
	}
	return writeIndentedJSON(ctx, data)
}

func (m *MemoryPutCmd) Run(ctx *Context) error {
	raw := m.Data
	if strings.TrimSpace(raw) == "" {
		if ctx.In == nil {
			return fmt.Errorf("memory data required")
		}
		input, err := io.ReadAll(ctx.In)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		raw = string(input)
	}
	data, err := parseMemoryData(raw)
	if err != nil {
		return err
	}

	runCtx := context.Background()
	store, closeStore, err := openMemory(runCtx, ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Save(runCtx, m.User, data); err != nil {
		return err
	}
	ctx.UI.Successf("Saved memory for %s (%d keys)", m.User, len(data))
	return nil
}

func parseMemoryData(raw string) (memory.Data, error) {
	var data memory.Data
	if err := json5.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("parse memory data: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("memory data must be a JSON object")
	}
	return data, nil
}

func openMemory(runCtx context.Context, ctx *Context) (memory.Store, func() error, error) {
	svc, err := newServices(runCtx, ctx)
	if err != nil {
		return nil, nil, err
	}
	return svc.memoryStore()
}
