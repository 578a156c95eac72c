package cmd

import "github.com/alecthomas/kong"

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `help:"Print version."`

	Version VersionCmd `cmd:"" help:"Print version."`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration."`
	Search  SearchCmd  `cmd:"" help:"Search Google Jobs listings."`
	Watch   WatchCmd   `cmd:"" help:"Rerun searches on a schedule and print new jobs."`
	Agent   AgentCmd   `cmd:"" help:"Ask the job search agent."`
	Serve   ServeCmd   `cmd:"" help:"Serve the local JSON API."`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Serve job search and memory as MCP tools on stdio."`
	Lambda  LambdaCmd  `cmd:"" help:"Run a handler inside the AWS Lambda runtime."`
	Memory  MemoryCmd  `cmd:"" help:"Read and write user memory."`
	Resume  ResumeCmd  `cmd:"" help:"Resume utilities."`
	Proxies ProxiesCmd `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}
