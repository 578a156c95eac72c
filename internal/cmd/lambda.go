package cmd

import (
	"context"
	"fmt"
	"time"

	lambdaruntime "github.com/aws/aws-lambda-go/lambda"
	"github.com/jimezsa/careermatch/internal/handler"
	"github.com/jimezsa/careermatch/internal/jobsearch"
)

const (
	LambdaSearch     = "search"
	LambdaJobsAction = "jobs-action"
	LambdaFrontend   = "frontend"
	LambdaCareer     = "career"
	LambdaResume     = "resume"
	LambdaProjects   = "projects"
	LambdaCourses    = "courses"
)

type LambdaCmd struct {
	Name string `arg:"" help:"Handler: search, jobs-action, frontend, career, resume, projects, courses." enum:"search,jobs-action,frontend,career,resume,projects,courses"`
}

func (l *LambdaCmd) Run(ctx *Context) error {
	svc, err := newServices(context.Background(), ctx)
	if err != nil {
		return err
	}
	fn, err := svc.lambdaHandler(l.Name)
	if err != nil {
		return err
	}
	ctx.Logger.Info().Str("handler", l.Name).Msg("starting lambda runtime")
	lambdaruntime.Start(fn)
	return nil
}

// lambdaHandler returns the Handle method for name, ready for
// lambdaruntime.Start.
func (s *services) lambdaHandler(name string) (any, error) {
	logger := s.logger.With().Str("handler", name).Logger()

	switch name {
	case LambdaSearch:
		// The search function is the provider caller, never a proxy to itself.
		tool, err := s.searchTool(toolOptions{Mode: jobsearch.ModeLocal})
		if err != nil {
			return nil, err
		}
		h := &handler.Search{Tool: tool, Logger: logger}
		return h.Handle, nil
	case LambdaJobsAction:
		tool, err := s.searchTool(toolOptions{})
		if err != nil {
			return nil, err
		}
		h := &handler.JobsAction{
			Tool:            tool,
			Throttle:        jobsearch.NewThrottle(time.Duration(s.cfg.ThrottleSeconds) * time.Second),
			DefaultLocation: s.cfg.DefaultLocation,
			Logger:          logger,
		}
		return h.Handle, nil
	case LambdaFrontend:
		h := &handler.Frontend{
			Agent:          s.agents(),
			AgentRef:       agentRef(s.cfg.Agents.Frontend),
			AllowedOrigins: s.cfg.Frontend.AllowedOrigins,
			FallbackOrigin: s.cfg.Frontend.FallbackOrigin,
			Logger:         logger,
		}
		return h.Handle, nil
	case LambdaCareer:
		h := &handler.Career{Agent: s.agents(), Agents: s.careerAgents(), Logger: logger}
		return h.Handle, nil
	case LambdaResume:
		h := &handler.Resume{Store: s.analyzer(), Logger: logger}
		return h.Handle, nil
	case LambdaProjects:
		h := &handler.Projects{Logger: logger}
		return h.Handle, nil
	case LambdaCourses:
		h := &handler.Courses{Logger: logger}
		return h.Handle, nil
	default:
		return nil, fmt.Errorf("unknown lambda handler %q", name)
	}
}
