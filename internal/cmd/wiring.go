package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jimezsa/careermatch/internal/agent"
	"github.com/jimezsa/careermatch/internal/bedrock"
	"github.com/jimezsa/careermatch/internal/config"
	"github.com/jimezsa/careermatch/internal/intent"
	"github.com/jimezsa/careermatch/internal/jobsearch"
	"github.com/jimezsa/careermatch/internal/memory"
	"github.com/jimezsa/careermatch/internal/network"
	"github.com/jimezsa/careermatch/internal/resume"
	"github.com/jimezsa/careermatch/internal/secrets"
	"github.com/jimezsa/careermatch/internal/serp"
	"github.com/rs/zerolog"
)

const (
	AgentModeKeyword   = "keyword"
	AgentModeBedrock   = "bedrock"
	AgentModeOpenAI    = "openai"
	AgentModeAnthropic = "anthropic"

	MemorySQLite = "sqlite"
	MemoryDynamo = "dynamodb"

	proxyBanDuration = 10 * time.Minute
)

// services builds components from one config and one set of AWS
// credentials. Provider clients built from it share the secret cache.
type services struct {
	cfg         config.Config
	aws         aws.Config
	logger      zerolog.Logger
	secretCache *secrets.Cache
}

func newServices(ctx context.Context, rc *Context) (*services, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(rc.Config.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &services{
		cfg:         rc.Config,
		aws:         awsCfg,
		logger:      rc.Logger,
		secretCache: secrets.NewCache(time.Duration(rc.Config.SecretTTLSeconds) * time.Second),
	}, nil
}

type toolOptions struct {
	Mode    string
	Proxies string
	Raw     bool
}

func (s *services) searchTool(opts toolOptions) (*jobsearch.Tool, error) {
	mode, err := jobsearch.ParseMode(firstNonEmpty(opts.Mode, s.cfg.ToolMode))
	if err != nil {
		return nil, err
	}
	if mode == jobsearch.ModeLambda {
		searcher := &jobsearch.LambdaSearcher{
			Client:       lambda.NewFromConfig(s.aws),
			FunctionName: s.cfg.LambdaName,
		}
		return jobsearch.NewTool(mode, searcher, s.logger), nil
	}

	client, err := s.serpClient(opts)
	if err != nil {
		return nil, err
	}
	return jobsearch.NewTool(mode, client, s.logger), nil
}

func (s *services) serpClient(opts toolOptions) (*serp.Client, error) {
	proxies, err := config.LoadProxies(opts.Proxies)
	if err != nil {
		return nil, err
	}

	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, proxyBanDuration)
		if err != nil {
			return nil, err
		}
		s.logger.Debug().Int("proxies", rotator.Len()).Int("available", rotator.Available()).Msg("proxy rotation enabled")
	}
	httpClient, err := network.NewClient(rotator, network.Options{})
	if err != nil {
		return nil, err
	}

	keys := &secrets.Resolver{
		SecretName: s.cfg.SecretName,
		Client:     secretsmanager.NewFromConfig(s.aws),
		Cache:      s.secretCache,
		Logger:     s.logger,
	}
	return serp.NewClient(httpClient, keys, serp.WithRaw(opts.Raw), serp.WithLogger(s.logger)), nil
}

func (s *services) responder(mode string, tool agent.SearchTool) (agent.Responder, error) {
	switch strings.ToLower(strings.TrimSpace(firstNonEmpty(mode, s.cfg.AgentMode))) {
	case "", AgentModeKeyword:
		return &agent.Keyword{Tool: tool, Logger: s.logger}, nil
	case AgentModeBedrock:
		extractor := bedrock.NewModelExtractor(bedrockruntime.NewFromConfig(s.aws), s.cfg.ModelID, s.logger)
		return &agent.Extracting{Extractor: extractor, Tool: tool, Logger: s.logger}, nil
	case AgentModeOpenAI:
		extractor, err := bedrock.NewOpenAIExtractor(bedrock.OpenAIConfig{
			APIKey:  s.cfg.OpenAI.APIKey,
			BaseURL: s.cfg.OpenAI.BaseURL,
			Model:   s.cfg.OpenAI.Model,
		}, s.logger)
		if err != nil {
			return nil, fmt.Errorf("openai agent: %w", err)
		}
		return &agent.Extracting{Extractor: extractor, Tool: tool, Logger: s.logger}, nil
	case AgentModeAnthropic:
		extractor, err := bedrock.NewAnthropicExtractor(bedrock.AnthropicConfig{
			APIKey:  s.cfg.Anthropic.APIKey,
			BaseURL: s.cfg.Anthropic.BaseURL,
			Model:   s.cfg.Anthropic.Model,
		}, s.logger)
		if err != nil {
			return nil, fmt.Errorf("anthropic agent: %w", err)
		}
		return &agent.Extracting{Extractor: extractor, Tool: tool, Logger: s.logger}, nil
	default:
		return nil, fmt.Errorf("unknown agent mode %q (valid: keyword, bedrock, openai, anthropic)", mode)
	}
}

// memoryStore opens the configured backend. The returned func releases it.
func (s *services) memoryStore() (memory.Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(s.cfg.MemoryBackend)) {
	case "", MemorySQLite:
		store, err := memory.NewSQLiteStore(s.cfg.MemoryPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case MemoryDynamo, "dynamo":
		store := memory.NewDynamoStore(dynamodb.NewFromConfig(s.aws), s.cfg.MemoryTable)
		return store, func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown memory backend %q (valid: sqlite, dynamodb)", s.cfg.MemoryBackend)
	}
}

func (s *services) analyzer() *resume.Analyzer {
	return resume.NewAnalyzer(
		s3.NewFromConfig(s.aws),
		bedrockagent.NewFromConfig(s.aws),
		bedrockagentruntime.NewFromConfig(s.aws),
		resume.Settings{
			Bucket:          s.cfg.Resume.Bucket,
			KnowledgeBaseID: s.cfg.Resume.KnowledgeBaseID,
			DataSourceID:    s.cfg.Resume.DataSourceID,
		},
		s.logger,
	)
}

func (s *services) agents() *bedrock.AgentInvoker {
	runtime := bedrock.RuntimeAgents{Client: bedrockagentruntime.NewFromConfig(s.aws)}
	return bedrock.NewAgentInvoker(runtime, s.logger)
}

func (s *services) careerAgents() map[intent.Intent]bedrock.AgentRef {
	agents := s.cfg.Agents
	return map[intent.Intent]bedrock.AgentRef{
		intent.Job:     agentRef(agents.Job),
		intent.Course:  agentRef(agents.Course),
		intent.Project: agentRef(agents.Project),
		intent.Resume:  agentRef(agents.Resume),
	}
}

func agentRef(ref config.AgentRef) bedrock.AgentRef {
	return bedrock.AgentRef{ID: ref.ID, Alias: ref.Alias}
}
