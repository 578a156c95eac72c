package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName         = "careermatch"
	ConfigFileName  = "config.json"
	ProxiesFileName = "proxies.txt"
	MemoryFileName  = "memory.db"
	EnvFileName     = ".env"
)

// AgentRef names one deployed agent alias.
type AgentRef struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
}

// Agents lists the hosted agents the handlers route to.
type Agents struct {
	Frontend AgentRef `json:"frontend"`
	Job      AgentRef `json:"job"`
	Course   AgentRef `json:"course"`
	Project  AgentRef `json:"project"`
	Resume   AgentRef `json:"resume"`
}

// Anthropic configures the direct Claude extractor.
type Anthropic struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

type OpenAI struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

type Resume struct {
	Bucket          string `json:"bucket"`
	KnowledgeBaseID string `json:"knowledge_base_id"`
	DataSourceID    string `json:"data_source_id"`
}

type Frontend struct {
	AllowedOrigins []string `json:"allowed_origins"`
	FallbackOrigin string   `json:"fallback_origin"`
}

// Config contains the settings shared by the CLI, the local API and the
// Lambda handlers.
type Config struct {
	Region           string    `json:"region"`
	DefaultLocation  string    `json:"default_location"`
	DefaultLimit     int       `json:"default_limit"`
	ToolMode         string    `json:"tool_mode"`
	LambdaName       string    `json:"lambda_name"`
	SecretName       string    `json:"secret_name,omitempty"`
	SecretTTLSeconds int       `json:"secret_ttl_seconds"`
	ThrottleSeconds  int       `json:"throttle_seconds"`
	AgentMode        string    `json:"agent_mode"`
	ModelID          string    `json:"model_id"`
	MemoryBackend    string    `json:"memory_backend"`
	MemoryTable      string    `json:"memory_table"`
	MemoryPath       string    `json:"memory_path,omitempty"`
	Listen           string    `json:"listen"`
	OpenAI           OpenAI    `json:"openai"`
	Anthropic        Anthropic `json:"anthropic"`
	Agents           Agents    `json:"agents"`
	Resume           Resume    `json:"resume"`
	Frontend         Frontend  `json:"frontend"`
}

func DefaultConfig() Config {
	return Config{
		Region:           envString("AWS_REGION", "us-east-1"),
		DefaultLocation:  envString("CAREERMATCH_DEFAULT_LOCATION", "Austin, Texas"),
		DefaultLimit:     envInt("CAREERMATCH_DEFAULT_LIMIT", 10),
		ToolMode:         envString("JOB_TOOL_MODE", "local"),
		LambdaName:       envString("SERPAPI_LAMBDA_NAME", "serpapi-google-jobs"),
		SecretName:       envString("SERPAPI_SECRET_NAME", ""),
		SecretTTLSeconds: 300,
		ThrottleSeconds:  3,
		AgentMode:        envString("CAREERMATCH_AGENT_MODE", "keyword"),
		ModelID:          "anthropic.claude-3-sonnet-20240229-v1:0",
		MemoryBackend:    envString("CAREERMATCH_MEMORY_BACKEND", "sqlite"),
		MemoryTable:      envString("CAREERMATCH_MEMORY_TABLE", "AgenicUserMemory"),
		Listen:           envString("CAREERMATCH_LISTEN", "127.0.0.1:8000"),
		OpenAI: OpenAI{
			APIKey: envString("OPENAI_API_KEY", ""),
			Model:  "gpt-4o-mini",
		},
		Anthropic: Anthropic{
			APIKey: envString("ANTHROPIC_API_KEY", ""),
			Model:  "claude-3-5-haiku-latest",
		},
		Agents: Agents{
			Frontend: AgentRef{ID: "JGTQXH9PYU", Alias: "WTUG4HEFOY"},
			Job:      AgentRef{ID: "NZI8TPUR3R", Alias: "GEXWIDRZ1M"},
			Course:   AgentRef{ID: "OEH7N71AUQ", Alias: "GG3PK36DC4"},
			Project:  AgentRef{ID: "H4HK5PVH9W", Alias: "BNOQXCGRDA"},
			Resume:   AgentRef{ID: "LQLAP4LIDX", Alias: "2Y678X9SU8"},
		},
		Resume: Resume{
			Bucket:          "jobmarket-agent-knowledge",
			KnowledgeBaseID: "LZYESBWUB7",
			DataSourceID:    "DS67890XYZ",
		},
		Frontend: Frontend{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"https://main.du0i05f4q84fg.amplifyapp.com",
				"https://eidaadvisor.com",
				"https://www.eidaadvisor.com",
			},
			FallbackOrigin: "https://main.du0i05f4q84fg.amplifyapp.com",
		},
	}
}

// LoadEnv reads KEY=value pairs from .env in the working directory.
// Variables already set win; a missing file is not an error.
func LoadEnv() error {
	err := godotenv.Load(EnvFileName)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func ProxiesPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProxiesFileName), nil
}

func Load() (Config, error) {
	cfg := DefaultConfig()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg.withPaths(filepath.Dir(path)), nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg.withPaths(filepath.Dir(path)), nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg.withPaths(filepath.Dir(path)), nil
}

func (c Config) withPaths(dir string) Config {
	if c.MemoryPath == "" {
		c.MemoryPath = filepath.Join(dir, MemoryFileName)
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	return c
}

// Init writes default config.json and proxies.txt if they don't already exist.
func Init() ([]string, error) {
	var created []string

	dir, err := ConfigDir()
	if err != nil {
		return created, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		// Secrets stay in the environment.
		cfg.OpenAI.APIKey = ""
		cfg.Anthropic.APIKey = ""
		if err := writeConfig(configPath, cfg); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	proxiesPath := filepath.Join(dir, ProxiesFileName)
	if _, err := os.Stat(proxiesPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(proxiesPath, []byte(""), 0o644); err != nil {
			return created, err
		}
		created = append(created, proxiesPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func LoadProxies(flagValue string) ([]string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return splitCSV(flagValue), nil
	}

	if env := strings.TrimSpace(os.Getenv("CAREERMATCH_PROXIES")); env != "" {
		return splitCSV(env), nil
	}

	path, err := ProxiesPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var proxies []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxies = append(proxies, line)
	}
	return proxies, nil
}

// EnvBool reads a boolean flag from the environment.
func EnvBool(key string) bool {
	val, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && val
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
