package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/concierge/backend/internal/service/ai"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Store    StoreConfig
	Database DatabaseConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	aiCfg, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		AI:       aiCfg,
		Store:    loadStoreConfig(),
		Database: database,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
	// PublicBaseURL is used to build embed codes and preview links.
	PublicBaseURL string
	// AdminAPIKey guards the admin routes when set.
	AdminAPIKey string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	var addr string
	switch {
	case strings.Contains(port, ":"):
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		addr = port
	case strings.Contains(port, " "):
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	default:
		addr = ":" + port
	}

	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	baseURL := getEnvOrDefault("PUBLIC_BASE_URL", "http://"+host)

	return ServerConfig{
		Addr:          addr,
		PublicBaseURL: strings.TrimRight(baseURL, "/"),
		AdminAPIKey:   strings.TrimSpace(os.Getenv("ADMIN_API_KEY")),
	}, nil
}

// StoreConfig 描述租户配置快照的位置。
type StoreConfig struct {
	DataFile string
	// EnvBlob replaces the file when set; it is never written back.
	EnvBlob string
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		DataFile: getEnvOrDefault("CHATBOT_DATA_FILE", "data/chatbots.json"),
		EnvBlob:  strings.TrimSpace(os.Getenv("CHATBOT_CONFIGS")),
	}
}

// DatabaseConfig 描述会话日志数据库。URL 为空时使用内存存储。
type DatabaseConfig struct {
	URL          string
	StoreTimeout time.Duration
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	timeout, err := parseOptionalIntEnv("STORE_TIMEOUT_SECONDS")
	if err != nil {
		return DatabaseConfig{}, err
	}
	storeTimeout := 5 * time.Second
	if timeout != nil && *timeout > 0 {
		storeTimeout = time.Duration(*timeout) * time.Second
	}

	return DatabaseConfig{
		URL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StoreTimeout: storeTimeout,
	}, nil
}

// Provider names accepted by AI_PROVIDER.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider      string
	APIKey        string
	AccessKey     string
	SecretKey     string
	Model         string
	BaseURL       string
	Region        string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
}

// ArkEnabled 表示是否提供了 Ark 必需的密钥。
func (c AIConfig) ArkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// OpenAIEnabled reports whether an OpenAI key is present.
func (c AIConfig) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// ResolvedProvider picks the provider to use, or "" when nothing is configured.
// An explicit AI_PROVIDER wins when its credentials exist.
func (c AIConfig) ResolvedProvider() string {
	switch c.Provider {
	case ProviderArk:
		if c.ArkEnabled() {
			return ProviderArk
		}
	case ProviderOpenAI:
		if c.OpenAIEnabled() {
			return ProviderOpenAI
		}
	}
	if c.ArkEnabled() {
		return ProviderArk
	}
	if c.OpenAIEnabled() {
		return ProviderOpenAI
	}
	return ""
}

// NewChatModel 使用配置创建一个 Ark 模型实例，采样参数固定。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	temperature := float32(ai.Temperature)
	maxTokens := ai.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	timeout, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS")
	if err != nil {
		return AIConfig{}, err
	}
	aiTimeout := 30 * time.Second
	if timeout != nil && *timeout > 0 {
		aiTimeout = time.Duration(*timeout) * time.Second
	}

	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AI_PROVIDER")))
	if provider != "" && provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	modelName := strings.TrimSpace(os.Getenv("ARK_MODEL"))
	if modelName == "" {
		modelName = strings.TrimSpace(os.Getenv("Model"))
	}

	return AIConfig{
		Provider:      provider,
		APIKey:        strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:     strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:     strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:         modelName,
		BaseURL:       getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:        getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:   strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Timeout:       aiTimeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
