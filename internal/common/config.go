package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
		Port string `yaml:"port"`
	} `yaml:"app"`

	Database struct {
		Driver string `yaml:"driver"` // mysql / postgres / sqlite
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	LLM struct {
		Provider  string `yaml:"provider"` // openai / hunyuan / gemini / none
		APIKey    string `yaml:"api_key"`
		BaseURL   string `yaml:"base_url"`
		Model     string `yaml:"model"`
		SecretID  string `yaml:"secret_id"`
		SecretKey string `yaml:"secret_key"`
		Region    string `yaml:"region"`
	} `yaml:"llm"`

	Scheduler struct {
		AnalysisSpec string `yaml:"analysis_spec"`
	} `yaml:"scheduler"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// LoadConfig 从YAML文件加载配置，文件不存在时只使用环境变量
func LoadConfig(path string) (*Config, error) {
	// .env 只是本地开发的便利，缺失不算错误
	_ = godotenv.Load()

	var config Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	overrideFromEnv(&config)
	applyDefaults(&config)
	return &config, nil
}

// DefaultConfigPath 默认配置文件路径
func DefaultConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "configs/app.yaml"
}

func overrideFromEnv(config *Config) {
	setFromEnv(&config.App.Env, "APP_ENV")
	setFromEnv(&config.App.Port, "APP_PORT")

	setFromEnv(&config.Database.Driver, "DB_DRIVER")
	setFromEnv(&config.Database.DSN, "MYSQL_DSN")
	setFromEnv(&config.Database.DSN, "DB_DSN")

	setFromEnv(&config.LLM.Provider, "LLM_PROVIDER")
	setFromEnv(&config.LLM.APIKey, "HUNYUAN_TOKEN")
	setFromEnv(&config.LLM.APIKey, "LLM_API_KEY")
	setFromEnv(&config.LLM.BaseURL, "LLM_BASE_URL")
	setFromEnv(&config.LLM.Model, "LLM_MODEL")
	setFromEnv(&config.LLM.SecretID, "TENCENTCLOUD_SECRETID")
	setFromEnv(&config.LLM.SecretKey, "TENCENTCLOUD_SECRETKEY")
	if strings.EqualFold(config.LLM.Provider, "gemini") {
		setFromEnv(&config.LLM.APIKey, "GEMINI_API_KEY")
	}

	setFromEnv(&config.Scheduler.AnalysisSpec, "ANALYSIS_CRON")
	setFromEnv(&config.NATS.URL, "NATS_URL")
	setFromEnv(&config.Log.Level, "LOG_LEVEL")
	setFromEnv(&config.Log.File, "LOG_FILE")
}

func setFromEnv(dst *string, key string) {
	if env := os.Getenv(key); env != "" {
		*dst = env
	}
}

func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "fantasy-backend"
	}
	if config.App.Env == "" {
		config.App.Env = "dev"
	}
	if config.App.Port == "" {
		config.App.Port = "8080"
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "mysql"
	}
	if config.Database.DSN == "" && config.Database.Driver == "sqlite" {
		config.Database.DSN = "fantasy.db"
	}
	if config.LLM.Provider == "" {
		config.LLM.Provider = "openai"
	}
	if config.LLM.Model == "" {
		switch config.LLM.Provider {
		case "gemini":
			config.LLM.Model = "gemini-2.5-flash"
		default:
			config.LLM.Model = "hunyuan-turbos-latest"
		}
	}
	if config.LLM.BaseURL == "" && config.LLM.Provider == "openai" {
		config.LLM.BaseURL = "https://api.hunyuan.cloud.tencent.com/v1"
	}
	if config.LLM.Region == "" {
		config.LLM.Region = "ap-guangzhou"
	}
	if config.Scheduler.AnalysisSpec == "" {
		config.Scheduler.AnalysisSpec = "@every 12h"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

// Print 打印配置摘要，敏感字段不输出
func (c *Config) Print() {
	Logger.Infow("配置加载完成",
		"env", c.App.Env,
		"port", c.App.Port,
		"db_driver", c.Database.Driver,
		"llm_provider", c.LLM.Provider,
		"llm_model", c.LLM.Model,
		"analysis_spec", c.Scheduler.AnalysisSpec,
		"nats", c.NATS.URL != "",
	)
}
