package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/cnpj-cli/internal/cache"
	"github.com/sells-group/cnpj-cli/pkg/brasilapi"
	"github.com/sells-group/cnpj-cli/pkg/cnpjws"
	"github.com/sells-group/cnpj-cli/pkg/minhareceita"
	"github.com/sells-group/cnpj-cli/pkg/pncp"
	"github.com/sells-group/cnpj-cli/pkg/receitaws"
	"github.com/sells-group/cnpj-cli/pkg/serpro"
	"github.com/sells-group/cnpj-cli/pkg/transparencia"
)

// Config holds the full application configuration.
type Config struct {
	Serpro        serpro.Config        `yaml:"serpro" mapstructure:"serpro"`
	CNPJWS        cnpjws.Config        `yaml:"cnpjws" mapstructure:"cnpjws"`
	MinhaReceita  minhareceita.Config  `yaml:"minhareceita" mapstructure:"minhareceita"`
	BrasilAPI     brasilapi.Config     `yaml:"brasilapi" mapstructure:"brasilapi"`
	ReceitaWS     receitaws.Config     `yaml:"receitaws" mapstructure:"receitaws"`
	Transparencia transparencia.Config `yaml:"transparencia" mapstructure:"transparencia"`
	PNCP          pncp.Config          `yaml:"pncp" mapstructure:"pncp"`
	Cache         cache.Config         `yaml:"cache" mapstructure:"cache"`
	Resolve       ResolveConfig        `yaml:"resolve" mapstructure:"resolve"`
	Throttle      ThrottleConfig       `yaml:"throttle" mapstructure:"throttle"`
	HTTP          HTTPConfig           `yaml:"http" mapstructure:"http"`
	Store         StoreConfig          `yaml:"store" mapstructure:"store"`
	Server        ServerConfig         `yaml:"server" mapstructure:"server"`
	Log           LogConfig            `yaml:"log" mapstructure:"log"`
}

// ResolveConfig configures consolidation.
type ResolveConfig struct {
	// TrustFile points to an optional YAML trust-order override.
	TrustFile string   `yaml:"trust_file" mapstructure:"trust_file"`
	Order     []string `yaml:"trust_order" mapstructure:"trust_order"`
	// DumpFile is the on-disk fallback payload dump.
	DumpFile string `yaml:"dump_file" mapstructure:"dump_file"`
}

// ThrottleConfig configures the interactive trigger gate.
type ThrottleConfig struct {
	MinInterval time.Duration `yaml:"min_interval" mapstructure:"min_interval"`
}

// HTTPConfig configures the shared HTTP layer.
type HTTPConfig struct {
	UserAgent   string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// StoreConfig configures the lookup-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP facade.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CNPJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "cnpj.db")
	v.SetDefault("serpro.base_url", "https://gateway.apiserpro.serpro.gov.br/consulta-cnpj-df/v2")
	// Credential keys get explicit empty defaults so AutomaticEnv sees them.
	v.SetDefault("serpro.token", "")
	v.SetDefault("cnpjws.api_token", "")
	v.SetDefault("transparencia.api_key", "")
	v.SetDefault("cnpjws.base_url", "https://comercial.cnpj.ws")
	v.SetDefault("minhareceita.base_url", "https://minhareceita.org")
	v.SetDefault("brasilapi.base_url", "https://brasilapi.com.br/api")
	v.SetDefault("receitaws.base_url", "https://receitaws.com.br/v1")
	v.SetDefault("transparencia.base_url", "https://api.portaldatransparencia.gov.br/api-de-dados")
	v.SetDefault("transparencia.page_size", 100)
	v.SetDefault("transparencia.max_pages", 2000)
	v.SetDefault("transparencia.page_gap", "150ms")
	v.SetDefault("pncp.base_url", "https://pncp.gov.br/api/consulta")
	v.SetDefault("pncp.page_size", 50)
	v.SetDefault("pncp.max_pages", 2000)
	v.SetDefault("pncp.page_gap", "150ms")
	v.SetDefault("cache.registry_ttl", "24h")
	v.SetDefault("cache.list_ttl", "1h")
	v.SetDefault("throttle.min_interval", "2s")
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.max_attempts", 5)
	v.SetDefault("resolve.dump_file", "fallback.json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
