package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/retry"
)

type (
	Config struct {
		ConfigName string         `mapstructure:"config_name" validate:"required"`
		Client     ClientConfig   `mapstructure:"client"`
		Failover   FailoverConfig `mapstructure:"failover"`
		Server     ServerConfig   `mapstructure:"server"`

		env Env
	}

	ClientConfig struct {
		Endpoints EndpointList  `mapstructure:"endpoints" validate:"dive"`
		Timeout   time.Duration `mapstructure:"timeout"`
		// MaxConns bounds the idle connections kept per endpoint.
		MaxConns int `mapstructure:"max_conns" validate:"min=0"`
	}

	// EndpointList may be decoded from yaml or, when overridden by an environment variable, from JSON.
	EndpointList []Endpoint

	Endpoint struct {
		Name     string `json:"name" mapstructure:"name" validate:"required"`
		Url      string `json:"url" mapstructure:"url"`
		User     string `json:"user" mapstructure:"user"`
		Password string `json:"password" mapstructure:"password"`
		Priority int    `json:"priority" mapstructure:"priority"`
		// Weight is carried for proportional selection among equally ranked endpoints.
		// Routing currently follows Priority only.
		Weight uint8 `json:"weight" mapstructure:"weight"`
	}

	FailoverConfig struct {
		MaxRetries          int           `mapstructure:"max_retries" validate:"min=1"`
		RetryDelay          time.Duration `mapstructure:"retry_delay" validate:"min=0"`
		RequestTimeout      time.Duration `mapstructure:"request_timeout" validate:"required"`
		HealthCheckInterval time.Duration `mapstructure:"health_check_interval" validate:"required"`
		HealthCheckTimeout  time.Duration `mapstructure:"health_check_timeout" validate:"required"`
		HealthCheckMethod   string        `mapstructure:"health_check_method" validate:"required"`
		FailureThreshold    int           `mapstructure:"failure_threshold" validate:"min=1"`
	}

	ServerConfig struct {
		BindAddress string `mapstructure:"bind_address" validate:"required"`
	}

	ConfigOption func(options *configOptions)

	Env string

	configOptions struct {
		Env Env `validate:"required,oneof=production development local"`
	}

	// derivedConfig defines a callback where a config struct can override its fields based on the global config.
	derivedConfig interface {
		DeriveConfig(cfg *Config)
	}
)

const (
	EnvVarEnvironment = "RPCFAILOVER_ENVIRONMENT"
	EnvVarTestType    = "TEST_TYPE"

	Namespace = "rpcfailover"
	envPrefix = "RPCFAILOVER"

	EnvBase        Env = "base"
	EnvLocal       Env = "local"
	EnvProduction  Env = "production"
	EnvDevelopment Env = "development"
	envSecrets     Env = "secrets" // .secrets.yml is merged last

	placeholderURL = "<placeholder>"

	DefaultMaxRetries          = 3
	DefaultRetryDelay          = time.Second
	DefaultRequestTimeout      = 30 * time.Second
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultHealthCheckTimeout  = 5 * time.Second
	DefaultHealthCheckMethod   = "eth_blockNumber"
	DefaultFailureThreshold    = 3
	defaultClientTimeout       = 30 * time.Second

	tagEnv    = "env"
	tagConfig = "config"

	currentFileName = "/internal/config/config.go"
)

var (
	_ derivedConfig = (*ClientConfig)(nil)
	_ derivedConfig = (*FailoverConfig)(nil)
)

func New(opts ...ConfigOption) (*Config, error) {
	validate := validator.New()

	configOpts := getConfigOptions(opts...)
	if err := validate.Struct(configOpts); err != nil {
		return nil, xerrors.Errorf("failed to validate config options: %w", err)
	}

	configReader, err := getConfigData(Namespace, EnvBase)
	if err != nil {
		return nil, xerrors.Errorf("failed to locate config file: %w", err)
	}

	cfg := Config{
		env: configOpts.Env,
	}

	v := viper.New()
	v.SetConfigName(string(EnvBase))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read the data in base.yml
	if err := v.ReadConfig(configReader); err != nil {
		return nil, xerrors.Errorf("failed to read config: %w", err)
	}

	// Merge in the env-specific config, such as development.yml
	if err := mergeInConfig(v, configOpts.Env); err != nil {
		return nil, xerrors.Errorf("failed to merge in %v config: %w", configOpts.Env, err)
	}

	// Merge in .secrets.yml if available.
	if err := mergeInConfig(v, envSecrets); err != nil {
		return nil, xerrors.Errorf("failed to merge in %v config: %w", envSecrets, err)
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.setDerivedConfigs(reflect.ValueOf(&cfg))

	if err := validate.Struct(&cfg); err != nil {
		return nil, xerrors.Errorf("failed to validate config: %w", err)
	}

	return &cfg, nil
}

func mergeInConfig(v *viper.Viper, env Env) error {
	// Merge in the env-specific config if available.
	if configReader, err := getConfigData(Namespace, env); err == nil {
		v.SetConfigName(string(env))
		if err := v.MergeConfig(configReader); err != nil {
			return xerrors.Errorf("failed to merge config %v: %w", env, err)
		}
	}
	return nil
}

func (c *Config) Env() Env {
	return c.env
}

func (c *Config) GetCommonTags() map[string]string {
	return map[string]string{
		tagEnv:    string(c.Env()),
		tagConfig: c.ConfigName,
	}
}

func (c *Config) IsIntegrationTest() bool {
	return os.Getenv(EnvVarTestType) == "integration"
}

func (c *Config) IsTest() bool {
	return os.Getenv(EnvVarTestType) != ""
}

// setDerivedConfigs recursively calls DeriveConfig on all the derivedConfig.
func (c *Config) setDerivedConfigs(v reflect.Value) {
	if v.CanInterface() {
		if oc, ok := v.Interface().(derivedConfig); ok {
			oc.DeriveConfig(c)
			return
		}
	}

	elem := v.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if field.Kind() == reflect.Struct && field.CanAddr() && field.Addr().CanInterface() {
			c.setDerivedConfigs(field.Addr())
		}
	}
}

func getConfigOptions(opts ...ConfigOption) *configOptions {
	env := Env(os.Getenv(EnvVarEnvironment))
	if env == "" {
		env = EnvLocal
	}

	configOpts := &configOptions{
		Env: env,
	}

	for _, opt := range opts {
		opt(configOpts)
	}
	return configOpts
}

func getConfigData(namespace string, env Env) (io.Reader, error) {
	if env == envSecrets {
		// .secrets.yml is intentionally not embedded in config.Store.
		// Read it from the file system instead.
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			return nil, xerrors.Errorf("failed to recover the filename information")
		}
		rootDir := strings.TrimSuffix(filename, currentFileName)
		configPath := fmt.Sprintf("%v/config/%v/.secrets.yml", rootDir, namespace)
		reader, err := os.Open(configPath) // #nosec G304 - potential file inclusion via variable
		if err != nil {
			return nil, xerrors.Errorf("failed to read config file %v: %w", configPath, err)
		}
		return reader, nil
	}

	configPath := fmt.Sprintf("%s/%v.yml", namespace, env)

	return config.Store.Open(configPath)
}

func WithEnvironment(env Env) ConfigOption {
	return func(opts *configOptions) {
		opts.Env = env
	}
}

func (c *ClientConfig) DeriveConfig(cfg *Config) {
	if c.Timeout == 0 {
		c.Timeout = defaultClientTimeout
	}
}

func (c *FailoverConfig) DeriveConfig(cfg *Config) {
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}

	if c.HealthCheckInterval == 0 {
		c.HealthCheckInterval = DefaultHealthCheckInterval
	}

	if c.HealthCheckTimeout == 0 {
		c.HealthCheckTimeout = DefaultHealthCheckTimeout
	}

	if c.HealthCheckMethod == "" {
		c.HealthCheckMethod = DefaultHealthCheckMethod
	}

	if c.FailureThreshold == 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
}

// NewRetry returns the per-endpoint retry policy:
// up to MaxRetries attempts, waiting RetryDelay * n before the n-th retry.
func (c *FailoverConfig) NewRetry(opts ...retry.Option) retry.Retry {
	opts = append(
		opts,
		retry.WithMaxAttempts(c.MaxRetries),
		retry.WithBackoffFactory(retry.LinearBackoffFactory(c.RetryDelay)),
	)
	return retry.New(opts...)
}

// ConfiguredEndpoints returns the endpoints that have a usable url, in registration order.
func (c *ClientConfig) ConfiguredEndpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(c.Endpoints))
	for _, endpoint := range c.Endpoints {
		if !endpoint.IsConfigured() {
			continue
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints
}

// IsConfigured returns false if the url is missing or still a placeholder such as "<placeholder>".
func (e *Endpoint) IsConfigured() bool {
	url := strings.TrimSpace(e.Url)
	if url == "" || url == placeholderURL {
		return false
	}

	if strings.HasPrefix(url, "<") && strings.HasSuffix(url, ">") {
		return false
	}

	return true
}

func (l *EndpointList) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return nil
	}

	var endpoints []Endpoint
	if err := json.Unmarshal(text, &endpoints); err != nil {
		return xerrors.Errorf("failed to parse endpoints JSON: %w", err)
	}

	for _, endpoint := range endpoints {
		if endpoint.Name == "" {
			return xerrors.New("empty endpoint.Name")
		}
	}

	*l = endpoints
	return nil
}
