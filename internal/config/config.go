/**
 * @description
 * This file handles configuration management for the customer service.
 * It uses the Viper library to read settings from environment variables or a
 * .env file, making the application environment-agnostic.
 *
 * @dependencies
 * - github.com/spf13/viper: For configuration management.
 *
 * @notes
 * - Configuration is loaded into a `Config` struct for type-safe access
 *   throughout the application.
 * - Queue and exchange names default to the values the collaborator services
 *   bind to, so a local compose stack works without any wiring-related env vars.
 */
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	// Collaborator RPC queues this service sends requests to.
	WalletQueue  string `mapstructure:"WALLET_RPC_QUEUE"`
	LoyaltyQueue string `mapstructure:"LOYALTY_RPC_QUEUE"`

	// Queues and bindings this service consumes.
	InfoCustomerQueue  string `mapstructure:"INFO_CUSTOMER_RPC_QUEUE"`
	RegisterExchange   string `mapstructure:"REGISTER_EXCHANGE"`
	RegisterQueue      string `mapstructure:"REGISTER_QUEUE"`
	RegisterRoutingKey string `mapstructure:"REGISTER_ROUTING_KEY"`

	CognitoJWKSURL string `mapstructure:"COGNITO_JWKS_URL"`

	RPCTimeoutSeconds        int `mapstructure:"RPC_TIMEOUT_SECONDS"`
	CreateRateLimitPerMinute int `mapstructure:"CREATE_RATE_LIMIT_PER_MINUTE"`
}

// RPCTimeout returns the collaborator call deadline as a duration.
func (c *Config) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSeconds) * time.Second
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("WALLET_RPC_QUEUE", "wallet_rpc_queue")
	viper.SetDefault("LOYALTY_RPC_QUEUE", "loyalty_rpc_queue")
	viper.SetDefault("INFO_CUSTOMER_RPC_QUEUE", "info_customer_rpc_queue")
	viper.SetDefault("REGISTER_EXCHANGE", "customer_register_exchange")
	viper.SetDefault("REGISTER_QUEUE", "customer_register_queue")
	viper.SetDefault("REGISTER_ROUTING_KEY", "customer.register")
	viper.SetDefault("RPC_TIMEOUT_SECONDS", 5)
	viper.SetDefault("CREATE_RATE_LIMIT_PER_MINUTE", 30)

	// This allows viper to read variables from the environment
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	for _, key := range []string{
		"SERVER_PORT",
		"DATABASE_URL",
		"RABBITMQ_URL",
		"REDIS_URL",
		"WALLET_RPC_QUEUE",
		"LOYALTY_RPC_QUEUE",
		"INFO_CUSTOMER_RPC_QUEUE",
		"REGISTER_EXCHANGE",
		"REGISTER_QUEUE",
		"REGISTER_ROUTING_KEY",
		"COGNITO_JWKS_URL",
		"RPC_TIMEOUT_SECONDS",
		"CREATE_RATE_LIMIT_PER_MINUTE",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not fatal; environment variables alone
		// are enough in containerized deployments.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required")
	}
	if config.RPCTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("RPC_TIMEOUT_SECONDS must be positive")
	}

	return &config, nil
}
