// api/config/config.go
package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	Chain         ChainConfiguration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Operations    OperationConfiguration
	Cache         CacheConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// ChainConfiguration stores the ledger gateway connection settings
type ChainConfiguration struct {
	GatewayURL     string
	RequestTimeout string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// OperationConfiguration stores guarded-operation defaults
type OperationConfiguration struct {
	HistoryLimit   int
	PollInterval   string
	ConfirmTimeout string
	RecentsCap     int
}

// CacheConfiguration stores read-cache defaults
type CacheConfiguration struct {
	TTL string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("chain.gatewayURL", "http://localhost:8545")
	viper.SetDefault("chain.requestTimeout", "15s")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("cache.ttl", "5m")
	viper.SetDefault("operations.historyLimit", 10)
	viper.SetDefault("operations.pollInterval", "2s")
	// 0 preserves the unbounded confirmation wait of the original dashboard;
	// deployments that want a bound set a positive duration.
	viper.SetDefault("operations.confirmTimeout", "0s")
	viper.SetDefault("operations.recentsCap", 5)
	viper.SetDefault("log.dir", "logging")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration retrieves a duration value from the configuration
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}
