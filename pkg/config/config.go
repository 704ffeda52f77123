package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Etcd     EtcdConfig     `mapstructure:"etcd"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Toast    ToastConfig    `mapstructure:"toast"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Location LocationConfig `mapstructure:"location"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig describes the gRPC health listener.
type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type GatewayConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// StorageConfig selects where the persisted stores live. Driver is one of
// file, memory, redis, mongo or mysql.
type StorageConfig struct {
	Driver  string        `mapstructure:"driver"`
	Dir     string        `mapstructure:"dir"`
	Prefix  string        `mapstructure:"prefix"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

// Enabled reports whether discovery should be attempted at all.
func (c *EtcdConfig) Enabled() bool {
	return len(c.Endpoints) > 0
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type MongoDBConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

// CheckoutConfig holds the simulated gateway round-trip delays.
type CheckoutConfig struct {
	GatewayDelay time.Duration `mapstructure:"gateway_delay"`
	CounterDelay time.Duration `mapstructure:"counter_delay"`
	CardDelay    time.Duration `mapstructure:"card_delay"`
}

type ToastConfig struct {
	Duration  time.Duration `mapstructure:"duration"`
	MaxActive int           `mapstructure:"max_active"`
}

type PaymentConfig struct {
	MerchantID  string        `mapstructure:"merchant_id"`
	SaltKey     string        `mapstructure:"salt_key"`
	SaltIndex   string        `mapstructure:"salt_index"`
	BaseURL     string        `mapstructure:"base_url"`
	RedirectURL string        `mapstructure:"redirect_url"`
	CallbackURL string        `mapstructure:"callback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	CountryCode string        `mapstructure:"country_code"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ResendAfter time.Duration `mapstructure:"resend_after"`
}

type LocationConfig struct {
	Latitude    float64       `mapstructure:"latitude"`
	Longitude   float64       `mapstructure:"longitude"`
	GeocoderURL string        `mapstructure:"geocoder_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "kafe-kiosk")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 50051)

	v.SetDefault("gateway.host", "127.0.0.1")
	v.SetDefault("gateway.port", 8080)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.dir", "data")
	v.SetDefault("storage.prefix", "kafe")
	v.SetDefault("storage.timeout", 2*time.Second)

	v.SetDefault("etcd.endpoints", []string{})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/services/")
	v.SetDefault("etcd.lease_ttl", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("mysql.host", "localhost")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.username", "root")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "kafe")
	v.SetDefault("mysql.max_idle_conns", 2)
	v.SetDefault("mysql.max_open_conns", 5)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "kafe")
	v.SetDefault("mongodb.collection", "store_blobs")

	v.SetDefault("checkout.gateway_delay", 2*time.Second)
	v.SetDefault("checkout.counter_delay", time.Second)
	v.SetDefault("checkout.card_delay", 2500*time.Millisecond)

	v.SetDefault("toast.duration", 3*time.Second)
	v.SetDefault("toast.max_active", 5)

	v.SetDefault("payment.merchant_id", "MERCHANTUAT")
	v.SetDefault("payment.salt_key", "")
	v.SetDefault("payment.salt_index", "1")
	v.SetDefault("payment.base_url", "https://api-preprod.phonepe.com/apis/pg-sandbox")
	v.SetDefault("payment.redirect_url", "http://127.0.0.1:8080/payment/callback")
	v.SetDefault("payment.callback_url", "http://127.0.0.1:8080/api/phonepe/callback")
	v.SetDefault("payment.timeout", 15*time.Second)

	v.SetDefault("auth.country_code", "+91")
	v.SetDefault("auth.timeout", 15*time.Second)
	v.SetDefault("auth.resend_after", 30*time.Second)

	v.SetDefault("location.latitude", 0.0)
	v.SetDefault("location.longitude", 0.0)
	v.SetDefault("location.geocoder_url", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("location.cache_ttl", 10*time.Minute)
	v.SetDefault("location.timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// Load reads configPath (YAML) on top of the defaults. Any key can be
// overridden from the environment as KAFE_<SECTION>_<KEY>. An empty path
// yields defaults plus environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("kafe")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		// Read config file
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// Build constructs a zap logger from the production preset with the
// configured level, encoding and outputs.
func (c *LogConfig) Build() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		zc.Level = level
	}
	if c.Encoding != "" {
		zc.Encoding = c.Encoding
	}
	if len(c.OutputPaths) > 0 {
		zc.OutputPaths = c.OutputPaths
	}
	return zc.Build()
}
