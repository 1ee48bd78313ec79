package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/isgnet/devreg/params"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr     = ":3000"
	DefaultDatabaseDriver = "mysql"
	DefaultJWTIssuer      = "isg-devreg"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql, postgres or sqlite
	Dsn             string        `mapstructure:"dsn"`
	Replicas        []string      `mapstructure:"replicas"`
	TablePrefix     string        `mapstructure:"tablePrefix"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxIdleTime time.Duration `mapstructure:"connMaxIdleTime"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
	LogSQL          bool          `mapstructure:"logSQL"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"accessTokenTTL"`
	CookieName     string        `mapstructure:"cookieName"`
	CookieSecure   bool          `mapstructure:"cookieSecure"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"`
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type PasswordResetConfig struct {
	CodeTTL     time.Duration `mapstructure:"codeTTL"`
	MaxAttempts int           `mapstructure:"maxAttempts"`
}

type Config struct {
	Debug         bool                `mapstructure:"debug"`
	SiteName      string              `mapstructure:"siteName"`
	ListenAddr    string              `mapstructure:"listenAddr"`
	TemplateDir   string              `mapstructure:"templateDir"`
	AllowOrigins  []string            `mapstructure:"allowOrigins"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Mail          MailConfig          `mapstructure:"mail"`
	PasswordReset PasswordResetConfig `mapstructure:"passwordReset"`
}

func (c *Config) Sanitize() error {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}
	if c.Database.Dsn == "" {
		return errors.New("database.dsn is required")
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = params.DefaultDatabaseMaxIdleConns
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = params.DefaultDatabaseMaxOpenConns
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = DefaultJWTIssuer
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = params.AccessTokenExpiration
	}
	if c.JWT.CookieName == "" {
		c.JWT.CookieName = params.AccessTokenCookieName
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.SMTP.Username
	}
	if c.PasswordReset.CodeTTL == 0 {
		c.PasswordReset.CodeTTL = params.ResetCodeExpiration
	}
	if c.PasswordReset.MaxAttempts == 0 {
		c.PasswordReset.MaxAttempts = params.ResetCodeMaxAttempts
	}
	return nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. A missing file is not an error.
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	err := godotenv.Load(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func LoadConfig(filename string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", filename, err)
	}
	return &config, nil
}
