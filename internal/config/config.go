package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Cafe     CafeConfig     `yaml:"cafe"`
	Server   ServerConfig   `yaml:"server"`
	HTTP     HTTPConfig     `yaml:"http"`
	Activity ActivityConfig `yaml:"activity"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type CafeConfig struct {
	TeaCapacity           int      `yaml:"tea_capacity"`
	CoffeeCapacity        int      `yaml:"coffee_capacity"`
	TeaWorkers            int      `yaml:"tea_workers"`
	CoffeeWorkers         int      `yaml:"coffee_workers"`
	TeaBrewTime           Duration `yaml:"tea_brew_time"`
	CoffeeBrewTime        Duration `yaml:"coffee_brew_time"`
	IdlePollInterval      Duration `yaml:"idle_poll_interval"`
	DisconnectLockTimeout Duration `yaml:"disconnect_lock_timeout"`
	AreaLockTimeout       Duration `yaml:"area_lock_timeout"`
	DisconnectRetries     int      `yaml:"disconnect_retries"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
}

type HTTPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type ActivityConfig struct {
	File   string `yaml:"file"`
	Buffer int    `yaml:"buffer"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Duration reads Go duration strings such as "30s" or "250ms".
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("line %d: duration must be a string: %w", node.Line, err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func Default() *Config {
	return &Config{
		Cafe: CafeConfig{
			TeaCapacity:           2,
			CoffeeCapacity:        2,
			TeaWorkers:            2,
			CoffeeWorkers:         2,
			TeaBrewTime:           Duration(30 * time.Second),
			CoffeeBrewTime:        Duration(45 * time.Second),
			IdlePollInterval:      Duration(250 * time.Millisecond),
			DisconnectLockTimeout: Duration(2 * time.Second),
			AreaLockTimeout:       Duration(time.Second),
			DisconnectRetries:     3,
		},
		Server:   ServerConfig{Address: ":8888"},
		HTTP:     HTTPConfig{Enabled: true, Address: ":3000"},
		Activity: ActivityConfig{File: "cafe_log.json", Buffer: 256},
		Database: DatabaseConfig{
			Host:              "localhost",
			Port:              5432,
			User:              "cafe",
			Password:          "cafe",
			Database:          "cafe",
			HeartbeatInterval: Duration(10 * time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
			VHost:    "/",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	cafe := c.Cafe

	if cafe.TeaCapacity < 1 || cafe.CoffeeCapacity < 1 {
		errs = append(errs, errors.New("cafe capacities must be at least 1"))
	}
	if cafe.TeaWorkers < 0 || cafe.CoffeeWorkers < 0 {
		errs = append(errs, errors.New("cafe worker counts cannot be negative"))
	}
	for name, d := range map[string]Duration{
		"tea_brew_time":           cafe.TeaBrewTime,
		"coffee_brew_time":        cafe.CoffeeBrewTime,
		"disconnect_lock_timeout": cafe.DisconnectLockTimeout,
		"area_lock_timeout":       cafe.AreaLockTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("cafe.%s must be positive", name))
		}
	}
	if cafe.DisconnectRetries < 0 {
		errs = append(errs, errors.New("cafe.disconnect_retries cannot be negative"))
	}
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Database.Enabled && c.Database.HeartbeatInterval <= 0 {
		errs = append(errs, errors.New("database.heartbeat_interval must be positive"))
	}
	if c.HTTP.Enabled && c.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required when http is enabled"))
	}
	return errors.Join(errs...)
}
