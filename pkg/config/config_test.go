package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.App.Name != "web3event" {
		t.Errorf("app name = %q, want web3event", cfg.App.Name)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Kafka.TicketTopic != "ticket-events" {
		t.Errorf("ticket topic = %q, want ticket-events", cfg.Kafka.TicketTopic)
	}
	if cfg.Worker.ViewFlushInterval != 30*time.Second {
		t.Errorf("view flush interval = %v, want 30s", cfg.Worker.ViewFlushInterval)
	}
	if cfg.Chain.Network != "sepolia" {
		t.Errorf("chain network = %q, want sepolia", cfg.Chain.Network)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("environment = %q, want development default", cfg.App.Environment)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "broker-a:9092,broker-b:9092")
	t.Setenv("APP_ENVIRONMENT", "staging")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "broker-a:9092" {
		t.Errorf("brokers = %v, want two brokers", cfg.Kafka.Brokers)
	}
	if cfg.IsProduction() || cfg.IsDevelopment() {
		t.Errorf("environment = %q, want staging", cfg.App.Environment)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:    AppConfig{Name: "web3event", Environment: "development"},
			Server: ServerConfig{Port: 8080},
			JWT:    JWTConfig{Secret: "a-real-secret"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing app name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "port too low", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: true},
		{
			name: "default secret in production",
			mutate: func(c *Config) {
				c.App.Environment = "production"
				c.JWT.Secret = "your-secret-key-change-in-production"
			},
			wantErr: true,
		},
		{
			name: "default secret outside production",
			mutate: func(c *Config) {
				c.JWT.Secret = "your-secret-key-change-in-production"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSNAndAddr(t *testing.T) {
	db := DatabaseConfig{
		Host: "db", Port: 5432, User: "app", Password: "pw",
		DBName: "web3event", SSLMode: "disable",
	}
	want := "host=db port=5432 user=app password=pw dbname=web3event sslmode=disable"
	if got := db.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	r := RedisConfig{Host: "cache", Port: 6379}
	if got := r.Addr(); got != "cache:6379" {
		t.Errorf("Addr() = %q, want cache:6379", got)
	}
}
