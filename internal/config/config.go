package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
	IngestAPIKey string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LiveTTL  time.Duration
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// TelemetryConfig holds the tunables of the processing engine. Thresholds
// are operational policy, not business law, so they all come from the
// environment.
type TelemetryConfig struct {
	// SpeedMovingKmh: speed above this is MOVING, above zero and at or
	// below it is IDLE, zero is STATIONARY.
	SpeedMovingKmh float64
	// DwellMinPings: consecutive in-fence pings required before the
	// tracker trusts INSIDE, filtering single-ping GPS jitter.
	DwellMinPings int
	// MinTripDisplacementM: trips whose exit and entry points are closer
	// than this are discarded as spurious.
	MinTripDisplacementM float64
	LowFuelPct           float64
	TheftDropLiters      float64
	RapidDropLiters      float64
	RapidWindow          time.Duration
	FuelLookback         time.Duration
	TankCapacityLiters   float64
	SensorMinVoltage     float64
	SensorMaxVoltage     float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Redis       RedisConfig
	Telemetry   TelemetryConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
			IngestAPIKey: v.GetString("INGEST_API_KEY"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			LiveTTL:  v.GetDuration("REDIS_LIVE_TTL"),
		},
		Telemetry: TelemetryConfig{
			SpeedMovingKmh:       v.GetFloat64("SPEED_MOVING_KMH"),
			DwellMinPings:        v.GetInt("DWELL_MIN_PINGS"),
			MinTripDisplacementM: v.GetFloat64("MIN_TRIP_DISPLACEMENT_M"),
			LowFuelPct:           v.GetFloat64("LOW_FUEL_PCT"),
			TheftDropLiters:      v.GetFloat64("THEFT_DROP_LITERS"),
			RapidDropLiters:      v.GetFloat64("RAPID_DROP_LITERS"),
			RapidWindow:          v.GetDuration("RAPID_WINDOW"),
			FuelLookback:         v.GetDuration("FUEL_LOOKBACK"),
			TankCapacityLiters:   v.GetFloat64("TANK_CAPACITY_LITERS"),
			SensorMinVoltage:     v.GetFloat64("SENSOR_MIN_VOLTAGE"),
			SensorMaxVoltage:     v.GetFloat64("SENSOR_MAX_VOLTAGE"),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Redis.LiveTTL <= 0 {
		cfg.Redis.LiveTTL = 5 * time.Minute
	}

	t := &cfg.Telemetry
	if t.SpeedMovingKmh <= 0 {
		t.SpeedMovingKmh = 5
	}
	if t.DwellMinPings <= 0 {
		t.DwellMinPings = 2
	}
	if t.MinTripDisplacementM <= 0 {
		t.MinTripDisplacementM = 50
	}
	if t.LowFuelPct <= 0 {
		t.LowFuelPct = 15
	}
	if t.TheftDropLiters <= 0 {
		t.TheftDropLiters = 20
	}
	if t.RapidDropLiters <= 0 {
		t.RapidDropLiters = 15
	}
	if t.RapidWindow <= 0 {
		t.RapidWindow = 10 * time.Minute
	}
	if t.FuelLookback <= 0 {
		t.FuelLookback = 30 * time.Minute
	}
	if t.TankCapacityLiters <= 0 {
		t.TankCapacityLiters = 400
	}
	if t.SensorMinVoltage <= 0 {
		t.SensorMinVoltage = 3.0
	}
	if t.SensorMaxVoltage <= 0 {
		t.SensorMaxVoltage = 30.0
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Auth.IngestAPIKey == "" {
		return fmt.Errorf("INGEST_API_KEY is required")
	}
	if cfg.Telemetry.SensorMaxVoltage <= cfg.Telemetry.SensorMinVoltage {
		return fmt.Errorf("SENSOR_MAX_VOLTAGE must exceed SENSOR_MIN_VOLTAGE")
	}
	return nil
}
