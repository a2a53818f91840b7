package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// KioskConfig holds runtime tunables that can change without a restart.
type KioskConfig struct {
	Closure   ClosureConfig   `mapstructure:"closure"`
	Identify  IdentifyConfig  `mapstructure:"identify"`
	Statement StatementConfig `mapstructure:"statement"`
}

type ClosureConfig struct {
	// AutoClose lets the scheduler close the open period on its own.
	AutoClose bool `mapstructure:"autoClose"`
	// MinPeriodAge is how old the open period must be before auto closure.
	MinPeriodAge time.Duration `mapstructure:"minPeriodAge"`
	Comment      string        `mapstructure:"comment"`
}

type IdentifyConfig struct {
	RatePerSecond float64 `mapstructure:"ratePerSecond"`
	Burst         int     `mapstructure:"burst"`
}

type StatementConfig struct {
	Title  string `mapstructure:"title"`
	Footer string `mapstructure:"footer"`
}

func DefaultKioskConfig() KioskConfig {
	return KioskConfig{
		Closure: ClosureConfig{
			AutoClose:    false,
			MinPeriodAge: 30 * 24 * time.Hour,
			Comment:      "automatic closure",
		},
		Identify: IdentifyConfig{
			RatePerSecond: 2,
			Burst:         10,
		},
		Statement: StatementConfig{
			Title:  "Drinks statement",
			Footer: "Please settle your balance with the treasurer.",
		},
	}
}

type KioskConfigHolder struct {
	current atomic.Value // holds KioskConfig
}

// NewStaticKioskConfigHolder returns a holder that never reloads.
func NewStaticKioskConfigHolder(cfg KioskConfig) *KioskConfigHolder {
	holder := &KioskConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewKioskConfigHolder() (*KioskConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("kiosk")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/kiosk")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KIOSK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultKioskConfig()
	v.SetDefault("kiosk.closure.autoClose", defaults.Closure.AutoClose)
	v.SetDefault("kiosk.closure.minPeriodAge", defaults.Closure.MinPeriodAge)
	v.SetDefault("kiosk.closure.comment", defaults.Closure.Comment)
	v.SetDefault("kiosk.identify.ratePerSecond", defaults.Identify.RatePerSecond)
	v.SetDefault("kiosk.identify.burst", defaults.Identify.Burst)
	v.SetDefault("kiosk.statement.title", defaults.Statement.Title)
	v.SetDefault("kiosk.statement.footer", defaults.Statement.Footer)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg KioskConfig
	if err := v.UnmarshalKey("kiosk", &cfg); err != nil {
		return nil, err
	}
	if err := validateKioskConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticKioskConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated KioskConfig
		if err := v.UnmarshalKey("kiosk", &updated); err != nil {
			log.Printf("[kiosk-config] reload failed: %v", err)
			return
		}
		if err := validateKioskConfig(updated); err != nil {
			log.Printf("[kiosk-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[kiosk-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *KioskConfigHolder) Get() KioskConfig {
	return h.current.Load().(KioskConfig)
}

func validateKioskConfig(cfg KioskConfig) error {
	if cfg.Closure.MinPeriodAge <= 0 {
		return errors.New("kiosk.closure.minPeriodAge must be positive")
	}
	if cfg.Identify.RatePerSecond <= 0 || cfg.Identify.Burst <= 0 {
		return errors.New("kiosk.identify rate and burst must be positive")
	}
	return nil
}
