package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Browser  BrowserConfig  `yaml:"browser"`
	Limits   LimitsConfig   `yaml:"limits"`
	Pace     PaceConfig     `yaml:"pace"`
	Harvest  HarvestConfig  `yaml:"harvest"`
	Platform PlatformConfig `yaml:"platform"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig drives the optional status endpoint. An empty addr disables it.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allowOrigins"`
}

type StorageConfig struct {
	SQLitePath string `yaml:"sqlitePath"`
}

type BrowserConfig struct {
	Headless      bool   `yaml:"headless"`
	UserAgent     string `yaml:"userAgent"`
	FindTimeoutMs int    `yaml:"findTimeoutMs"`
}

func (c BrowserConfig) FindTimeout() time.Duration {
	if c.FindTimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.FindTimeoutMs) * time.Millisecond
}

// LimitsConfig caps navigation rate across every account, on top of the
// per-account pacing. Keeps a big fleet from hammering the site in lockstep.
type LimitsConfig struct {
	GlobalQPS   float64 `yaml:"globalQPS"`
	GlobalBurst int     `yaml:"globalBurst"`
}

// PaceConfig is the per-account interaction pacing: minimum gap between the
// end of one remote interaction and the start of the next, with optional
// percentage jitter so the cadence is not fixed.
type PaceConfig struct {
	MinGapMs  int `yaml:"minGapMs"`
	JitterPct int `yaml:"jitterPct"`
}

func (c PaceConfig) MinGap() time.Duration {
	if c.MinGapMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.MinGapMs) * time.Millisecond
}

type HarvestConfig struct {
	// Workers is the pool size. Zero means one worker per account.
	Workers int `yaml:"workers"`
	// ManualClaim disables auto-claiming: the reward task waits for a human
	// to claim, re-checking every ClaimWait.
	ManualClaim bool `yaml:"manualClaim"`
	// KeepChat leaves stream chat open and claims channel-point bonuses.
	KeepChat bool `yaml:"keepChat"`

	NotifyOnFinish   bool `yaml:"notifyOnFinish"`
	AlertAdminsAtEnd bool `yaml:"alertAdminsAtEnd"`

	PresencePollMs     int `yaml:"presencePollMs"`
	ClaimWaitMs        int `yaml:"claimWaitMs"`
	ChallengeBackoffMs int `yaml:"challengeBackoffMs"`
}

func (c HarvestConfig) PresencePoll() time.Duration {
	if c.PresencePollMs <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.PresencePollMs) * time.Millisecond
}

func (c HarvestConfig) ClaimWait() time.Duration {
	if c.ClaimWaitMs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.ClaimWaitMs) * time.Millisecond
}

func (c HarvestConfig) ChallengeBackoff() time.Duration {
	if c.ChallengeBackoffMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ChallengeBackoffMs) * time.Millisecond
}

type PlatformConfig struct {
	BaseURL string `yaml:"baseURL"`
	// DirectoryURL is the listing of droppable streams the presence task
	// pulls new streams from.
	DirectoryURL string `yaml:"directoryURL"`
}

type NotifyConfig struct {
	SMS   SMSConfig   `yaml:"sms"`
	Email EmailConfig `yaml:"email"`
}

type SMSConfig struct {
	Enabled    bool   `yaml:"enabled"`
	AccountSID string `yaml:"accountSid"`
	AuthToken  string `yaml:"authToken"`
	From       string `yaml:"from"`
	BaseURL    string `yaml:"baseURL"`
	TimeoutMs  int    `yaml:"timeoutMs"`
	RetryCount int    `yaml:"retryCount"`
}

func (c SMSConfig) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	From     string `yaml:"from"`
	AuthCode string `yaml:"authCode"`
	To       string `yaml:"to"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "./data/drop_harvester.db"
	}
	if c.Limits.GlobalQPS <= 0 {
		c.Limits.GlobalQPS = 2
	}
	if c.Limits.GlobalBurst <= 0 {
		c.Limits.GlobalBurst = 4
	}
	if c.Platform.BaseURL == "" {
		c.Platform.BaseURL = "https://www.twitch.tv"
	}
	if c.Platform.DirectoryURL == "" {
		c.Platform.DirectoryURL = c.Platform.BaseURL + "/directory/game/SMITE/tags/c2542d6d-cd10-4532-919b-3d19f30a768b"
	}
	if c.Notify.SMS.BaseURL == "" {
		c.Notify.SMS.BaseURL = "https://api.twilio.com"
	}
}

func (c Config) validate() error {
	if c.Platform.BaseURL == "" {
		return errors.New("platform.baseURL is required")
	}
	if c.Notify.SMS.Enabled {
		if c.Notify.SMS.AccountSID == "" || c.Notify.SMS.AuthToken == "" || c.Notify.SMS.From == "" {
			return errors.New("notify.sms requires accountSid, authToken and from")
		}
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.From == "" || c.Notify.Email.To == "" {
			return errors.New("notify.email requires from and to")
		}
	}
	return nil
}
