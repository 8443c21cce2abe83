package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	EasyCreditSandboxURL    = "https://tst.ecmoldova.cloud:8082"
	EasyCreditProductionURL = "https://w81.ecredit.md:8082"
	IuteDefaultURL          = "https://iute-core-partner-gateway.iute.eu"
)

type EasyCreditSettings struct {
	Env         string
	BaseURL     string
	APIUser     string
	APIPassword string
}

// VerifyTLS is true only against production.
func (s EasyCreditSettings) VerifyTLS() bool { return s.Env == EnvProduction }

type IuteSettings struct {
	Env                string
	BaseURL            string
	APIKey             string
	POSIdentifier      string
	SalesmanIdentifier string
}

func (s IuteSettings) VerifyTLS() bool { return s.Env == EnvProduction }

// ProviderSettings resolves provider credentials on every call: a non-empty value from
// the override file wins, then the environment, then the built-in default.
type ProviderSettings struct {
	path string
	env  *viper.Viper
	mu   sync.Mutex
}

func NewProviderSettings(path string) *ProviderSettings {
	env := viper.New()
	env.AutomaticEnv()
	env.SetDefault("EASYCREDIT_ENV", EnvSandbox)
	env.SetDefault("IUTE_ENV", EnvSandbox)
	return &ProviderSettings{path: path, env: env}
}

func (s *ProviderSettings) Path() string { return s.path }

// overrides reads the override file into a fresh viper instance. A missing or broken
// file yields an empty one.
func (s *ProviderSettings) overrides() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	if s.path == "" {
		return v
	}
	f, err := os.Open(s.path)
	if err != nil {
		return v
	}
	defer f.Close()
	_ = v.ReadConfig(f)
	return v
}

func (s *ProviderSettings) resolve(ov *viper.Viper, key, envKey string) string {
	if val := strings.TrimSpace(ov.GetString(key)); val != "" {
		return val
	}
	return strings.TrimSpace(s.env.GetString(envKey))
}

func normalizeEnv(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		return EnvSandbox
	}
	return env
}

func (s *ProviderSettings) EasyCredit() EasyCreditSettings {
	ov := s.overrides()
	out := EasyCreditSettings{
		Env:         normalizeEnv(s.resolve(ov, "easycredit.env", "EASYCREDIT_ENV")),
		BaseURL:     s.resolve(ov, "easycredit.base_url", "EASYCREDIT_BASE_URL"),
		APIUser:     s.resolve(ov, "easycredit.api_user", "EASYCREDIT_API_USER"),
		APIPassword: s.resolve(ov, "easycredit.api_password", "EASYCREDIT_API_PASSWORD"),
	}
	if out.BaseURL == "" {
		out.BaseURL = EasyCreditSandboxURL
		if out.Env == EnvProduction {
			out.BaseURL = EasyCreditProductionURL
		}
	}
	return out
}

func (s *ProviderSettings) Iute() IuteSettings {
	ov := s.overrides()
	out := IuteSettings{
		Env:                normalizeEnv(s.resolve(ov, "iute.env", "IUTE_ENV")),
		BaseURL:            s.resolve(ov, "iute.base_url", "IUTE_BASE_URL"),
		APIKey:             s.resolve(ov, "iute.api_key", "IUTE_API_KEY"),
		POSIdentifier:      s.resolve(ov, "iute.pos_identifier", "IUTE_POS_IDENTIFIER"),
		SalesmanIdentifier: s.resolve(ov, "iute.salesman_identifier", "IUTE_SALESMAN_IDENTIFIER"),
	}
	if out.BaseURL == "" {
		out.BaseURL = IuteDefaultURL
	}
	return out
}

// SaveEasyCredit stores an override set. A blank password keeps the stored one.
func (s *ProviderSettings) SaveEasyCredit(in EasyCreditSettings) error {
	return s.save(func(v *viper.Viper) {
		v.Set("easycredit.env", normalizeEnv(in.Env))
		v.Set("easycredit.base_url", strings.TrimSpace(in.BaseURL))
		v.Set("easycredit.api_user", strings.TrimSpace(in.APIUser))
		if pwd := strings.TrimSpace(in.APIPassword); pwd != "" {
			v.Set("easycredit.api_password", pwd)
		}
	})
}

// SaveIute stores an override set. Blank secrets keep the stored ones.
func (s *ProviderSettings) SaveIute(in IuteSettings) error {
	return s.save(func(v *viper.Viper) {
		v.Set("iute.env", normalizeEnv(in.Env))
		v.Set("iute.base_url", strings.TrimSpace(in.BaseURL))
		if key := strings.TrimSpace(in.APIKey); key != "" {
			v.Set("iute.api_key", key)
		}
		if pos := strings.TrimSpace(in.POSIdentifier); pos != "" {
			v.Set("iute.pos_identifier", pos)
		}
		if sm := strings.TrimSpace(in.SalesmanIdentifier); sm != "" {
			v.Set("iute.salesman_identifier", sm)
		}
	})
}

func (s *ProviderSettings) save(apply func(v *viper.Viper)) error {
	if s.path == "" {
		return errors.New("settings file path is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.overrides()
	apply(v)
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	// Readers never lock, so the file is replaced with a rename and never seen half written.
	f, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmp := f.Name()
	_ = f.Close()
	if err := v.WriteConfigAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
