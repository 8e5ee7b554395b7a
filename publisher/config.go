package publisher

import (
	"encoding/json"
	"errors"
	"os"
)

// Config is the whole app's JSON configuration.
type Config struct {
	LLM          *LLMConfig     `json:"llm,omitempty"`
	Blotato      *BlotatoConfig `json:"blotato,omitempty"`
	Blog         *BlogConfig    `json:"blog,omitempty"`
	ServerAddr   string         `json:"server_addr,omitempty"`
	ScheduleFile string         `json:"schedule_file,omitempty"`
}

// LLMConfig selects and authenticates the generative provider.
type LLMConfig struct {
	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	ImageModel string `json:"image_model,omitempty"`
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
}

// BlotatoConfig holds the aggregator credentials plus the per-platform
// account ids Blotato posts through.
type BlotatoConfig struct {
	APIKey     string            `json:"api_key"`
	BaseURL    string            `json:"base_url,omitempty"`
	AccountIDs map[string]string `json:"account_ids,omitempty"`
}

// BlogConfig points at the webhook that receives long-form posts.
type BlogConfig struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token,omitempty"`
}

// LoadConfig reads JSON config from disk.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return Config{}, errors.New("config must include llm.provider")
	}
	return cfg, nil
}
