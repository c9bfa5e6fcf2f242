// Package agent routes debate participants to LLM providers.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"agentic_debate/pkg/core/debate"
	"agentic_debate/pkg/core/llm"
	"agentic_debate/pkg/core/prompt"

	"gopkg.in/yaml.v2"
)

// Config mirrors config/models.yaml.
type Config struct {
	ActiveProvider string                 `yaml:"active_provider" json:"active_provider"`
	Defaults       ModelSettings          `yaml:"defaults" json:"defaults"`
	Agents         map[string]AgentConfig `yaml:"agents" json:"agents"`
}

// ModelSettings are the generation options passed to a provider.
type ModelSettings struct {
	Model       string  `yaml:"model" json:"model,omitempty"`
	Temperature float64 `yaml:"temperature" json:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// AgentConfig overrides provider and settings for one agent id or one role.
type AgentConfig struct {
	Provider      string `yaml:"provider" json:"provider,omitempty"`
	Description   string `yaml:"description" json:"description,omitempty"`
	ModelSettings `yaml:",inline"`
}

// LoadConfig reads a models.yaml file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read models config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse models config %s: %w", path, err)
	}
	return cfg, nil
}

// Manager implements debate.Generator on top of the configured providers.
type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	logger    *slog.Logger
	topic     string
}

var (
	_ debate.Generator  = (*Manager)(nil)
	_ debate.TopicAware = (*Manager)(nil)
)

func NewManager(config Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		config:    config,
		providers: llm.Registry(),
		logger:    logger.With("component", "llm"),
	}
}

// RegisterProvider adds or replaces a named provider.
func (m *Manager) RegisterProvider(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// SetTopic sets the topic quoted in the moderator's system prompt.
func (m *Manager) SetTopic(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topic = topic
}

// route resolves the provider name and settings for a participant. An entry
// keyed by agent id wins over one keyed by role.
func (m *Manager) route(p debate.Participant) (string, llm.Provider, ModelSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name := m.config.ActiveProvider
	settings := m.config.Defaults
	for _, key := range []string{string(p.Role), p.ID} {
		ac, ok := m.config.Agents[key]
		if !ok {
			continue
		}
		if ac.Provider != "" {
			name = ac.Provider
		}
		if ac.Model != "" {
			settings.Model = ac.Model
		}
		if ac.Temperature != 0 {
			settings.Temperature = ac.Temperature
		}
		if ac.MaxTokens != 0 {
			settings.MaxTokens = ac.MaxTokens
		}
	}

	provider, ok := m.providers[name]
	if !ok {
		return name, nil, settings, fmt.Errorf("provider %q not registered", name)
	}
	return name, provider, settings, nil
}

// Generate sends prompt to the provider routed for speaker, with the
// speaker's persona as system prompt.
func (m *Manager) Generate(ctx context.Context, speaker debate.Participant, userPrompt string) (string, error) {
	name, provider, settings, err := m.route(speaker)
	if err != nil {
		return "", err
	}

	m.mu.RLock()
	topic := m.topic
	m.mu.RUnlock()

	var system string
	if speaker.Role == debate.RoleModerator {
		system = prompt.ModeratorSystemPrompt(speaker.Name, speaker.Behavior, topic)
	} else {
		system = prompt.SystemPrompt(speaker.Name, speaker.Behavior)
	}

	options := map[string]interface{}{}
	if settings.Model != "" {
		options[llm.OptModel] = settings.Model
	}
	if settings.Temperature != 0 {
		options[llm.OptTemperature] = settings.Temperature
	}
	if settings.MaxTokens != 0 {
		options[llm.OptMaxTokens] = settings.MaxTokens
	}

	m.logger.Debug("generating", "agent_id", speaker.ID, "provider", name, "model", settings.Model)
	out, err := provider.GenerateResponse(ctx, userPrompt, provider.AdaptInstructions(system), options)
	if err != nil {
		return "", fmt.Errorf("%s via %s: %w", speaker.ID, name, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%s via %s: empty response", speaker.ID, name)
	}
	return out, nil
}

// SetGlobalProvider switches the active provider at runtime.
func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.logger.Info("global provider switched", "provider", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}

// Config returns a copy of the routing configuration.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.config
	cfg.Agents = make(map[string]AgentConfig, len(m.config.Agents))
	for k, v := range m.config.Agents {
		cfg.Agents[k] = v
	}
	return cfg
}

// Providers lists the registered provider names.
func (m *Manager) Providers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
