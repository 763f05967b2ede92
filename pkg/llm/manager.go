package llm

import (
	"fmt"
	"sync"

	"querypilot/internal/constants"
)

// Manager is a registry of named completion clients
type Manager struct {
	clients map[string]Client
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]Client),
	}
}

// RegisterClient creates and registers a client for a provider
func (m *Manager) RegisterClient(name string, config Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var client Client
	var err error

	switch config.Provider {
	case constants.OpenAI:
		client, err = NewOpenAIClient(config)
	case constants.Gemini:
		client, err = NewGeminiClient(config)
	case constants.Deterministic:
		client = NewDeterministicClient()
	default:
		return fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}

	if err != nil {
		return fmt.Errorf("failed to create LLM client: %v", err)
	}

	m.clients[name] = client
	return nil
}

// GetClient returns a registered client by name
func (m *Manager) GetClient(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// RemoveClient removes a registered client
func (m *Manager) RemoveClient(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, name)
}
