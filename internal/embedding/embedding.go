package embedding

import "context"

// Provider generates vector embeddings from text.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Config holds embedding provider configuration.
type Config struct {
	Provider  string `json:"provider"` // "api" or "hash"
	Endpoint  string `json:"endpoint"`
	Model     string `json:"model"`
	APIKey    string `json:"api_key"`
	Dimension int    `json:"dimension"`
}

// New selects a provider from the config. An empty or unknown provider
// falls back to the hash embedder, which needs no external service.
func New(cfg Config) Provider {
	if cfg.Provider == "api" && cfg.Endpoint != "" {
		return NewAPIProvider(cfg)
	}
	return NewHashProvider(cfg.Dimension)
}
