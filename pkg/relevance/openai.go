package relevance

import (
	"fmt"
	"os"

	"github.com/rubiojr/basket/pkg/config"
	"github.com/rubiojr/basket/pkg/log"
	"github.com/tmc/langchaingo/llms/openai"
)

// FromConfig builds the filter described by cfg. A disabled filter is a
// Passthrough.
func FromConfig(cfg config.RelevanceConfig) (Filter, error) {
	if !cfg.Enabled {
		log.ForService("relevance").Warnf("relevance filtering disabled, live results are stored unfiltered")
		return Passthrough{}, nil
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("relevance filtering enabled but no api_key or OPENAI_API_KEY set")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}
	return NewLLMFilter(llm, WithRequestsPerMinute(cfg.RequestsPerMinute)), nil
}
