package factory

import (
	"fmt"

	"golf-concierge-be/pkg/llm"
	"golf-concierge-be/pkg/llm/huggingface"
	"golf-concierge-be/pkg/llm/ollama"
	"golf-concierge-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an api key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	case "openai":
		if apiKey == "" && baseURL == "" {
			return nil, fmt.Errorf("openai provider requires an api key or a compatible base url")
		}
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
