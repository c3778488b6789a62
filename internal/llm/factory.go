package llm

import (
	"context"
	"fmt"
)

// Credentials is the subset of provider API keys the factory needs. It
// mirrors config.ProviderConfig without importing the config package, to
// keep llm free of a dependency on the application's configuration layer.
type Credentials struct {
	OpenAIAPIKey    string
	AnthropicAPIKey string
	GoogleAPIKey    string
}

// New resolves a Client for the named provider ("openai", "anthropic", or
// "google"), using the matching credential from creds. Returns
// ErrMissingCredential if that provider's credential is empty, or an
// unsupported-provider error for any other name.
func New(ctx context.Context, provider string, creds Credentials) (Client, error) {
	switch provider {
	case "openai":
		return NewOpenAIClient(creds.OpenAIAPIKey)
	case "anthropic":
		return NewAnthropicClient(creds.AnthropicAPIKey)
	case "google":
		return NewGeminiClient(ctx, creds.GoogleAPIKey)
	default:
		return nil, fmt.Errorf("llm: unsupported provider %q", provider)
	}
}
