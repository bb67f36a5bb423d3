package narrative

import (
	"time"

	"github.com/levenlabs/go-lflag"
)

// Configured sets up the narrative generator based on flags. It
// returns a provider whose Generator is nil when no endpoint is
// configured; the optimizer then always uses the local fallback.
func Configured() *Provider {
	endpoint := lflag.String("narrative-endpoint", "", "URL of the narrative generation service (empty disables it)")
	apiKey := lflag.String("narrative-api-key", "", "bearer token for the narrative generation service")
	timeout := lflag.Duration("narrative-http-timeout", 15*time.Second, "HTTP timeout for narrative generation requests")

	p := &Provider{}
	lflag.Do(func() {
		if *endpoint != "" {
			p.Generator = NewClient(*endpoint, *apiKey, *timeout)
		}
	})
	return p
}

// Provider holds the configured Generator, which may be nil when the
// external service is disabled.
type Provider struct {
	Generator Generator
}
