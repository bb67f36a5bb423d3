// Package narrative turns plans into prose. The real generator is an
// external AI text service; a deterministic local fallback covers every
// failure mode so explanation requests never fail.
package narrative

import (
	"context"

	"github.com/wattshift/wattshift/pkg/types"
)

// Generator defines the interface for producing plan explanations.
type Generator interface {
	// Explain returns a natural-language explanation for the request.
	// Implementations must respect ctx deadlines.
	Explain(ctx context.Context, req types.ExplainRequest) (types.Explanation, error)
}
