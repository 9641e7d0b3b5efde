package scripting

import (
	"context"

	"github.com/wudi/scankit/scan"
)

// Engine runs user scripts against scan outcomes (e.g. JavaScript).
type Engine interface {
	// Execute runs script and returns its completion value.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterHost exposes host services (logging) to scripts as `app`.
	RegisterHost(host Host) error

	// SetOutcome exposes o to scripts as the global `outcome`.
	SetOutcome(o scan.Outcome) error
}

// Host is the set of callbacks scripts may reach through `app`.
type Host interface {
	Log(message string)
}

// HostFunc adapts a function to Host.
type HostFunc func(message string)

func (f HostFunc) Log(message string) { f(message) }

// OutcomeView is the script-visible projection of an outcome. Images are not
// exposed; only their dimensions are.
func OutcomeView(o scan.Outcome) map[string]interface{} {
	view := map[string]interface{}{
		"id":        o.ID,
		"sessionId": o.SessionID,
		"cycle":     o.Cycle,
		"status":    o.Status.String(),
		"method":    o.Method.String(),
		"message":   o.Message,
		"digest":    o.Digest,
		"text":      o.Text,
		"width":     0,
		"height":    0,
		"boundary":  nil,
	}
	if img := o.Image(); img != nil {
		view["width"] = img.Bounds().Dx()
		view["height"] = img.Bounds().Dy()
	}
	if o.Boundary != nil {
		pts := make([]interface{}, 0, len(o.Boundary))
		for _, p := range o.Boundary {
			pts = append(pts, map[string]interface{}{"x": p.X, "y": p.Y})
		}
		view["boundary"] = pts
	}
	return view
}
