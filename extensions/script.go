package extensions

import (
	"context"
	"fmt"

	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/scripting"
)

// ScriptValidator runs a script against each outcome; a falsy completion
// value rejects the outcome.
type ScriptValidator struct {
	engine scripting.Engine
	script string
}

func NewScriptValidator(engine scripting.Engine, script string) *ScriptValidator {
	return &ScriptValidator{engine: engine, script: script}
}

func (v *ScriptValidator) Name() string  { return "script" }
func (v *ScriptValidator) Phase() Phase  { return PhaseValidate }
func (v *ScriptValidator) Priority() int { return 100 }

func (v *ScriptValidator) Apply(ctx context.Context, out scan.Outcome) (scan.Outcome, error) {
	if v.engine == nil || v.script == "" {
		return out, nil
	}
	if err := v.engine.SetOutcome(out); err != nil {
		return out, err
	}
	res, err := v.engine.Execute(ctx, v.script)
	if err != nil {
		return out, err
	}
	if !scripting.Truthy(res) {
		return out, fmt.Errorf("outcome rejected by script")
	}
	return out, nil
}
