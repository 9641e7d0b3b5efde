package scripting

import (
	"context"
	"sync"

	"github.com/dop251/goja"
	"github.com/wudi/scankit/scan"
)

// GojaEngine is a JavaScript engine. A goja runtime is single-threaded, so
// calls are serialized.
type GojaEngine struct {
	mu sync.Mutex
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterHost(host Host) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	app := e.vm.NewObject()
	err := app.Set("log", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if len(call.Arguments) > 0 {
			msg = call.Arguments[0].String()
		}
		host.Log(msg)
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	return e.vm.Set("app", app)
}

func (e *GojaEngine) SetOutcome(o scan.Outcome) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vm.Set("outcome", OutcomeView(o))
}

// Truthy reports whether an exported script value counts as true.
func Truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
