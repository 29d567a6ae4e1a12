package bootstrappers_test

import (
	"fmt"

	"github.com/km-arc/go-kernel/framework/bootstrappers"
	"github.com/km-arc/go-kernel/framework/container"
)

// ── recording bootstrapper ────────────────────────────────────────────────────

// journal records every bootstrapper call in order, as "<id>.<method>".
type journal struct{ events []string }

func (j *journal) record(id bootstrappers.ClassID, method string) {
	j.events = append(j.events, fmt.Sprintf("%s.%s", id, method))
}

func (j *journal) count(event string) int {
	n := 0
	for _, e := range j.events {
		if e == event {
			n++
		}
	}
	return n
}

func (j *journal) index(event string) int {
	for i, e := range j.events {
		if e == event {
			return i
		}
	}
	return -1
}

// recorder binds each of binds to a string "<id>:<name>" and records calls.
type recorder struct {
	id    bootstrappers.ClassID
	j     *journal
	binds []string

	registerErr error
	runErr      error
	shutdownErr error

	// onRun is invoked from Run after it is recorded.
	onRun func(c *container.Container) error
}

func (r *recorder) RegisterBindings(c *container.Container) error {
	r.j.record(r.id, "register")
	if r.registerErr != nil {
		return r.registerErr
	}
	for _, name := range r.binds {
		value := string(r.id) + ":" + name
		c.Singleton(name, func(*container.Container) (any, error) { return value, nil })
	}
	return nil
}

func (r *recorder) Run(c *container.Container) error {
	r.j.record(r.id, "run")
	if r.runErr != nil {
		return r.runErr
	}
	if r.onRun != nil {
		return r.onRun(c)
	}
	return nil
}

func (r *recorder) Shutdown(_ *container.Container) error {
	r.j.record(r.id, "shutdown")
	return r.shutdownErr
}

// lazyRecorder is a recorder that declares its own bindings.
type lazyRecorder struct{ *recorder }

func (l lazyRecorder) Bindings() []string { return l.binds }

// ── fixture ───────────────────────────────────────────────────────────────────

// fixture holds a registry whose instances are recorders sharing one journal.
type fixture struct {
	j         *journal
	reg       *bootstrappers.Registry
	recorders map[bootstrappers.ClassID]*recorder
	built     map[bootstrappers.ClassID]int
}

func newFixture() *fixture {
	return &fixture{
		j:         &journal{},
		reg:       bootstrappers.NewRegistry(),
		recorders: make(map[bootstrappers.ClassID]*recorder),
		built:     make(map[bootstrappers.ClassID]int),
	}
}

func (f *fixture) factory(id bootstrappers.ClassID, binds ...string) bootstrappers.Factory {
	r := &recorder{id: id, j: f.j, binds: binds}
	f.recorders[id] = r
	return func() bootstrappers.Bootstrapper {
		f.built[id]++
		return r
	}
}

func (f *fixture) eager(id bootstrappers.ClassID, binds ...string) *recorder {
	if err := f.reg.RegisterEager(id, f.factory(id, binds...)); err != nil {
		panic(err)
	}
	return f.recorders[id]
}

func (f *fixture) lazy(id bootstrappers.ClassID, binds ...string) *recorder {
	if err := f.reg.RegisterLazy(id, f.factory(id, binds...), binds...); err != nil {
		panic(err)
	}
	return f.recorders[id]
}
