package bootstrappers

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-kernel/framework/container"
	"github.com/km-arc/go-kernel/framework/tasks"
)

// Source supplies the catalog a Dispatcher works from. *Registry implements it.
type Source interface {
	EagerBootstrappers() []ClassID
	LazyBootstrapperBindings() []LazyBinding
	Instance(id ClassID) (Bootstrapper, error)
}

// TaskRegistrar schedules callbacks for a later application phase.
// *tasks.Dispatcher implements it.
type TaskRegistrar interface {
	RegisterTask(phase tasks.Type, task tasks.Task)
}

// ── Dispatcher ────────────────────────────────────────────────────────────────

// Dispatcher decides which bootstrappers run immediately and which run on
// first use, runs them through the container, and schedules exactly one
// Shutdown per instantiated bootstrapper in the pre-shutdown phase.
//
// Keep one Dispatcher for the life of the application: the sets of
// bootstrappers that have already registered, run and been scheduled for
// shutdown live here, and they are what make each of those happen at most
// once per class id.
//
// A Dispatcher is not safe for concurrent use. Dispatch, and the first
// resolution of every lazy name, must happen on one goroutine; the
// container's own locking does not extend to the dispatcher's state.
type Dispatcher struct {
	tasks      TaskRegistrar
	container  *container.Container
	logger     *zap.Logger
	forceEager bool

	registered map[ClassID]bool // RegisterBindings succeeded
	ran        map[ClassID]bool // Run was called
	scheduled  map[ClassID]bool // Shutdown is owed by some pass
}

// NewDispatcher creates a dispatcher that binds into c and schedules
// shutdowns on tasks.
func NewDispatcher(tasks TaskRegistrar, c *container.Container, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		tasks:      tasks,
		container:  c,
		logger:     logger,
		registered: make(map[ClassID]bool),
		ran:        make(map[ClassID]bool),
		scheduled:  make(map[ClassID]bool),
	}
}

// ForceEagerLoading makes later Dispatch calls treat every lazy
// bootstrapper as eager.
func (d *Dispatcher) ForceEagerLoading(force bool) {
	d.forceEager = force
}

// Dispatch runs the bootstrappers of src.
//
// With eager loading forced, the eager list followed by every lazy class
// not already in it is dispatched eagerly. Otherwise the lazy bindings are
// registered first, so eager bootstrappers can resolve them from Run, and
// then the eager list is dispatched.
//
// The first RegisterBindings or Run failure aborts the dispatch and is
// returned as a *DispatchError. Bootstrappers that already ran stay run.
func (d *Dispatcher) Dispatch(src Source) error {
	if d.forceEager {
		d.logger.Debug("dispatching bootstrappers", zap.String("mode", "eager"))
		return d.dispatchEagerly(src, mergeClasses(src.EagerBootstrappers(), src.LazyBootstrapperBindings()))
	}

	d.logger.Debug("dispatching bootstrappers", zap.String("mode", "lazy"))
	d.dispatchLazily(src, src.LazyBootstrapperBindings())
	return d.dispatchEagerly(src, src.EagerBootstrappers())
}

// mergeClasses appends the lazy classes missing from eager, in first-seen order.
func mergeClasses(eager []ClassID, lazy []LazyBinding) []ClassID {
	seen := make(map[ClassID]bool, len(eager)+len(lazy))
	merged := make([]ClassID, 0, len(eager)+len(lazy))
	for _, id := range eager {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, lb := range lazy {
		if !seen[lb.Class] {
			seen[lb.Class] = true
			merged = append(merged, lb.Class)
		}
	}
	return merged
}

// dispatchEagerly registers the bindings of every class, then runs every
// class. Shutdown is scheduled for every instance resolved, even when the
// pass fails part way.
//
// A class registered by an earlier pass that failed before running it is
// not registered again; it is only run.
func (d *Dispatcher) dispatchEagerly(src Source, classes []ClassID) error {
	owned := newInstanceSet()
	defer d.scheduleShutdown(owned)

	pending := newInstanceSet()
	for _, id := range classes {
		if d.ran[id] || pending.has(id) {
			d.logger.Debug("bootstrapper already dispatched, skipping", zap.String("bootstrapper", string(id)))
			continue
		}
		b, err := src.Instance(id)
		if err != nil {
			return &DispatchError{Class: id, Op: OpResolve, Err: err}
		}
		pending.add(id, b)
		d.own(owned, id, b)
		if d.registered[id] {
			continue
		}
		if err := b.RegisterBindings(d.container); err != nil {
			return &DispatchError{Class: id, Op: OpRegister, Err: err}
		}
		d.registered[id] = true
	}

	for _, inst := range pending.snapshot() {
		// Marked before Run so a failing Run is never retried by a later pass.
		d.ran[inst.id] = true
		if _, err := d.container.Call(inst.b.Run); err != nil {
			return &DispatchError{Class: inst.id, Op: OpRun, Err: err}
		}
		d.logger.Debug("bootstrapper run", zap.String("bootstrapper", string(inst.id)))
	}
	return nil
}

// dispatchLazily binds every name to a factory that dispatches its
// bootstrapper on first resolution, and schedules shutdown of whatever
// those factories end up instantiating.
func (d *Dispatcher) dispatchLazily(src Source, bindings []LazyBinding) {
	// Shared with every factory and the shutdown task, so bootstrappers
	// instantiated after the task is registered are still shut down.
	instances := newInstanceSet()

	for _, lb := range bindings {
		if d.ran[lb.Class] || d.registered[lb.Class] {
			// Its real bindings are already in the container.
			continue
		}
		name, id := lb.Name, lb.Class
		d.container.Bind(name, func(c *container.Container) (any, error) {
			b, err := src.Instance(id)
			if err != nil {
				return nil, &DispatchError{Class: id, Op: OpResolve, Err: err}
			}
			d.own(instances, id, b)

			if !d.ran[id] {
				if !d.registered[id] {
					if err := b.RegisterBindings(c); err != nil {
						return nil, &DispatchError{Class: id, Op: OpRegister, Err: err}
					}
					d.registered[id] = true
				}
				// Marked before Run so a Run resolving a sibling binding
				// of the same class does not dispatch it again.
				d.ran[id] = true
				if _, err := c.Call(b.Run); err != nil {
					return nil, &DispatchError{Class: id, Op: OpRun, Err: err}
				}
				d.logger.Debug("lazy bootstrapper run",
					zap.String("bootstrapper", string(id)),
					zap.String("binding", name))
			}

			return c.MakeShared(name)
		})
	}

	d.scheduleShutdown(instances)
}

// own adds b to set unless another pass already owes its shutdown.
func (d *Dispatcher) own(set *instanceSet, id ClassID, b Bootstrapper) {
	if d.scheduled[id] {
		return
	}
	d.scheduled[id] = true
	set.add(id, b)
}

// scheduleShutdown registers one pre-shutdown task for instances. Every
// instance is shut down even if an earlier one fails.
func (d *Dispatcher) scheduleShutdown(instances *instanceSet) {
	d.tasks.RegisterTask(tasks.PreShutdown, func() error {
		var errs error
		for _, inst := range instances.snapshot() {
			if _, err := d.container.Call(inst.b.Shutdown); err != nil {
				d.logger.Error("bootstrapper shutdown failed",
					zap.String("bootstrapper", string(inst.id)),
					zap.Error(err))
				errs = multierr.Append(errs, &DispatchError{Class: inst.id, Op: OpShutdown, Err: err})
			}
		}
		return errs
	})
}

// ── instanceSet ───────────────────────────────────────────────────────────────

type instance struct {
	id ClassID
	b  Bootstrapper
}

// instanceSet is the ordered set of bootstrappers instantiated by one
// dispatch pass, keyed by class id.
type instanceSet struct {
	items []instance
	seen  map[ClassID]bool
}

func newInstanceSet() *instanceSet {
	return &instanceSet{seen: make(map[ClassID]bool)}
}

func (s *instanceSet) add(id ClassID, b Bootstrapper) {
	if s.seen[id] {
		return
	}
	s.seen[id] = true
	s.items = append(s.items, instance{id: id, b: b})
}

func (s *instanceSet) snapshot() []instance {
	return append([]instance(nil), s.items...)
}

func (s *instanceSet) has(id ClassID) bool { return s.seen[id] }
