// Package bootstrappers schedules application-startup units and their
// teardown.
//
// A Bootstrapper registers bindings into the container, runs, and is shut
// down in the pre-shutdown task phase. Eager bootstrappers are dispatched on
// every Dispatch; lazy ones are bound by name and dispatched the first time
// one of those names is resolved.
//
//	reg := bootstrappers.NewRegistry()
//	reg.RegisterEager("app.logging", func() bootstrappers.Bootstrapper { return &LoggingBootstrapper{} })
//	reg.RegisterLazy("app.cache", func() bootstrappers.Bootstrapper { return &CacheBootstrapper{} }, "cache")
//
//	d := bootstrappers.NewDispatcher(taskDispatcher, c, logger)
//	if err := d.Dispatch(reg); err != nil {
//	    log.Fatal(err)
//	}
//
//	// later: RegisterBindings + Run of CacheBootstrapper happen here
//	cache, err := c.Make("cache")
//
//	// at exit: Shutdown of both
//	taskDispatcher.Dispatch(tasks.PreShutdown)
//
// Guarantees:
//   - A successful RegisterBindings and any Run happen at most once per class
//     id for the life of the Dispatcher, however many names map to the class.
//     Only a failed RegisterBindings is attempted again, by a later Dispatch
//     or lazy resolution.
//   - Within an eager pass every RegisterBindings completes before the first
//     Run.
//   - In the default mode lazy names are bound before eager bootstrappers
//     run, so an eager Run may resolve them.
//   - Every instantiated bootstrapper is shut down exactly once across all
//     passes, including lazy ones first resolved after the shutdown task was
//     registered. Shutdown failures do not stop the remaining shutdowns.
//   - None of this holds across goroutines: dispatch and resolve lazy names
//     from one goroutine.
package bootstrappers
