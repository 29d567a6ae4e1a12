package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-kernel/framework/container"
)

type counter struct{ n int }

func countingFactory(calls *int) container.Factory {
	return func(c *container.Container) (any, error) {
		*calls++
		return &counter{n: *calls}, nil
	}
}

// ── Bind / Singleton / Instance ───────────────────────────────────────────────

func TestBind_TransientMakeBuildsEachTime(t *testing.T) {
	c := container.New()
	calls := 0
	c.Bind("counter", countingFactory(&calls))

	first, err := c.Make("counter")
	require.NoError(t, err)
	second, err := c.Make("counter")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)
}

func TestSingleton_CachedAfterFirstMake(t *testing.T) {
	c := container.New()
	calls := 0
	c.Singleton("counter", countingFactory(&calls))

	first, err := c.Make("counter")
	require.NoError(t, err)
	second, err := c.Make("counter")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.True(t, c.Resolved("counter"))
}

func TestMakeShared_CachesTransientBinding(t *testing.T) {
	c := container.New()
	calls := 0
	c.Bind("counter", countingFactory(&calls))

	first, err := c.MakeShared("counter")
	require.NoError(t, err)
	second, err := c.Make("counter")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestBind_ReplacesSharedInstance(t *testing.T) {
	c := container.New()
	c.Instance("value", "old")
	c.Bind("value", func(*container.Container) (any, error) { return "new", nil })

	got, err := c.MakeShared("value")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}

func TestInstance_ReturnsSameValue(t *testing.T) {
	c := container.New()
	cfg := &counter{n: 7}
	c.Instance("config", cfg)

	got, err := container.Resolve[*counter](c, "config")
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}

func TestNew_BindsItself(t *testing.T) {
	c := container.New()
	got, err := container.Resolve[*container.Container](c, "container")
	require.NoError(t, err)
	assert.Same(t, c, got)
}

func TestAlias_ResolvesCanonical(t *testing.T) {
	c := container.New()
	c.Instance("cache", "redis")
	c.Alias("cache", "cacheManager")

	got, err := c.Make("cacheManager")
	require.NoError(t, err)
	assert.Equal(t, "redis", got)
	assert.True(t, c.Bound("cacheManager"))
}

func TestAlias_ToItselfPanics(t *testing.T) {
	c := container.New()
	assert.Panics(t, func() { c.Alias("a", "a") })
}

func TestForget_RemovesBindingAndInstance(t *testing.T) {
	c := container.New()
	c.Singleton("svc", func(*container.Container) (any, error) { return 1, nil })
	_, err := c.Make("svc")
	require.NoError(t, err)

	c.Forget("svc")

	assert.False(t, c.Bound("svc"))
	assert.False(t, c.Resolved("svc"))
}

func TestBindings_ListsBindingsAndInstances(t *testing.T) {
	c := container.New()
	c.Bind("a", func(*container.Container) (any, error) { return 1, nil })
	c.Instance("b", 2)

	assert.ElementsMatch(t, []string{"container", "a", "b"}, c.Bindings())
}

// ── Errors ────────────────────────────────────────────────────────────────────

func TestMake_UnboundReturnsBindingError(t *testing.T) {
	c := container.New()

	_, err := c.Make("missing")

	var be *container.BindingError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "missing", be.Abstract)
	assert.ErrorIs(t, err, container.ErrNotBound)
}

func TestMake_FactoryErrorIsWrapped(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")
	c.Bind("svc", func(*container.Container) (any, error) { return nil, boom })

	_, err := c.Make("svc")

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "[svc]")
}

func TestMake_DetectsCycle(t *testing.T) {
	c := container.New()
	c.Bind("a", func(c *container.Container) (any, error) { return c.Make("b") })
	c.Bind("b", func(c *container.Container) (any, error) { return c.Make("a") })

	_, err := c.Make("a")

	assert.ErrorIs(t, err, container.ErrCircularDependency)
}

func TestMakeShared_FactoryMayRebindItself(t *testing.T) {
	c := container.New()
	c.Bind("heavy", func(c *container.Container) (any, error) {
		c.Singleton("heavy", func(*container.Container) (any, error) { return "built", nil })
		return c.MakeShared("heavy")
	})

	got, err := c.MakeShared("heavy")
	require.NoError(t, err)
	assert.Equal(t, "built", got)

	again, err := c.Make("heavy")
	require.NoError(t, err)
	assert.Equal(t, "built", again)
}

func TestMakeShared_FactoryResolvingItselfWithoutRebindIsCycle(t *testing.T) {
	c := container.New()
	c.Bind("self", func(c *container.Container) (any, error) { return c.MakeShared("self") })

	_, err := c.MakeShared("self")

	assert.ErrorIs(t, err, container.ErrCircularDependency)
	assert.False(t, c.Resolved("self"))
}

func TestResolve_WrongTypeReturnsError(t *testing.T) {
	c := container.New()
	c.Instance("n", 42)

	_, err := container.Resolve[string](c, "n")

	var be *container.BindingError
	require.ErrorAs(t, err, &be)
	assert.Contains(t, err.Error(), "int")
}

func TestMustResolve_PanicsOnMissing(t *testing.T) {
	c := container.New()
	assert.Panics(t, func() { container.MustResolve[string](c, "missing") })
}

// ── Call ──────────────────────────────────────────────────────────────────────

type greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

func TestCall_InjectsContainerAndTypedArguments(t *testing.T) {
	c := container.New()
	cnt := &counter{n: 3}
	c.Instance(container.TypeKey(cnt), cnt)
	c.Instance(container.TypeKey((*greeter)(nil)), english{})

	var gotC *container.Container
	out, err := c.Call(func(inner *container.Container, n *counter, g greeter) (string, error) {
		gotC = inner
		return g.Greet() + "-" + string(rune('0'+n.n)), nil
	})

	require.NoError(t, err)
	assert.Same(t, c, gotC)
	assert.Equal(t, []any{"hello-3"}, out)
}

func TestCall_ReturnsFunctionError(t *testing.T) {
	c := container.New()
	boom := errors.New("run failed")

	_, err := c.Call(func(*container.Container) error { return boom })

	assert.Same(t, boom, err)
}

func TestCall_MissingDependency(t *testing.T) {
	c := container.New()

	_, err := c.Call(func(*counter) {})

	assert.ErrorIs(t, err, container.ErrNotBound)
}

func TestCall_NotAFunction(t *testing.T) {
	c := container.New()

	_, err := c.Call(42)

	assert.ErrorIs(t, err, container.ErrNotCallable)
}

func TestCall_MethodValue(t *testing.T) {
	c := container.New()
	var ran bool
	run := func(*container.Container) error { ran = true; return nil }

	out, err := c.Call(run)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.True(t, ran)
}

func TestTypeKey_PointerAndInterface(t *testing.T) {
	assert.Equal(t, container.TypeKey(&counter{}), container.TypeKey(counter{}))
	assert.Contains(t, container.TypeKey((*greeter)(nil)), ".greeter")
}
