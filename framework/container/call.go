package container

import (
	"fmt"
	"reflect"
)

var (
	containerType = reflect.TypeOf((*Container)(nil))
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

// Call invokes fn with its arguments injected from the container and
// returns fn's results. A *Container parameter receives c; every other
// parameter is resolved as the shared instance under TypeKey of its type.
// If fn's last result is an error and non-nil, it is returned as err and
// the remaining results are dropped.
//
//	err := c.Call(func(log *zap.Logger, repo UserRepository) error {
//	    log.Info("users", zap.Int("count", repo.Count()))
//	    return nil
//	})
//
// Bootstrapper methods are called the same way:
//
//	_, err := c.Call(bootstrapper.Run)
func (c *Container) Call(fn any) ([]any, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, &BindingError{Abstract: fmt.Sprintf("%T", fn), Err: ErrNotCallable}
	}
	t := v.Type()

	args := make([]reflect.Value, t.NumIn())
	for i := range args {
		arg, err := c.argument(t.In(i))
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	out := v.Call(args)

	if n := len(out); n > 0 && t.Out(n-1) == errorType {
		if errv := out[n-1]; !errv.IsNil() {
			return nil, errv.Interface().(error)
		}
		out = out[:n-1]
	}

	results := make([]any, len(out))
	for i, r := range out {
		results[i] = r.Interface()
	}
	return results, nil
}

func (c *Container) argument(t reflect.Type) (reflect.Value, error) {
	if t == containerType {
		return reflect.ValueOf(c), nil
	}

	key := typeKey(t)
	instance, err := c.MakeShared(key)
	if err != nil {
		return reflect.Value{}, err
	}

	v := reflect.ValueOf(instance)
	if !v.IsValid() {
		return reflect.Zero(t), nil
	}
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, &BindingError{
			Abstract: key,
			Err:      fmt.Errorf("resolved to %s, not assignable to %s", v.Type(), t),
		}
	}
	return v, nil
}
