package runtime

import (
	"reflect"
	"sort"
	"unicode"

	"github.com/wippyai/js-runtime/errors"
)

// Host is implemented by structs whose exported methods become script
// functions. The methods are installed on a global object named by
// Namespace, with lowerCamelCase names (GetValue -> getValue).
type Host interface {
	Namespace() string
}

// ExplicitRegistrar lets a Host name its functions itself instead of
// exposing every exported method.
type ExplicitRegistrar interface {
	Register() map[string]any
}

var (
	invocationType = reflect.TypeOf(Invocation{})
	contextType    = reflect.TypeOf((*Context)(nil))
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
)

// RegisterHost installs the functions of h on the global object named by
// h.Namespace(). An existing object of that name is replaced.
func (c *Context) RegisterHost(h Host) error {
	ns := h.Namespace()
	if ns == "" {
		return errors.External(errors.Message("host namespace cannot be empty"))
	}

	var funcs map[string]any
	if er, ok := h.(ExplicitRegistrar); ok {
		funcs = er.Register()
	} else {
		funcs = make(map[string]any)
		rv := reflect.ValueOf(h)
		rt := rv.Type()
		for i := 0; i < rt.NumMethod(); i++ {
			method := rt.Method(i)
			if !method.IsExported() || method.Name == "Namespace" {
				continue
			}
			funcs[toLowerCamel(method.Name)] = rv.Method(i).Interface()
		}
	}

	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)

	obj := c.CreateObject()
	defer obj.Drop()
	for _, name := range names {
		fn, err := c.WrapFunc(funcs[name])
		if err != nil {
			return errors.Convert(err).Contextf("%s.%s", ns, name)
		}
		err = obj.Set(name, fn)
		fn.Drop()
		if err != nil {
			return err
		}
	}

	globals := c.Globals()
	defer globals.Drop()
	return globals.Set(ns, obj)
}

// RegisterFunc installs fn as a global function. fn is wrapped with
// WrapFunc.
func (c *Context) RegisterFunc(name string, fn any) error {
	if name == "" {
		return errors.External(errors.Message("function name cannot be empty"))
	}
	f, err := c.WrapFunc(fn)
	if err != nil {
		return errors.Convert(err).WithContext(name)
	}
	defer f.Drop()

	globals := c.Globals()
	defer globals.Drop()
	return globals.Set(name, f)
}

// WrapFunc turns an arbitrary Go function into a script function.
//
// A Callback (or a func with its signature) is used as is. Other functions
// may take an Invocation or *Context first; the remaining parameters are
// converted from the call arguments with the Into rules, and a variadic
// final parameter takes whatever arguments are left. The function may
// return nothing, a value, an error, or a value and an error.
func (c *Context) WrapFunc(fn any) (Function, error) {
	switch f := fn.(type) {
	case Callback:
		return c.CreateFunction(f), nil
	case func(Invocation) (any, error):
		return c.CreateFunction(f), nil
	}

	cb, err := reflectCallback(reflect.ValueOf(fn))
	if err != nil {
		return Function{}, err
	}
	return c.CreateFunction(cb), nil
}

func reflectCallback(rv reflect.Value) (Callback, error) {
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil, errors.ToJSConversion(typeName(rv), "function")
	}
	t := rv.Type()

	switch t.NumOut() {
	case 0, 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, errors.ToJSConversion(t.String(), "function")
		}
	default:
		return nil, errors.ToJSConversion(t.String(), "function")
	}

	start := 0
	if t.NumIn() > 0 && (t.In(0) == invocationType || t.In(0) == contextType) {
		start = 1
	}

	return func(inv Invocation) (any, error) {
		in := make([]reflect.Value, 0, t.NumIn())
		switch {
		case start == 0:
		case t.In(0) == invocationType:
			in = append(in, reflect.ValueOf(inv))
		default:
			in = append(in, reflect.ValueOf(inv.Ctx))
		}

		for i := start; i < t.NumIn(); i++ {
			arg := i - start
			if t.IsVariadic() && i == t.NumIn()-1 {
				elem := t.In(i).Elem()
				for ; arg < inv.Args.Len(); arg++ {
					p := reflect.New(elem)
					if err := inv.Ctx.into(inv.Args[arg], p.Interface()); err != nil {
						return nil, errors.Convert(err).Contextf("argument %d", arg+1)
					}
					in = append(in, p.Elem())
				}
				break
			}
			p := reflect.New(t.In(i))
			if err := inv.Ctx.into(inv.Args.Get(arg), p.Interface()); err != nil {
				return nil, errors.Convert(err).Contextf("argument %d", arg+1)
			}
			in = append(in, p.Elem())
		}

		out := rv.Call(in)
		return results(out)
	}, nil
}

func results(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	if last.Type() == errorType {
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

func typeName(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}
	return rv.Type().String()
}

// toLowerCamel lowercases the leading word of a Go identifier, treating a
// run of capitals as one word: GetValue -> getValue, HTTPGet -> httpGet,
// ID -> id.
func toLowerCamel(s string) string {
	runes := []rune(s)
	end := 0
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	// In an acronym followed by a word, the last capital starts the word.
	if end > 1 && end < len(runes) && unicode.IsLower(runes[end]) {
		end--
	}
	if end == 0 {
		end = 1
	}
	for i := 0; i < end && i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
