package transcoder

import (
	"reflect"
	"strings"
	"sync"

	"github.com/wippyai/js-runtime/errors"
)

// Compiler builds conversion plans for Go types and caches them. It is safe
// for concurrent use.
type Compiler struct {
	cache sync.Map // reflect.Type -> *CompiledType
}

func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile returns the plan for goType.
func (c *Compiler) Compile(goType reflect.Type) (*CompiledType, error) {
	if goType == nil {
		return nil, errors.ToJSConversion("nil", "value")
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	ct, err := c.compile(goType, make(map[reflect.Type]*CompiledType), nil)
	if err != nil {
		return nil, err
	}
	actual, _ := c.cache.LoadOrStore(goType, ct)
	return actual.(*CompiledType), nil
}

func (c *Compiler) compile(goType reflect.Type, seen map[reflect.Type]*CompiledType, path []string) (*CompiledType, error) {
	if ct, ok := seen[goType]; ok {
		return ct, nil
	}
	if cached, ok := c.cache.Load(goType); ok {
		return cached.(*CompiledType), nil
	}

	ct := &CompiledType{GoType: goType}
	seen[goType] = ct

	switch {
	case goType == variantType:
		ct.Kind = KindVariant
		return ct, nil
	case isValueType(goType):
		ct.Kind = KindValue
		return ct, nil
	}

	var err error
	switch goType.Kind() {
	case reflect.Bool:
		ct.Kind = KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ct.Kind = KindInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		ct.Kind = KindUint
	case reflect.Float32, reflect.Float64:
		ct.Kind = KindFloat
	case reflect.String:
		ct.Kind = KindString
	case reflect.Interface:
		ct.Kind = KindInterface
	case reflect.Pointer:
		ct.Kind = KindPointer
		ct.Elem, err = c.compile(goType.Elem(), seen, path)
	case reflect.Slice:
		if goType.Elem().Kind() == reflect.Uint8 && !isValueType(goType.Elem()) {
			ct.Kind = KindBytes
			break
		}
		ct.Kind = KindSlice
		ct.Elem, err = c.compile(goType.Elem(), seen, append(path, "[]"))
	case reflect.Array:
		ct.Kind = KindArray
		ct.Elem, err = c.compile(goType.Elem(), seen, append(path, "[]"))
	case reflect.Map:
		err = c.compileMap(ct, seen, path)
	case reflect.Struct:
		err = c.compileStruct(ct, seen, path)
	default:
		err = unsupported(goType, path)
	}
	if err != nil {
		delete(seen, goType)
		return nil, err
	}
	return ct, nil
}

func (c *Compiler) compileMap(ct *CompiledType, seen map[reflect.Type]*CompiledType, path []string) error {
	goType := ct.GoType
	switch goType.Key().Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return withPath(errors.ToJSConversion(goType.Key().String(), "object key"), path)
	}

	var err error
	ct.Kind = KindMap
	if ct.Key, err = c.compile(goType.Key(), seen, path); err != nil {
		return err
	}
	ct.Elem, err = c.compile(goType.Elem(), seen, append(path, "{}"))
	return err
}

func (c *Compiler) compileStruct(ct *CompiledType, seen map[reflect.Type]*CompiledType, path []string) error {
	ct.Kind = KindStruct

	fields := collectFields(ct.GoType, nil)
	ct.Fields = make([]CompiledField, 0, len(fields))
	for _, f := range fields {
		fieldPath := append(append([]string{}, path...), f.Name)
		ft, err := c.compile(f.Type, seen, fieldPath)
		if err != nil {
			return err
		}
		ct.Fields = append(ct.Fields, CompiledField{
			Name:      f.Name,
			GoName:    f.GoName,
			Index:     f.Index,
			OmitEmpty: f.OmitEmpty,
			Type:      ft,
		})
	}
	return nil
}

type structField struct {
	Name      string
	GoName    string
	Index     []int
	OmitEmpty bool
	Type      reflect.Type
}

// collectFields lists the encoded fields of t in declaration order.
// Untagged embedded structs contribute their fields; when two fields share
// a name, the shallower one wins.
func collectFields(t reflect.Type, prefix []int) []structField {
	var out []structField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		name, opts, _ := strings.Cut(sf.Tag.Get("js"), ",")
		if name == "-" && opts == "" {
			continue
		}
		if sf.Anonymous && name == "" && sf.IsExported() && sf.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(sf.Type, index)...)
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		out = append(out, structField{
			Name:      name,
			GoName:    sf.Name,
			Index:     index,
			OmitEmpty: hasOption(opts, "omitempty"),
			Type:      sf.Type,
		})
	}
	return dedupe(out)
}

func dedupe(fields []structField) []structField {
	best := make(map[string]int, len(fields))
	for i, f := range fields {
		if j, ok := best[f.Name]; !ok || len(f.Index) < len(fields[j].Index) {
			best[f.Name] = i
		}
	}
	out := fields[:0:0]
	for i, f := range fields {
		if best[f.Name] == i {
			out = append(out, f)
		}
	}
	return out
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isValueType(t reflect.Type) bool {
	return t == valueType ||
		handleTypes[t] ||
		t.Implements(toValuerType) ||
		reflect.PointerTo(t).Implements(fromValuerType)
}

func unsupported(t reflect.Type, path []string) *errors.Error {
	return withPath(errors.ToJSConversion(t.String(), "value"), path)
}

func withPath(err *errors.Error, path []string) *errors.Error {
	if len(path) == 0 {
		return err
	}
	return err.Contextf("at %s", strings.Join(path, "."))
}
