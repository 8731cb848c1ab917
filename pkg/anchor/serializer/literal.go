package serializer

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Literal values are written as YAML where every node carries a local tag
// naming its Go type ("!int64", "!slice.string", "!map.any", "!nil"), so a
// decoded literal has exactly the type it was encoded from. Only builtin
// scalars, the empty interface, and slices, arrays and string keyed maps of
// those can be encoded.

const nilTag = "nil"

var (
	anyType    = reflect.TypeOf((*any)(nil)).Elem()
	stringType = reflect.TypeOf("")

	scalarTypes = map[string]reflect.Type{
		"bool":    reflect.TypeOf(false),
		"string":  stringType,
		"int":     reflect.TypeOf(int(0)),
		"int8":    reflect.TypeOf(int8(0)),
		"int16":   reflect.TypeOf(int16(0)),
		"int32":   reflect.TypeOf(int32(0)),
		"int64":   reflect.TypeOf(int64(0)),
		"uint":    reflect.TypeOf(uint(0)),
		"uint8":   reflect.TypeOf(uint8(0)),
		"uint16":  reflect.TypeOf(uint16(0)),
		"uint32":  reflect.TypeOf(uint32(0)),
		"uint64":  reflect.TypeOf(uint64(0)),
		"float32": reflect.TypeOf(float32(0)),
		"float64": reflect.TypeOf(float64(0)),
	}
)

// descriptor names t in the tag grammar
func descriptor(t reflect.Type) (string, error) {
	if named := t.Name(); named != "" {
		if scalar, ok := scalarTypes[named]; ok && scalar == t {
			return named, nil
		}
		if t != anyType {
			return "", fmt.Errorf("named type %s", t)
		}
	}

	switch t.Kind() {
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return "any", nil
		}
	case reflect.Slice:
		elem, err := descriptor(t.Elem())
		if err != nil {
			return "", err
		}
		return "slice." + elem, nil
	case reflect.Array:
		elem, err := descriptor(t.Elem())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("array.%d.%s", t.Len(), elem), nil
	case reflect.Map:
		if t.Key() != stringType {
			return "", fmt.Errorf("map key %s is not string", t.Key())
		}
		elem, err := descriptor(t.Elem())
		if err != nil {
			return "", err
		}
		return "map." + elem, nil
	}
	return "", fmt.Errorf("type %s", t)
}

// parseDescriptor is the inverse of descriptor
func parseDescriptor(s string) (reflect.Type, error) {
	if scalar, ok := scalarTypes[s]; ok {
		return scalar, nil
	}
	switch {
	case s == "any":
		return anyType, nil
	case strings.HasPrefix(s, "slice."):
		elem, err := parseDescriptor(strings.TrimPrefix(s, "slice."))
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(elem), nil
	case strings.HasPrefix(s, "map."):
		elem, err := parseDescriptor(strings.TrimPrefix(s, "map."))
		if err != nil {
			return nil, err
		}
		return reflect.MapOf(stringType, elem), nil
	case strings.HasPrefix(s, "array."):
		size, rest, ok := strings.Cut(strings.TrimPrefix(s, "array."), ".")
		if !ok {
			return nil, fmt.Errorf("malformed array type %q", s)
		}
		n, err := strconv.Atoi(size)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("malformed array length in %q", s)
		}
		elem, err := parseDescriptor(rest)
		if err != nil {
			return nil, err
		}
		return reflect.ArrayOf(n, elem), nil
	}
	return nil, fmt.Errorf("unknown literal type %q", s)
}

func encodeLiteral(v any) (string, error) {
	node, err := literalNode(reflect.ValueOf(v))
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func literalNode(v reflect.Value) (*yaml.Node, error) {
	if !v.IsValid() {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!" + nilTag, Value: "null"}, nil
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return literalNode(reflect.Value{})
		}
		return literalNode(v.Elem())
	}

	desc, err := descriptor(v.Type())
	if err != nil {
		return nil, err
	}
	tag := "!" + desc
	scalar := func(value string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	}

	switch v.Kind() {
	case reflect.Bool:
		return scalar(strconv.FormatBool(v.Bool())), nil
	case reflect.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String(), Style: yaml.DoubleQuotedStyle}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalar(strconv.FormatInt(v.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return scalar(strconv.FormatUint(v.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		return scalar(strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits())), nil

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return scalar("null"), nil
		}
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: tag}
		for i := 0; i < v.Len(); i++ {
			child, err := literalNode(v.Index(i))
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			node.Content = append(node.Content, child)
		}
		return node, nil

	case reflect.Map:
		if v.IsNil() {
			return scalar("null"), nil
		}
		keys := make([]string, 0, v.Len())
		for _, key := range v.MapKeys() {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)

		node := &yaml.Node{Kind: yaml.MappingNode, Tag: tag}
		for _, key := range keys {
			child, err := literalNode(v.MapIndex(reflect.ValueOf(key)))
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", key, err)
			}
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key, Style: yaml.DoubleQuotedStyle},
				child)
		}
		return node, nil
	}
	return nil, fmt.Errorf("type %s", v.Type())
}

// serializable reports whether v can be encoded as a literal
func serializable(v any) bool {
	_, err := literalNode(reflect.ValueOf(v))
	return err == nil
}

func decodeLiteral(text string) (any, error) {
	var document yaml.Node
	if err := yaml.Unmarshal([]byte(text), &document); err != nil {
		return nil, err
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) == 0 {
		return nil, nil
	}

	value, err := literalValue(document.Content[0])
	if err != nil {
		return nil, err
	}
	if !value.IsValid() {
		return nil, nil
	}
	return value.Interface(), nil
}

// literalValue rebuilds the value of a tagged node. Nodes without a Go type
// tag are decoded the way plain YAML is.
func literalValue(node *yaml.Node) (reflect.Value, error) {
	if !strings.HasPrefix(node.Tag, "!") || strings.HasPrefix(node.Tag, "!!") {
		var value any
		if err := node.Decode(&value); err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(value), nil
	}

	desc := strings.TrimPrefix(node.Tag, "!")
	if desc == nilTag {
		return reflect.Value{}, nil
	}
	t, err := parseDescriptor(desc)
	if err != nil {
		return reflect.Value{}, err
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Map:
		if node.Kind == yaml.ScalarNode {
			return reflect.Zero(t), nil
		}
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(node.Value)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.String:
		out.SetString(node.Value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(node.Value, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(node.Value, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(node.Value, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetFloat(f)

	case reflect.Slice, reflect.Array:
		if node.Kind != yaml.SequenceNode {
			return reflect.Value{}, fmt.Errorf("%s literal is not a sequence", desc)
		}
		if t.Kind() == reflect.Slice {
			out = reflect.MakeSlice(t, len(node.Content), len(node.Content))
		} else if t.Len() != len(node.Content) {
			return reflect.Value{}, fmt.Errorf("%s literal has %d elements", desc, len(node.Content))
		}
		for i, child := range node.Content {
			elem, err := literalValue(child)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			if err := assign(out.Index(i), elem); err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
		}

	case reflect.Map:
		if node.Kind != yaml.MappingNode {
			return reflect.Value{}, fmt.Errorf("%s literal is not a mapping", desc)
		}
		out = reflect.MakeMapWithSize(t, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			elem, err := literalValue(node.Content[i+1])
			if err != nil {
				return reflect.Value{}, fmt.Errorf("key %s: %w", key, err)
			}
			slot := reflect.New(t.Elem()).Elem()
			if err := assign(slot, elem); err != nil {
				return reflect.Value{}, fmt.Errorf("key %s: %w", key, err)
			}
			out.SetMapIndex(reflect.ValueOf(key), slot)
		}

	case reflect.Interface:
		return reflect.Value{}, fmt.Errorf("literal tagged %q has no concrete type", desc)
	}
	return out, nil
}

func assign(dst, v reflect.Value) error {
	if !v.IsValid() {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	if !v.Type().AssignableTo(dst.Type()) {
		return fmt.Errorf("%s is not assignable to %s", v.Type(), dst.Type())
	}
	dst.Set(v)
	return nil
}
