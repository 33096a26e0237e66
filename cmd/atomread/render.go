package main

import (
	"encoding"
	"net/url"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

var urlType = reflect.TypeOf(url.URL{})

// render returns the YAML node of v, honouring yaml struct tags. URLs and
// encoding.TextMarshaler values are rendered as strings.
func render(v reflect.Value) (*yaml.Node, error) {
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
		}
		v = v.Elem()
	}
	if v.Type() == urlType {
		u := v.Interface().(url.URL)
		return scalar(u.String()), nil
	}
	if m, ok := v.Interface().(encoding.TextMarshaler); ok {
		return text(m)
	}

	switch v.Kind() {
	case reflect.Struct:
		n := &yaml.Node{Kind: yaml.MappingNode}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, omitEmpty, skip := fieldName(f)
			fv := v.Field(i)
			if skip || (omitEmpty && isEmpty(fv)) {
				continue
			}
			value, err := render(fv)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, scalar(name), value)
		}
		return n, nil
	case reflect.Slice, reflect.Array:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for i := 0; i < v.Len(); i++ {
			item, err := render(v.Index(i))
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, item)
		}
		return n, nil
	}
	n := &yaml.Node{}
	if err := n.Encode(v.Interface()); err != nil {
		return nil, err
	}
	return n, nil
}

func fieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("yaml")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, strings.Contains(opts, "omitempty"), false
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return v.IsZero()
}

func text(m encoding.TextMarshaler) (*yaml.Node, error) {
	b, err := m.MarshalText()
	if err != nil {
		return nil, err
	}
	return scalar(string(b)), nil
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
