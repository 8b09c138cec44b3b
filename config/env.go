package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// loadFromEnv overrides cfg fields whose env tag names a set environment variable.
// Nested structs are walked; their tags are absolute names.
func loadFromEnv(cfg *Config) error {
	return applyEnv(reflect.ValueOf(cfg).Elem())
}

func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field, meta := v.Field(i), t.Field(i)
		if !meta.IsExported() {
			continue
		}
		if field.Kind() == reflect.Struct && field.Type() != timeType {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}
		name := meta.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		parsed, err := parseEnvValue(field.Type(), raw)
		if err != nil {
			return fmt.Errorf("failed to set field %s from env var %s: %w", meta.Name, name, err)
		}
		field.Set(parsed)
	}
	return nil
}

// parseEnvValue converts raw into a value of type t. Lists are comma separated and maps
// use key=value pairs separated by commas.
func parseEnvValue(t reflect.Type, raw string) (reflect.Value, error) {
	switch t {
	case durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid duration value: %s", raw)
		}
		return reflect.ValueOf(d), nil
	case timeType:
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid RFC3339 time value: %s", raw)
		}
		return reflect.ValueOf(ts), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		out.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid boolean value: %s", raw)
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid integer value: %s", raw)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid unsigned integer value: %s", raw)
		}
		out.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("invalid float value: %s", raw)
		}
		out.SetFloat(f)
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("unsupported slice type: %s", t.Elem().Kind())
		}
		parts := strings.Split(raw, ",")
		out = reflect.MakeSlice(t, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p).Convert(t.Elem()))
			}
		}
	case reflect.Map:
		if t.Key().Kind() != reflect.String || t.Elem().Kind() != reflect.String {
			return reflect.Value{}, fmt.Errorf("unsupported map type: %s -> %s", t.Key().Kind(), t.Elem().Kind())
		}
		out = reflect.MakeMap(t)
		for _, pair := range strings.Split(raw, ",") {
			k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok {
				return reflect.Value{}, fmt.Errorf("invalid map entry format: %s", pair)
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), reflect.ValueOf(v).Convert(t.Elem()))
		}
	default:
		return reflect.Value{}, fmt.Errorf("unsupported field type: %s", t.Kind())
	}
	return out, nil
}
