package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Store is a string-keyed lookup for per-device tunables. Lookups can fail;
// a missing key returns KeyNotFoundError.
type Store interface {
	Get(key string) (interface{}, error)
}

type KeyNotFoundError struct {
	Key string
}

func (err KeyNotFoundError) Error() string {
	return fmt.Sprintf("no such config key %s", err.Key)
}

type KeyTypeError struct {
	Key   string
	Want  string
	Value interface{}
}

func (err KeyTypeError) Error() string {
	return fmt.Sprintf("config key %s: want %s, have %T", err.Key, err.Want, err.Value)
}

// GetFloat looks up a key and coerces it to float64. Integer values are
// promoted; anything else is a KeyTypeError.
func GetFloat(s Store, key string) (float64, error) {
	raw, err := s.Get(key)
	if err != nil {
		return 0, err
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, KeyTypeError{Key: key, Want: "float64", Value: raw}
	}
}

// GetInt looks up a key and asserts it to int.
func GetInt(s Store, key string) (int, error) {
	raw, err := s.Get(key)
	if err != nil {
		return 0, err
	}

	v, ok := raw.(int)
	if !ok {
		return 0, KeyTypeError{Key: key, Want: "int", Value: raw}
	}

	return v, nil
}

// GetString looks up a key and asserts it to string.
func GetString(s Store, key string) (string, error) {
	raw, err := s.Get(key)
	if err != nil {
		return "", err
	}

	v, ok := raw.(string)
	if !ok {
		return "", KeyTypeError{Key: key, Want: "string", Value: raw}
	}

	return v, nil
}

// FileStore is a Store backed by a YAML document. Nested mappings are
// flattened to dotted keys, so
//
//	magEncoder:
//	  neutralDeadband: 0.04
//
// is addressed as "magEncoder.neutralDeadband".
type FileStore struct {
	values map[string]interface{}
}

// Load reads and parses a YAML tunables file.
func Load(path string) (*FileStore, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(raw)
}

// Parse builds a FileStore from raw YAML bytes.
func Parse(raw []byte) (*FileStore, error) {
	var doc map[interface{}]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	s := &FileStore{values: make(map[string]interface{})}
	s.flatten("", doc)

	return s, nil
}

func (s *FileStore) flatten(prefix string, doc map[interface{}]interface{}) {
	for k, v := range doc {
		key := fmt.Sprintf("%v", k)
		if len(prefix) > 0 {
			key = prefix + "." + key
		}

		if nested, ok := v.(map[interface{}]interface{}); ok {
			s.flatten(key, nested)
			continue
		}

		s.values[key] = v
	}
}

func (s *FileStore) Get(key string) (interface{}, error) {
	v, ok := s.values[key]
	if !ok {
		return nil, KeyNotFoundError{Key: key}
	}

	return v, nil
}
