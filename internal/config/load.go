package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadEncode reads a YAML file over the encode defaults.
// Unknown fields are rejected.
func LoadEncode(path string) (Encode, error) {
	cfg := DefaultEncode()
	if err := decodeFile(path, &cfg); err != nil {
		return Encode{}, err
	}
	return cfg, nil
}

// LoadScale reads a YAML file over the scale defaults
func LoadScale(path string) (Scale, error) {
	cfg := DefaultScale()
	if err := decodeFile(path, &cfg); err != nil {
		return Scale{}, err
	}
	return cfg, nil
}

func decodeFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}
