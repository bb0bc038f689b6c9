package bank

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDoc []byte

// Parse decodes a YAML (or JSON) document keyed by dimension letter.
func Parse(data []byte) (*Bank, error) {
	var raw map[string][]Question
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	dims := make(map[Dimension][]Question, len(raw))
	for k, qs := range raw {
		d, ok := ParseDimension(k)
		if !ok {
			return nil, fmt.Errorf("decode question bank: unknown dimension %q", k)
		}
		if _, dup := dims[d]; dup {
			return nil, fmt.Errorf("decode question bank: dimension %q listed twice", k)
		}
		dims[d] = qs
	}
	return New(dims)
}

// Load reads the bank at path.
func Load(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	b, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// LoadOrDefault loads path, or the embedded reference bank when path is empty.
func LoadOrDefault(path string) (*Bank, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Default returns the embedded reference bank.
func Default() *Bank {
	b, err := Parse(defaultDoc)
	if err != nil {
		panic("bank: embedded default: " + err.Error())
	}
	return b
}
