package stache

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadData reads a YAML or JSON document to use as a render context.
func LoadData(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(ErrMsgReadData, path, err)
	}
	value, err := ParseData(data)
	if err != nil {
		return nil, withMetadata(err, MetaKeyPath, path)
	}
	return value, nil
}

// ReadData decodes a YAML or JSON document from r.
func ReadData(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, NewConfigError(ErrMsgReadData, StringValueEmpty, err)
	}
	return ParseData(data)
}

// ParseData decodes a YAML or JSON document. Mappings become map[string]any,
// sequences []any and scalars their natural Go types. An empty document yields nil.
func ParseData(data []byte) (any, error) {
	var value any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, NewConfigError(ErrMsgParseData, StringValueEmpty, err)
	}
	return value, nil
}
