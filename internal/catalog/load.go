package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedMajor is the catalog format major version this build reads.
const SupportedMajor = "v1"

//go:embed schema.json
var schemaJSON []byte

//go:embed builtin.yaml
var builtinYAML []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// fileSchema compiles the embedded catalog schema once per process.
func fileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			schemaErr = fmt.Errorf("parse catalog schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://catalog.json", doc); err != nil {
			schemaErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("schema://catalog.json")
	})
	return compiledSchema, schemaErr
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtinYAML)
}

// Parse decodes YAML catalog data, checks it against the catalog schema
// and the format version, and builds a validated Catalog.
func Parse(data []byte) (*Catalog, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := checkVersion(f.Version); err != nil {
		return nil, err
	}

	courses, err := f.ToCourses()
	if err != nil {
		return nil, err
	}
	return New(f.Version, courses)
}

// checkSchema validates the raw document. The YAML is re-encoded as JSON
// so the validator sees JSON number types.
func checkSchema(data []byte) error {
	sch, err := fileSchema()
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	js, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("catalog is not representable as JSON: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return fmt.Errorf("re-read catalog: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}

func checkVersion(v string) error {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("catalog version %q is not a semantic version", v)
	}
	if semver.Major(v) != SupportedMajor {
		return fmt.Errorf("catalog version %s unsupported (want %s.x)", v, SupportedMajor)
	}
	return nil
}

// MarshalCards renders cards in catalog YAML layout.
func MarshalCards(cs []CardFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"cards": cs}); err != nil {
		return nil, fmt.Errorf("encode cards: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
