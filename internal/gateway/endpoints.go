package gateway

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed endpoints.yaml
var defaultEndpointsYAML []byte

// EndpointTable maps symbolic operation names to backend path templates.
// Loaded once at startup and immutable afterwards.
type EndpointTable struct {
	paths map[string]string
}

type endpointsFile struct {
	Endpoints map[string]string `yaml:"endpoints"`
}

// LoadEndpoints reads the endpoint table from the given YAML file, or from
// the embedded default table when path is empty.
func LoadEndpoints(path string) (*EndpointTable, error) {
	raw := defaultEndpointsYAML
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read endpoints file: %w", err)
		}
	}

	var f endpointsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse endpoints: %w", err)
	}
	if len(f.Endpoints) == 0 {
		return nil, fmt.Errorf("endpoints table is empty")
	}

	for name, p := range f.Endpoints {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("endpoint %q: path %q must start with /", name, p)
		}
	}

	return &EndpointTable{paths: f.Endpoints}, nil
}

// Path returns the raw template for a symbolic name.
func (t *EndpointTable) Path(name string) (string, error) {
	p, ok := t.paths[name]
	if !ok {
		return "", fmt.Errorf("unknown endpoint %q", name)
	}
	return p, nil
}

// Expand fills {placeholder} segments of the named template. Every
// placeholder in the template must be supplied.
func (t *EndpointTable) Expand(name string, params map[string]string) (string, error) {
	p, err := t.Path(name)
	if err != nil {
		return "", err
	}
	for key, value := range params {
		p = strings.ReplaceAll(p, "{"+key+"}", value)
	}
	if i := strings.IndexByte(p, '{'); i >= 0 {
		return "", fmt.Errorf("endpoint %q: unresolved placeholder in %q", name, p)
	}
	return p, nil
}
