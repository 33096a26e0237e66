package session

import (
	"io"
	"net/url"
	"os"

	"github.com/andaru/atompub/atom"
	"github.com/andaru/atompub/schema"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config contains Session configuration
type Config struct {
	// Profile selects how strictly duplicated elements are treated
	Profile atom.Profile `yaml:"profile"`
	// MaxNestingDepth bounds expansion and inner error nesting. Zero
	// selects atom.DefaultMaxNestingDepth.
	MaxNestingDepth int `yaml:"max-nesting-depth,omitempty"`
	// AtomMetadata enables reading of ATOM metadata elements
	AtomMetadata           bool `yaml:"atom-metadata,omitempty"`
	ReportUndeclaredLinks  bool `yaml:"report-undeclared-links,omitempty"`
	IgnoreUndeclaredValues bool `yaml:"ignore-undeclared-values,omitempty"`
	// BaseURI resolves relative URIs not covered by an xml:base
	BaseURI string `yaml:"base-uri,omitempty"`
	// Request is true when reading request payloads
	Request bool `yaml:"request,omitempty"`
	// Kind, when set, is the payload kind read instead of the detected one
	Kind atom.PayloadKind `yaml:"kind,omitempty"`
	// ExpectedType is the expected type name of the payload's top-level
	// entry, feed entries, property or collection items
	ExpectedType string `yaml:"expected-type,omitempty"`
	// Metadata is the path of a CSDL metadata document loaded as the
	// model when Model is nil
	Metadata string `yaml:"metadata,omitempty"`

	// Model validates payloads when set
	Model schema.Model `yaml:"-"`
}

// LoadConfig decodes a YAML Config from r. Unknown keys are errors and
// an empty document yields the zero Config.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "decoding session config")
	}
	return c, nil
}

// LoadConfigFile decodes a YAML Config from the file at path
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.WithStack(err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// LoadModel sets c.Model from the CSDL document at c.Metadata, unless
// a model is already set or no metadata path is configured.
func (c *Config) LoadModel() error {
	if c.Model != nil || c.Metadata == "" {
		return nil
	}
	f, err := os.Open(c.Metadata)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()
	s, err := schema.ParseCSDL(f)
	if err != nil {
		return errors.Wrapf(err, "loading metadata %q", c.Metadata)
	}
	c.Model = s
	return nil
}

// Options returns the reader options described by c
func (c *Config) Options() ([]atom.Option, error) {
	if err := c.LoadModel(); err != nil {
		return nil, err
	}
	var behavior atom.UndeclaredPropertyBehavior
	if c.ReportUndeclaredLinks {
		behavior |= atom.ReportUndeclaredLink
	}
	if c.IgnoreUndeclaredValues {
		behavior |= atom.IgnoreUndeclaredValue
	}
	opts := []atom.Option{
		atom.WithProfile(c.Profile),
		atom.WithMaxNestingDepth(c.MaxNestingDepth),
		atom.WithAtomMetadata(c.AtomMetadata),
		atom.WithUndeclaredPropertyBehavior(behavior),
		atom.WithRequest(c.Request),
	}
	if c.Model != nil {
		opts = append(opts, atom.WithModel(c.Model))
	}
	if c.BaseURI != "" {
		u, err := url.Parse(c.BaseURI)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base-uri")
		}
		if !u.IsAbs() {
			return nil, errors.Errorf("base-uri %q is not absolute", c.BaseURI)
		}
		opts = append(opts, atom.WithBaseURI(u))
	}
	return opts, nil
}
