package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	// TagFileConfig points at a single documentation tag file. A non-empty
	// URL marks the tag file as describing an external documentation set
	// rooted at that location.
	TagFileConfig struct {
		Path string `yaml:"path" sanitize:"assure_file_access" validate:"required"`
		URL  string `yaml:"url,omitempty"`
	}

	PatchConfig struct {
		// Extension qualifies resolved target page names that come without one.
		Extension string `yaml:"extension" validate:"required,startswith=."`
		// Context is the default symbolic scope used to disambiguate
		// reference names, overridable per run from the command line.
		Context string `yaml:"context,omitempty"`
		// RelativePath is the default path base prepended to non-external
		// resolved links.
		RelativePath string `yaml:"relative_path,omitempty"`
		// Unresolved selects what happens to references that do not
		// resolve: rewrite to an inert link with a notification hook, or
		// leave the anchor untouched for troubleshooting.
		Unresolved UnresolvedMode  `yaml:"unresolved" validate:"gte=0"`
		Verify     bool            `yaml:"verify_output"`
		TagFiles   []TagFileConfig `yaml:"tagfiles,omitempty" validate:"dive"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Patch     PatchConfig    `yaml:"patch"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a
// byte slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
