// Package configuration parses the small YAML configuration file that
// controls fetchcore's ambient concerns: where the content-addressed
// cache lives, how long an HTTP fetch may take, and how many workers
// hash a directory concurrently. It follows the teacher's
// environment-variable override scheme (Configuration.Abc may be
// replaced by FETCHCORE_ABC, Configuration.Abc.Xyz by
// FETCHCORE_ABC_XYZ) without the teacher's multi-version parsing
// machinery, since this configuration has never shipped a prior shape to
// stay compatible with.
package configuration

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration is fetchcore's entire ambient configuration surface.
type Configuration struct {
	// CacheDir is the root of the content-addressed cache (spec.md §6's
	// tmp/p/o layout lives under here). Empty means CacheDirOrDefault's
	// fallback applies.
	CacheDir string `yaml:"cachedir,omitempty"`

	// HTTPTimeoutSeconds bounds how long a single dependency fetch may
	// take. Zero or negative falls back to DefaultHTTPTimeoutSeconds.
	HTTPTimeoutSeconds int `yaml:"httptimeoutseconds,omitempty"`

	// HashWorkers bounds the per-directory hashing worker pool. Zero lets
	// pkghash.HashDirectory apply its own default.
	HashWorkers int `yaml:"hashworkers,omitempty"`

	// ManifestFileName and BuildMarkerFile override resolve.Config's
	// defaults of the same name. Empty means "use resolve's default".
	ManifestFileName string `yaml:"manifestfilename,omitempty"`
	BuildMarkerFile  string `yaml:"buildmarkerfile,omitempty"`

	Log Log `yaml:"log,omitempty"`
}

// Log configures the ambient logrus logger.
type Log struct {
	// Level is one of logrus's level names ("debug", "info", "warn", ...).
	Level string `yaml:"level,omitempty"`

	// Formatter is "text" or "json".
	Formatter string `yaml:"formatter,omitempty"`
}

// DefaultHTTPTimeoutSeconds is used when HTTPTimeoutSeconds is unset.
const DefaultHTTPTimeoutSeconds = 30

// envPrefix is the prefix environment-variable overrides are matched
// against, mirroring the teacher's REGISTRY_ prefix.
const envPrefix = "FETCHCORE"

// Parse reads a YAML configuration document from rd, then applies
// environment-variable overrides and defaults.
func Parse(rd io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := &Configuration{}
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing configuration: %w", err)
		}
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		env[parts[0]] = parts[1]
	}
	if err := overwriteFields(reflect.ValueOf(config), envPrefix, env); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

// overwriteFields recurses through v's struct fields, replacing any whose
// uppercased, prefix-joined name matches an environment variable, exactly
// as the teacher's configuration.Parser does for the full registry
// configuration tree.
func overwriteFields(v reflect.Value, prefix string, env map[string]string) error {
	for v.Kind() == reflect.Ptr {
		v = reflect.Indirect(v)
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	for i := 0; i < v.NumField(); i++ {
		sf := v.Type().Field(i)
		fieldPrefix := strings.ToUpper(prefix + "_" + sf.Name)

		if raw, ok := env[fieldPrefix]; ok {
			fieldVal := reflect.New(sf.Type)
			if err := yaml.Unmarshal([]byte(raw), fieldVal.Interface()); err != nil {
				return fmt.Errorf("parsing %s=%q: %w", fieldPrefix, raw, err)
			}
			v.Field(i).Set(reflect.Indirect(fieldVal))
		}

		if err := overwriteFields(v.Field(i), fieldPrefix, env); err != nil {
			return err
		}
	}
	return nil
}

func (c *Configuration) applyDefaults() {
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Formatter == "" {
		c.Log.Formatter = "text"
	}
}

// CacheDirOrDefault returns CacheDir, or, if unset, a cache directory
// under the user's OS-appropriate cache directory.
func (c *Configuration) CacheDirOrDefault() (string, error) {
	if c.CacheDir != "" {
		return c.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving default cache directory: %w", err)
	}
	return filepath.Join(base, "fetchcore"), nil
}
