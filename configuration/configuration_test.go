package configuration

import (
	"os"
	"strings"
	"testing"
)

func TestParseEmptyDocumentAppliesDefaults(t *testing.T) {
	config, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if config.HTTPTimeoutSeconds != DefaultHTTPTimeoutSeconds {
		t.Errorf("expected default timeout %d, got %d", DefaultHTTPTimeoutSeconds, config.HTTPTimeoutSeconds)
	}
	if config.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", config.Log.Level)
	}
	if config.Log.Formatter != "text" {
		t.Errorf("expected default log formatter text, got %q", config.Log.Formatter)
	}
}

func TestParseReadsYAMLFields(t *testing.T) {
	doc := `
cachedir: /var/cache/fetchcore
httptimeoutseconds: 90
hashworkers: 4
manifestfilename: deps.yaml
buildmarkerfile: build.marker
log:
  level: debug
  formatter: json
`
	config, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if config.CacheDir != "/var/cache/fetchcore" {
		t.Errorf("unexpected cachedir %q", config.CacheDir)
	}
	if config.HTTPTimeoutSeconds != 90 {
		t.Errorf("unexpected timeout %d", config.HTTPTimeoutSeconds)
	}
	if config.HashWorkers != 4 {
		t.Errorf("unexpected hashworkers %d", config.HashWorkers)
	}
	if config.ManifestFileName != "deps.yaml" {
		t.Errorf("unexpected manifestfilename %q", config.ManifestFileName)
	}
	if config.BuildMarkerFile != "build.marker" {
		t.Errorf("unexpected buildmarkerfile %q", config.BuildMarkerFile)
	}
	if config.Log.Level != "debug" || config.Log.Formatter != "json" {
		t.Errorf("unexpected log config %+v", config.Log)
	}
}

func TestParseEnvironmentOverridesTopLevelField(t *testing.T) {
	t.Setenv("FETCHCORE_CACHEDIR", "/from/env")
	config, err := Parse(strings.NewReader("cachedir: /from/yaml\n"))
	if err != nil {
		t.Fatal(err)
	}
	if config.CacheDir != "/from/env" {
		t.Errorf("expected env override to win, got %q", config.CacheDir)
	}
}

func TestParseEnvironmentOverridesNestedField(t *testing.T) {
	t.Setenv("FETCHCORE_LOG_LEVEL", "warn")
	config, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if config.Log.Level != "warn" {
		t.Errorf("expected nested env override to win, got %q", config.Log.Level)
	}
}

func TestParseEnvironmentOverrideInvalidIntReturnsError(t *testing.T) {
	t.Setenv("FETCHCORE_HASHWORKERS", "not-a-number")
	if _, err := Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected an error for a non-numeric override of an int field")
	}
}

func TestCacheDirOrDefaultUsesConfiguredValue(t *testing.T) {
	config := &Configuration{CacheDir: "/explicit"}
	dir, err := config.CacheDirOrDefault()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/explicit" {
		t.Errorf("expected explicit cachedir to be returned unchanged, got %q", dir)
	}
}

func TestCacheDirOrDefaultFallsBackToUserCacheDir(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmp)
	config := &Configuration{}
	dir, err := config.CacheDirOrDefault()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dir, tmp) {
		t.Errorf("expected fallback cachedir under %q, got %q", tmp, dir)
	}
	if !strings.HasSuffix(dir, "fetchcore") {
		t.Errorf("expected fallback cachedir to end in fetchcore, got %q", dir)
	}
}

func init() {
	// Clear a FETCHCORE_CACHEDIR inherited from the developer's environment
	// before any test runs. Overrides set inside a test use t.Setenv, which
	// restores the previous value on cleanup; other inherited FETCHCORE_*
	// variables are not cleared here.
	_ = os.Unsetenv("FETCHCORE_CACHEDIR")
}
