package yamlutil

import (
	"flag"
	"testing"
)

func TestSetFlagsFromYaml(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	logLevel := fs.String("log-level", "INFO", "")
	windowSize := fs.Int("window-size", 32768, "")
	fs.Parse(nil)

	raw := []byte("LOG_LEVEL: DEBUG\nWINDOW_SIZE: 16384\n")
	if err := SetFlagsFromYaml(fs, raw); err != nil {
		t.Fatalf("SetFlagsFromYaml: %v", err)
	}
	if *logLevel != "DEBUG" {
		t.Errorf("log-level = %q, want DEBUG", *logLevel)
	}
	if *windowSize != 16384 {
		t.Errorf("window-size = %d, want 16384", *windowSize)
	}
}

func TestSetFlagsFromYamlDoesNotOverrideExplicitFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	logLevel := fs.String("log-level", "INFO", "")
	fs.Parse([]string{"-log-level=WARNING"})

	raw := []byte("LOG_LEVEL: DEBUG\n")
	if err := SetFlagsFromYaml(fs, raw); err != nil {
		t.Fatalf("SetFlagsFromYaml: %v", err)
	}
	if *logLevel != "WARNING" {
		t.Errorf("log-level = %q, want WARNING (explicitly set, should not be overridden)", *logLevel)
	}
}
