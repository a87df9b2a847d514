package config

import "testing"

func TestDefaultServerConfigValidates(t *testing.T) {
	cfg, err := LoadServer("")
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Port != 9002 {
		t.Fatalf("Port = %d, want 9002 (spec default)", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("Host = %q, want 0.0.0.0", cfg.Host)
	}
}

// Filename and OutFile carry no required tag: the send command checks them
// after applying flag overrides, so validateClient must accept them empty.
func TestValidateClientLeavesFilenameToCaller(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Filename = "scan.h5"
	cfg.OutFile = "out.h5"
	if err := validateClient(cfg); err != nil {
		t.Fatalf("expected a fully-populated client config to validate, got: %v", err)
	}

	cfg.Filename = ""
	if err := validateClient(cfg); err != nil {
		t.Fatalf("expected validateClient to leave the filename check to the caller, got: %v", err)
	}
}
