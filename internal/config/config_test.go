package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_defaults(t *testing.T) {
	os.Clearenv()
	c := Load()
	if c.Port != 8080 {
		t.Errorf("Port = %d, want 8080", c.Port)
	}
	if c.DefaultSegmentationTypeID != 0x10 {
		t.Errorf("DefaultSegmentationTypeID = 0x%x, want 0x10", c.DefaultSegmentationTypeID)
	}
	if c.StoreRawPayloads {
		t.Error("StoreRawPayloads should default false")
	}
	if c.RequestDeadline != 30*time.Second {
		t.Errorf("RequestDeadline = %s, want 30s", c.RequestDeadline)
	}
	if c.TLSEnabled() {
		t.Error("TLSEnabled() should be false with no cert/key set")
	}
}

func TestLoad_overrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("POIS_PORT", "9090")
	os.Setenv("POIS_DEFAULT_SEGMENTATION_TYPE", "0x22")
	os.Setenv("POIS_STORE_RAW_PAYLOADS", "true")
	os.Setenv("POIS_TLS_CERT", "/tmp/cert.pem")
	os.Setenv("POIS_TLS_KEY", "/tmp/key.pem")
	c := Load()
	if c.Port != 9090 {
		t.Errorf("Port = %d, want 9090", c.Port)
	}
	if c.DefaultSegmentationTypeID != 0x22 {
		t.Errorf("DefaultSegmentationTypeID = 0x%x, want 0x22", c.DefaultSegmentationTypeID)
	}
	if !c.StoreRawPayloads {
		t.Error("StoreRawPayloads should be true")
	}
	if !c.TLSEnabled() {
		t.Error("TLSEnabled() should be true when both cert and key set")
	}
}
