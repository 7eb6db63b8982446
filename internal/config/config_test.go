package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfig = `
[global]
Host=ecmg.example.com:3100
Super-CAS-ID=305419896
Channels=4
Streams-Per-Channel=2
First-Channel-ID=100
First-Stream-ID=1
First-ECM-ID=1
CP-Duration=10
CW-Size=8
ECMG-SCS-Version=3
Statistics-Interval=5
Log-Protocol=INFO
Log-Data=ERROR
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "ecmgload.conf")
	if err := os.WriteFile(p, []byte(contents), 0o660); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestLoadFileAndValidate(t *testing.T) {
	p := writeTemp(t, testConfig)
	c, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Global.Host != "ecmg.example.com:3100" {
		t.Fatalf("got host %q", c.Global.Host)
	}
	if c.Global.Super_CAS_ID != 305419896 {
		t.Fatalf("got super_cas_id %d", c.Global.Super_CAS_ID)
	}
	if c.Global.Channels != 4 {
		t.Fatalf("got channels %d, want 4 (overridden)", c.Global.Channels)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsIDOverflow(t *testing.T) {
	c := Defaults()
	c.Global.Host = "host:1"
	c.Global.Super_CAS_ID = 1
	c.Global.First_Channel_ID = 0xFFFF
	c.Global.Channels = 2
	if err := c.Validate(); err == nil {
		t.Fatal("expected ID range overflow error")
	}
}

func TestValidateRequiresHost(t *testing.T) {
	c := Defaults()
	if err := c.Validate(); err != ErrNoHost {
		t.Fatalf("got %v, want ErrNoHost", err)
	}
}
