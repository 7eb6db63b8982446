// Package config loads the load driver's .conf file with gcfg, the
// teacher's own ini-style parser (see ingest/config/loader.go), and
// applies defaulting/validation rules matching the CLI surface.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gravwell/gcfg"
)

const maxConfigSize int64 = 1 * 1024 * 1024

var (
	ErrConfigFileTooLarge = errors.New("config file is too large")
	ErrFailedFileRead     = errors.New("failed to read entire config file")
	ErrNoHost             = errors.New("host is required")
	ErrNoSuperCASID       = errors.New("super-cas-id is required")
	ErrIDRangeOverflow    = errors.New("id allocation range overflows uint16 space")
)

// Global holds the load driver's [global] section, matching the option
// set of the CLI surface.
type Global struct {
	Host               string
	Super_CAS_ID       uint32
	Channels           int
	Streams_Per_Channel int
	First_Channel_ID   uint16
	First_Stream_ID    uint16
	First_ECM_ID       uint16
	CP_Duration        float64
	CW_Size            int
	Access_Criteria    string
	ECMG_SCS_Version   int
	Max_ECM            int
	Max_Seconds        int
	Statistics_Interval int
	Log_Protocol       string
	Log_Data           string
}

// Config is the top-level .conf structure: one [global] section.
type Config struct {
	Global Global
}

// Defaults returns a Config pre-populated with spec.md §6.6's defaults.
func Defaults() Config {
	return Config{Global: Global{
		Channels:            10,
		Streams_Per_Channel: 10,
		CP_Duration:         10,
		CW_Size:             8,
		Statistics_Interval: 10,
		ECMG_SCS_Version:    3,
		Log_Protocol:        "ERROR",
		Log_Data:            "ERROR",
	}}
}

// LoadFile reads and parses p into a Config seeded with Defaults.
func LoadFile(p string) (Config, error) {
	c := Defaults()
	fin, err := os.Open(p)
	if err != nil {
		return c, err
	}
	defer fin.Close()

	fi, err := fin.Stat()
	if err != nil {
		return c, err
	}
	if fi.Size() > maxConfigSize {
		return c, ErrConfigFileTooLarge
	}

	bb := bytes.NewBuffer(nil)
	n, err := io.Copy(bb, fin)
	if err != nil {
		return c, err
	}
	if n != fi.Size() {
		return c, ErrFailedFileRead
	}
	if err := gcfg.ReadStringInto(&c, bb.String()); err != nil {
		return c, err
	}
	return c, nil
}

// Validate enforces spec.md §6.6's id-allocation range checks and
// required fields.
func (c Config) Validate() error {
	g := c.Global
	if g.Host == "" {
		return ErrNoHost
	}
	if g.Super_CAS_ID == 0 {
		return ErrNoSuperCASID
	}
	if int(g.First_Channel_ID)+g.Channels > 0x10000 {
		return fmt.Errorf("%w: first_channel_id=%d channels=%d", ErrIDRangeOverflow, g.First_Channel_ID, g.Channels)
	}
	if int(g.First_Stream_ID)+g.Streams_Per_Channel > 0x10000 {
		return fmt.Errorf("%w: first_stream_id=%d streams_per_channel=%d", ErrIDRangeOverflow, g.First_Stream_ID, g.Streams_Per_Channel)
	}
	if int(g.First_ECM_ID)+g.Channels*g.Streams_Per_Channel > 0x10000 {
		return fmt.Errorf("%w: first_ecm_id=%d channels*streams=%d", ErrIDRangeOverflow, g.First_ECM_ID, g.Channels*g.Streams_Per_Channel)
	}
	return nil
}
