// Command ecmgload is a conformance and load-test harness for ECMGs: it
// opens N channels, each with M multiplexed streams, and drives
// CW_provision at crypto-period cadence while reporting latency
// statistics, per spec section 6.6's option set.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/headend/simulcrypt/internal/config"
	"github.com/headend/simulcrypt/internal/xlog"
	"github.com/headend/simulcrypt/loadtest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "ecmgload"
	app.Usage = "drive an ECMG with simulated SCS traffic"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to an ecmgload.conf file"},
		cli.StringFlag{Name: "host", Usage: "ECMG host:port"},
		cli.UintFlag{Name: "super-cas-id", Usage: "SCS super_CAS_id"},
		cli.IntFlag{Name: "channels", Value: 10, Usage: "number of ECM channels to open"},
		cli.IntFlag{Name: "streams-per-channel", Value: 10, Usage: "streams multiplexed per channel"},
		cli.UintFlag{Name: "first-channel-id", Usage: "first ECM_channel_id to allocate"},
		cli.UintFlag{Name: "first-stream-id", Usage: "first ECM_stream_id to allocate"},
		cli.UintFlag{Name: "first-ecm-id", Usage: "first ECM_id to allocate"},
		cli.Float64Flag{Name: "cp-duration", Value: 10, Usage: "nominal crypto-period duration, in seconds"},
		cli.IntFlag{Name: "cw-size", Value: 8, Usage: "control word size in bytes"},
		cli.StringFlag{Name: "access-criteria", Usage: "hex-encoded access criteria to send with every CW_provision"},
		cli.IntFlag{Name: "ecmg-scs-version", Value: 3, Usage: "SimulCrypt protocol version (accepted but not used: the driver always speaks version 3)"},
		cli.IntFlag{Name: "max-ecm", Usage: "stop after this many CW_provision requests (0 = unbounded)"},
		cli.IntFlag{Name: "max-seconds", Usage: "stop after this many seconds (0 = unbounded)"},
		cli.IntFlag{Name: "statistics-interval", Value: 10, Usage: "seconds between statistics log lines (0 disables)"},
		cli.StringFlag{Name: "log-protocol", Value: "ERROR", Usage: "protocol message log level"},
		cli.StringFlag{Name: "log-data", Value: "ERROR", Usage: "control word/data log level (accepted but not used: all output follows log-protocol)"},
	}
	app.Before = func(c *cli.Context) error {
		return nil
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ecmgload:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	g := config.Defaults().Global
	if p := c.String("config"); p != "" {
		cfg, err := config.LoadFile(p)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		g = cfg.Global
	}
	applyFlagOverrides(c, &g)

	fullCfg := config.Config{Global: g}
	if err := fullCfg.Validate(); err != nil {
		return err
	}

	logLvl := parseLevel(g.Log_Protocol)
	log := xlog.New(os.Stderr, logLvl, "ecmgload")

	var accessCriteria []byte
	if g.Access_Criteria != "" {
		var err error
		accessCriteria, err = hex.DecodeString(g.Access_Criteria)
		if err != nil {
			return fmt.Errorf("access-criteria: %w", err)
		}
	}

	driverCfg := loadtest.Config{
		Host:               g.Host,
		SuperCASID:         g.Super_CAS_ID,
		Channels:           g.Channels,
		StreamsPerChannel:  g.Streams_Per_Channel,
		FirstChannelID:     g.First_Channel_ID,
		FirstStreamID:      g.First_Stream_ID,
		FirstECMID:         g.First_ECM_ID,
		CPDuration:         time.Duration(g.CP_Duration * float64(time.Second)),
		CWSize:             g.CW_Size,
		AccessCriteria:     accessCriteria,
		AutoErrorResponse:  true,
		MaxInvalidMessages: 16,
		MaxECM:             g.Max_ECM,
		MaxSeconds:         time.Duration(g.Max_Seconds) * time.Second,
		StatisticsInterval: time.Duration(g.Statistics_Interval) * time.Second,
		Logger:             log,
	}

	driver := loadtest.NewDriver(driverCfg, prometheus.DefaultRegisterer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Info("ecmgload: received interrupt, shutting down")
		cancel()
	}()

	return driver.Run(ctx)
}

func applyFlagOverrides(c *cli.Context, g *config.Global) {
	if c.IsSet("host") {
		g.Host = c.String("host")
	}
	if c.IsSet("super-cas-id") {
		g.Super_CAS_ID = uint32(c.Uint("super-cas-id"))
	}
	if c.IsSet("channels") {
		g.Channels = c.Int("channels")
	}
	if c.IsSet("streams-per-channel") {
		g.Streams_Per_Channel = c.Int("streams-per-channel")
	}
	if c.IsSet("first-channel-id") {
		g.First_Channel_ID = uint16(c.Uint("first-channel-id"))
	}
	if c.IsSet("first-stream-id") {
		g.First_Stream_ID = uint16(c.Uint("first-stream-id"))
	}
	if c.IsSet("first-ecm-id") {
		g.First_ECM_ID = uint16(c.Uint("first-ecm-id"))
	}
	if c.IsSet("cp-duration") {
		g.CP_Duration = c.Float64("cp-duration")
	}
	if c.IsSet("cw-size") {
		g.CW_Size = c.Int("cw-size")
	}
	if c.IsSet("access-criteria") {
		g.Access_Criteria = c.String("access-criteria")
	}
	if c.IsSet("ecmg-scs-version") {
		g.ECMG_SCS_Version = c.Int("ecmg-scs-version")
	}
	if c.IsSet("max-ecm") {
		g.Max_ECM = c.Int("max-ecm")
	}
	if c.IsSet("max-seconds") {
		g.Max_Seconds = c.Int("max-seconds")
	}
	if c.IsSet("statistics-interval") {
		g.Statistics_Interval = c.Int("statistics-interval")
	}
	if c.IsSet("log-protocol") {
		g.Log_Protocol = c.String("log-protocol")
	}
	if c.IsSet("log-data") {
		g.Log_Data = c.String("log-data")
	}
}

func parseLevel(s string) xlog.Level {
	switch s {
	case "DEBUG":
		return xlog.DEBUG
	case "INFO":
		return xlog.INFO
	case "WARN":
		return xlog.WARN
	case "ERROR":
		return xlog.ERROR
	case "CRITICAL":
		return xlog.CRITICAL
	default:
		return xlog.ERROR
	}
}
