package loadtest

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/headend/simulcrypt/client"
	"github.com/headend/simulcrypt/client/ecmgclient"
	"github.com/headend/simulcrypt/internal/xlog"
	"github.com/headend/simulcrypt/tlv"
	"github.com/headend/simulcrypt/tlv/ecmg"
	"github.com/prometheus/client_golang/prometheus"
)

// Config drives one load run against an ECMG: the channel/stream topology,
// pacing and the stop conditions of spec section 4.9.
type Config struct {
	Host               string
	SuperCASID         uint32
	Channels           int
	StreamsPerChannel  int
	FirstChannelID     uint16
	FirstStreamID      uint16
	FirstECMID         uint16
	CPDuration         time.Duration
	CWSize             int
	AccessCriteria     []byte
	AutoErrorResponse  bool
	MaxInvalidMessages int
	MaxECM             int
	MaxSeconds         time.Duration
	StatisticsInterval time.Duration
	Logger             *xlog.Logger
}

// Driver dials Config.Channels ECMG sessions, sets up Config.StreamsPerChannel
// streams on each, and drives CW_provision at cp_duration cadence per stream
// until a stop condition fires, then closes everything down gracefully.
type Driver struct {
	cfg       Config
	scheduler *Scheduler
	Stats     *Stats

	mu       sync.Mutex
	clients  []*ecmgclient.Client
	streamID map[int]uint16 // streamKey -> stream_id
	cpNumber map[int]uint16 // streamKey -> next CP_number
	sent     int
}

// NewDriver builds a Driver; reg may be nil to skip Prometheus registration.
func NewDriver(cfg Config, reg prometheus.Registerer) *Driver {
	if cfg.Logger == nil {
		cfg.Logger = xlog.Discard()
	}
	return &Driver{
		cfg:       cfg,
		scheduler: NewScheduler(),
		Stats:     NewStats(256, reg),
		streamID:  make(map[int]uint16),
		cpNumber:  make(map[int]uint16),
	}
}

func (d *Driver) streamKey(ch, st int) int { return ch*d.cfg.StreamsPerChannel + st }

// Run connects every channel and stream, runs the scheduler until a stop
// condition fires or ctx is canceled, and tears everything back down.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.connectAll(ctx); err != nil {
		d.closeAll(ctx)
		return err
	}
	defer d.closeAll(ctx)

	now := time.Now()
	for ch := 0; ch < d.cfg.Channels; ch++ {
		for st := 0; st < d.cfg.StreamsPerChannel; st++ {
			d.scheduler.Schedule(&Event{Due: now, Kind: EventCWProvision, ChannelIdx: ch, StreamIdx: st})
		}
	}
	if d.cfg.MaxSeconds > 0 {
		d.scheduler.Schedule(&Event{Due: now.Add(d.cfg.MaxSeconds), Kind: EventTermination})
	}

	reportCtx, cancelReport := context.WithCancel(ctx)
	defer cancelReport()
	if d.cfg.StatisticsInterval > 0 {
		go d.Stats.ReportLoop(reportCtx, d.cfg.StatisticsInterval, d.cfg.Logger)
	}

	var wg sync.WaitGroup
	d.scheduler.Run(ctx, func(e *Event) {
		if e.Kind == EventTermination {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.fireCWProvision(ctx, e)
		}()
	})
	wg.Wait()
	return nil
}

func (d *Driver) connectAll(ctx context.Context) error {
	d.clients = make([]*ecmgclient.Client, d.cfg.Channels)
	for ch := 0; ch < d.cfg.Channels; ch++ {
		nc, err := net.Dial("tcp", d.cfg.Host)
		if err != nil {
			return fmt.Errorf("loadtest: dial channel %d: %w", ch, err)
		}
		channelID := d.cfg.FirstChannelID + uint16(ch)
		c := ecmgclient.New(ecmgclient.Config{
			SuperCASID:         d.cfg.SuperCASID,
			ChannelID:          channelID,
			StreamID:           d.cfg.FirstStreamID,
			ECMID:              d.cfg.FirstECMID + uint16(ch*d.cfg.StreamsPerChannel),
			NominalCPDuration:  uint16(d.cfg.CPDuration / (10 * time.Millisecond)),
			AutoErrorResponse:  d.cfg.AutoErrorResponse,
			MaxInvalidMessages: d.cfg.MaxInvalidMessages,
			Logger:             d.cfg.Logger,
		})
		if err := c.Connect(ctx, nc); err != nil {
			nc.Close()
			return fmt.Errorf("loadtest: connect channel %d: %w", ch, err)
		}
		d.clients[ch] = c

		for st := 1; st < d.cfg.StreamsPerChannel; st++ {
			streamID := d.cfg.FirstStreamID + uint16(st)
			ecmID := d.cfg.FirstECMID + uint16(ch*d.cfg.StreamsPerChannel+st)
			if _, err := c.SetupStream(ctx, streamID, ecmID, uint16(d.cfg.CPDuration/(10*time.Millisecond))); err != nil {
				return fmt.Errorf("loadtest: stream_setup channel %d stream %d: %w", ch, st, err)
			}
			d.mu.Lock()
			d.streamID[d.streamKey(ch, st)] = streamID
			d.mu.Unlock()
		}
		d.mu.Lock()
		d.streamID[d.streamKey(ch, 0)] = d.cfg.FirstStreamID
		d.mu.Unlock()
	}
	return nil
}

func (d *Driver) closeAll(ctx context.Context) {
	for _, c := range d.clients {
		if c == nil {
			continue
		}
		if c.State() == client.Connected {
			_ = c.Disconnect(ctx)
		}
		_ = c.Close()
	}
}

func (d *Driver) fireCWProvision(ctx context.Context, e *Event) {
	key := d.streamKey(e.ChannelIdx, e.StreamIdx)

	d.mu.Lock()
	if d.cfg.MaxECM > 0 && d.sent >= d.cfg.MaxECM {
		d.mu.Unlock()
		return
	}
	d.sent++
	streamID := d.streamID[key]
	cp := d.cpNumber[key]
	d.cpNumber[key] = ecmgclient.NextCPNumber(cp)
	d.mu.Unlock()

	c := d.clients[e.ChannelIdx]
	cw := make([]byte, d.cfg.CWSize)
	requestID := uuid.New()

	d.send(ctx, c, e, streamID, cp, cw, requestID)
}

func (d *Driver) send(ctx context.Context, c *ecmgclient.Client, e *Event, streamID, cp uint16, cw []byte, requestID uuid.UUID) {
	channelID := d.cfg.FirstChannelID + uint16(e.ChannelIdx)
	msg := &ecmg.CWProvision{
		StreamHeader: tlv.StreamHeader{
			ChannelHeader: tlv.ChannelHeader{ChannelID: channelID},
			StreamID:      streamID,
		},
		CPNumber:          cp,
		CPCWCombination:   []ecmg.CPCWCombination{{CP: cp, CW: cw}},
		HasAccessCriteria: len(d.cfg.AccessCriteria) > 0,
		AccessCriteria:    d.cfg.AccessCriteria,
	}

	start := time.Now()
	_, err := c.SendCWProvision(ctx, msg)
	latency := time.Since(start)

	if err != nil {
		d.Stats.RecordError()
		d.cfg.Logger.Warn(fmt.Sprintf("loadtest: CW_provision request=%s channel=%d stream=%d failed: %v",
			requestID, channelID, streamID, err))
		return
	}
	d.Stats.Record(latency)

	d.mu.Lock()
	stop := d.cfg.MaxECM > 0 && d.sent >= d.cfg.MaxECM
	d.mu.Unlock()
	if stop {
		d.scheduler.Close()
		return
	}

	d.scheduler.Schedule(&Event{
		Due:        time.Now().Add(d.cfg.CPDuration),
		Kind:       EventCWProvision,
		ChannelIdx: e.ChannelIdx,
		StreamIdx:  e.StreamIdx,
	})
}
