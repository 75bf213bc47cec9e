package storage

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/inbucket/dumbster/pkg/config"
	"github.com/inbucket/dumbster/pkg/metric"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	lastScanCompleted atomic.Int64 // Unix nanoseconds.

	expRetentionDeletesTotal = new(expvar.Int)
	expRetentionPeriod       = new(expvar.Int)
	expRetainedCurrent       = new(expvar.Int)
	expRetainedSize          = new(expvar.Int)
)

func init() {
	lastScanCompleted.Store(time.Now().UnixNano())

	rm := expvar.NewMap("retention")
	rm.Set("SecondsSinceScanCompleted", expvar.Func(func() any {
		return time.Since(time.Unix(0, lastScanCompleted.Load())) / time.Second
	}))
	rm.Set("DeletesTotal", expRetentionDeletesTotal)
	rm.Set("DeletesHist", metric.NewHistory(expRetentionDeletesTotal))
	rm.Set("Period", expRetentionPeriod)
	rm.Set("RetainedCurrent", expRetainedCurrent)
	rm.Set("RetainedHist", metric.NewHistory(expRetainedCurrent))
	rm.Set("RetainedSize", expRetainedSize)
	rm.Set("SizeHist", metric.NewHistory(expRetainedSize))
}

// RetentionScanner periodically removes messages received longer ago than the retention period.
type RetentionScanner struct {
	store           Store
	retentionPeriod time.Duration
	retentionSleep  time.Duration // Pause between removals.
	scanInterval    time.Duration
	globalShutdown  chan bool     // Closes when Dumbster needs to shut down.
	stopped         chan struct{} // Closed after the scanner has shut down.
	logger          zerolog.Logger
}

// NewRetentionScanner configures a new RetentionScanner.
func NewRetentionScanner(cfg config.Storage, store Store, shutdownChannel chan bool) *RetentionScanner {
	expRetentionPeriod.Set(int64(cfg.RetentionPeriod / time.Second))
	return &RetentionScanner{
		store:           store,
		retentionPeriod: cfg.RetentionPeriod,
		retentionSleep:  cfg.RetentionSleep,
		scanInterval:    time.Minute,
		globalShutdown:  shutdownChannel,
		stopped:         make(chan struct{}),
		logger:          log.With().Str("module", "storage").Logger(),
	}
}

// Start launches the scanner, unless the retention period disables it.
func (rs *RetentionScanner) Start() {
	if rs.retentionPeriod <= 0 {
		rs.logger.Info().Str("phase", "startup").Msg("Retention scanner disabled")
		close(rs.stopped)
		return
	}
	rs.logger.Info().Str("phase", "startup").Msgf("Retention configured for %v", rs.retentionPeriod)
	go rs.run()
}

// run scans at most once per scanInterval until shutdown.
func (rs *RetentionScanner) run() {
	defer close(rs.stopped)
	timer := time.NewTimer(rs.scanInterval)
	defer timer.Stop()
	for {
		select {
		case <-rs.globalShutdown:
			rs.logger.Debug().Str("phase", "shutdown").Msg("Retention scanner shut down")
			return
		case <-timer.C:
		}

		started := time.Now()
		if err := rs.DoScan(); err != nil {
			rs.logger.Error().Err(err).Msg("Error during retention scan")
		}
		timer.Reset(max(rs.scanInterval-time.Since(started), 0))
	}
}

// DoScan does a single pass of all messages, removing those that have expired.
func (rs *RetentionScanner) DoScan() error {
	rs.logger.Debug().Msg("Starting retention scan")
	expired, err := rs.collectExpired(time.Now().Add(-rs.retentionPeriod))
	if err != nil {
		return err
	}
	if !rs.purge(expired) {
		rs.logger.Debug().Str("phase", "shutdown").Msg("Retention scan aborted due to shutdown")
		return nil
	}
	lastScanCompleted.Store(time.Now().UnixNano())
	return nil
}

// collectExpired lists messages received before cutoff, and updates the retained metrics with
// the rest.
func (rs *RetentionScanner) collectExpired(cutoff time.Time) ([]Message, error) {
	var expired []Message
	var retained, size int64
	err := rs.store.VisitMessages(func(msg Message) bool {
		if msg.Date().Before(cutoff) {
			expired = append(expired, msg)
			return true
		}
		retained++
		size += msg.Size()
		return true
	})
	if err != nil {
		return nil, err
	}
	expRetainedCurrent.Set(retained)
	expRetainedSize.Set(size)
	return expired, nil
}

// purge removes msgs, pausing between each.  Returns false if interrupted by shutdown.
func (rs *RetentionScanner) purge(msgs []Message) bool {
	for _, msg := range msgs {
		rs.logger.Debug().Str("id", msg.ID()).Msg("Purging expired message")
		if err := rs.store.RemoveMessage(msg.ID()); err != nil {
			rs.logger.Error().Str("id", msg.ID()).Err(err).Msg("Failed to purge message")
		} else {
			expRetentionDeletesTotal.Add(1)
		}
		select {
		case <-rs.globalShutdown:
			return false
		case <-time.After(rs.retentionSleep):
		}
	}
	return true
}

// Join does not return until the retention scanner has shut down.
func (rs *RetentionScanner) Join() {
	<-rs.stopped
}
