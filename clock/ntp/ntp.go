// Package ntp keeps a clock.Offset corrected against an NTP server.
package ntp

import (
	"context"
	"errors"
	"fmt"
	"time"

	beevik "github.com/beevik/ntp"
	"github.com/sirupsen/logrus"

	"github.com/paraglidehq/flake/clock"
)

const (
	DefaultServer   = "pool.ntp.org"
	DefaultInterval = 10 * time.Minute
	DefaultTimeout  = 5 * time.Second
)

// QueryFunc measures the offset of the local clock against server.
type QueryFunc func(server string, timeout time.Duration) (time.Duration, error)

// Syncer periodically stores the measured NTP offset into a clock.Offset.
type Syncer struct {
	clock    *clock.Offset
	server   string
	interval time.Duration
	timeout  time.Duration
	query    QueryFunc
	log      logrus.FieldLogger
}

type Option func(*Syncer)

func WithServer(server string) Option {
	return func(s *Syncer) { s.server = server }
}

func WithInterval(d time.Duration) Option {
	return func(s *Syncer) { s.interval = d }
}

func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) { s.timeout = d }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Syncer) { s.log = l }
}

// WithQuery replaces the NTP query, mostly for tests.
func WithQuery(q QueryFunc) Option {
	return func(s *Syncer) { s.query = q }
}

// NewSyncer returns a Syncer writing into c. A non-positive interval or
// timeout falls back to the default.
func NewSyncer(c *clock.Offset, opts ...Option) *Syncer {
	s := &Syncer{
		clock:    c,
		server:   DefaultServer,
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
		query:    Query,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	return s
}

// Query asks server for the local clock offset.
func Query(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := beevik.QueryWithOptions(server, beevik.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// SyncOnce measures the offset once and applies it. On failure the previous
// offset is left in place.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	offset, err := s.query(s.server, s.timeout)
	if err != nil {
		return fmt.Errorf("ntp: query %s: %w", s.server, err)
	}
	prev := s.clock.Offset()
	s.clock.SetOffset(offset)
	s.log.WithFields(logrus.Fields{
		"server":   s.server,
		"offset":   offset,
		"previous": prev,
	}).Debug("clock offset updated")
	return nil
}

// Run syncs immediately and then every interval until ctx is done.
// Query failures are logged and do not stop the loop.
func (s *Syncer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.SyncOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			s.log.WithError(err).WithField("server", s.server).Warn("clock sync failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
