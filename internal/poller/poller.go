package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/timzifer/crowdmon/internal/crowd"
	"github.com/timzifer/crowdmon/telemetry"
)

// Result is the outcome of a single poll.
type Result struct {
	Telemetry Telemetry
	Record    crowd.Record
	Err       error
	At        time.Time
}

// Options configures a Poller.
type Options struct {
	Interval         time.Duration
	Timeout          time.Duration
	StatusExpression string
	Collector        telemetry.Collector
	Logger           zerolog.Logger
	Now              func() time.Time
}

// Poller fetches device telemetry on a fixed interval. At most one request
// is outstanding at any time.
type Poller struct {
	client     *Client
	interval   time.Duration
	expression *StatusExpression
	collector  telemetry.Collector
	logger     zerolog.Logger
	now        func() time.Time

	inflight atomic.Bool
	wg       sync.WaitGroup
}

// New creates a poller for url.
func New(url string, opts Options) (*Poller, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("poller url must not be empty")
	}
	if opts.Interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	expression, err := CompileStatusExpression(opts.StatusExpression)
	if err != nil {
		return nil, err
	}
	collector := opts.Collector
	if collector == nil {
		collector = telemetry.Noop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Poller{
		client:     NewClient(url, opts.Timeout),
		interval:   opts.Interval,
		expression: expression,
		collector:  collector,
		logger:     opts.Logger.With().Str("component", "poller").Str("url", url).Logger(),
		now:        now,
	}, nil
}

// URL returns the polled endpoint.
func (p *Poller) URL() string {
	return p.client.URL()
}

// Poll performs one fetch and maps the payload to a live record.
func (p *Poller) Poll(ctx context.Context) Result {
	payload, err := p.client.Fetch(ctx)
	at := p.now()
	if err != nil {
		if ctx.Err() != nil {
			p.logger.Debug().Err(err).Msg("poll cancelled")
		} else {
			p.logger.Error().Err(err).Msg("device poll failed")
		}
		p.collector.IncPoll(telemetry.PollFailure)
		return Result{Err: err, At: at}
	}

	// Opt-in override; the status is otherwise kept as reported.
	if p.expression != nil && payload.Status == "" {
		status, err := p.expression.Evaluate(payload.readings())
		if err != nil {
			p.logger.Warn().Err(err).Str("expression", p.expression.String()).Msg("status expression failed")
		} else {
			payload.Status = status
		}
	}

	record := payload.Record(at)
	p.collector.IncPoll(telemetry.PollSuccess)
	p.logger.Debug().
		Str("status", payload.Status).
		Str("device_id", payload.DeviceID).
		Int("active", record.ActiveSensors()).
		Msg("device poll succeeded")
	return Result{Telemetry: payload, Record: record, At: at}
}

// Run polls once immediately and then on every tick until ctx is cancelled.
// Results are delivered on out. Ticks that fire while a request is still
// outstanding are skipped.
func (p *Poller) Run(ctx context.Context, out chan<- Result) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.wg.Wait()

	p.launch(ctx, out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.launch(ctx, out)
		}
	}
}

func (p *Poller) launch(ctx context.Context, out chan<- Result) bool {
	if !p.inflight.CompareAndSwap(false, true) {
		p.collector.IncPollSkipped()
		p.logger.Debug().Msg("poll still outstanding, tick skipped")
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inflight.Store(false)
		result := p.Poll(ctx)
		select {
		case out <- result:
		case <-ctx.Done():
		}
	}()
	return true
}
