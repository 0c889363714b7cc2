package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"buswatch/internal/transport"
	logx "buswatch/pkg/logx"
)

var ErrNoTarget = errors.New("notifier: chat id not configured")

type Config struct {
	ChatID   int64
	ThreadID int

	// RatePerSec caps outbound sends (token bucket, burst == rate).
	RatePerSec int
	// SendTimeout bounds one delivery attempt; 0 means default.
	SendTimeout time.Duration
}

type HistoryItem struct {
	At   time.Time
	Text string
	Err  string
}

const (
	defaultRatePerSec  = 3
	defaultSendTimeout = 10 * time.Second
	historyCap         = 300
)

// Service sends plain-text notifications through a transport.Sender.
// It is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	sender transport.Sender
	log    logx.Logger

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sender transport.Sender, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{sender: sender, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block too hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Send delivers one message. It blocks on the rate limiter, attempts the
// send once with a bounded timeout, and returns the delivery error (which
// callers treat as non-fatal). There is no in-cycle retry: if the event is
// still real, the next cycle re-derives it.
func (s *Service) Send(ctx context.Context, text string) error {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	if cfg.ChatID == 0 {
		s.record(text, ErrNoTarget)
		return ErrNoTarget
	}

	if err := lim.Wait(ctx); err != nil {
		s.record(text, err)
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
	defer cancel()

	to := transport.ChatTarget{ChatID: cfg.ChatID, ThreadID: cfg.ThreadID}
	_, err := s.sender.SendText(callCtx, to, text, &transport.SendOptions{DisablePreview: true})
	if err != nil {
		s.log.Warn("notification send failed", logx.Int64("chat_id", cfg.ChatID), logx.Err(err))
	} else {
		s.log.Debug("notification sent", logx.Int64("chat_id", cfg.ChatID))
	}
	s.record(text, err)
	return err
}

// Snapshot returns recent send history, newest last.
func (s *Service) Snapshot() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) record(text string, err error) {
	item := HistoryItem{At: time.Now(), Text: text}
	if err != nil {
		item.Err = err.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, item)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap:]
	}
	s.hmu.Unlock()
}
