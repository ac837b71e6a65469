package ratelimiter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
)

const (
	privateChatRate = time.Second
	groupChatRate   = 3 * time.Second
	queueSize       = 1000
	maxRetryAfter   = time.Minute
)

// SendFunc performs one Bot API call addressed to a chat.
type SendFunc func(ctx context.Context) error

type request struct {
	ctx      context.Context
	chatID   int64
	send     SendFunc
	response chan error
}

// RateLimiter serializes outgoing calls and spaces them per chat so the bot
// stays under Telegram's flood limits.
type RateLimiter struct {
	queue    chan request
	lastSent map[int64]time.Time
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	log      *slog.Logger
}

func New(log *slog.Logger) *RateLimiter {
	ctx, cancel := context.WithCancel(context.Background())

	rl := &RateLimiter{
		queue:    make(chan request, queueSize),
		lastSent: make(map[int64]time.Time),
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}

	go rl.processQueue()

	return rl
}

// Send queues send and waits for its result.
func (rl *RateLimiter) Send(ctx context.Context, chatID int64, send SendFunc) error {
	req := request{
		ctx:      ctx,
		chatID:   chatID,
		send:     send,
		response: make(chan error, 1),
	}

	select {
	case rl.queue <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.ctx.Done():
		return rl.ctx.Err()
	}

	select {
	case err := <-req.response:
		return err
	case <-rl.ctx.Done():
		return rl.ctx.Err()
	}
}

// Request runs calls that are not chat messages, like callback answers and
// chat actions, without queueing.
func (rl *RateLimiter) Request(ctx context.Context, send SendFunc) error {
	return send(ctx)
}

func (rl *RateLimiter) Stop() {
	rl.cancel()
}

func (rl *RateLimiter) processQueue() {
	for {
		select {
		case req := <-rl.queue:
			rl.handleRequest(req)
		case <-rl.ctx.Done():
			for {
				select {
				case req := <-rl.queue:
					req.response <- rl.ctx.Err()
				default:
					return
				}
			}
		}
	}
}

func (rl *RateLimiter) handleRequest(req request) {
	rl.mu.Lock()
	lastSent, exists := rl.lastSent[req.chatID]
	rl.mu.Unlock()

	if exists {
		if delay := getDelay(req.chatID, lastSent); delay > 0 {
			rl.log.DebugContext(rl.ctx, "Rate limiting message",
				"chatID", req.chatID,
				"delay", delay,
				"queueLen", len(rl.queue))

			if err := rl.wait(req.ctx, delay); err != nil {
				req.response <- err
				return
			}
		}
	}

	err := req.send(req.ctx)

	if retryAfter, ok := getRetryAfter(err); ok {
		rl.log.WarnContext(rl.ctx, "Telegram asked to slow down",
			"chatID", req.chatID,
			"retryAfter", retryAfter)

		if err = rl.wait(req.ctx, retryAfter); err == nil {
			err = req.send(req.ctx)
		}
	}

	rl.mu.Lock()
	rl.lastSent[req.chatID] = time.Now()
	rl.mu.Unlock()

	req.response <- err
}

func (rl *RateLimiter) wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-rl.ctx.Done():
		return rl.ctx.Err()
	}
}

func getRetryAfter(err error) (time.Duration, bool) {
	var tooMany *bot.TooManyRequestsError
	if !errors.As(err, &tooMany) {
		return 0, false
	}

	return min(time.Duration(tooMany.RetryAfter)*time.Second, maxRetryAfter), true
}

func getDelay(
	chatID int64,
	lastSent time.Time,
) time.Duration {
	elapsed := time.Since(lastSent)
	rate := getRate(chatID)

	return max(rate-elapsed, 0)
}

func getRate(chatID int64) time.Duration {
	if chatID < 0 {
		return groupChatRate
	}
	return privateChatRate
}
