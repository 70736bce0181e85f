package client

import (
	"context"
	"time"
)

// DefaultPollInterval is how often the notification poller asks the server
// for unread notifications.
const DefaultPollInterval = 30 * time.Second

// Poller periodically fetches unread notifications and hands them to a
// callback. It only polls while the session is authenticated.
type Poller struct {
	client   *Client
	session  *Session
	interval time.Duration
	onBatch  func([]Notification)

	stop chan struct{}
	done chan struct{}
}

// NewPoller creates a notification poller. onBatch is called from the
// poller goroutine with each non-empty batch of unread notifications.
func NewPoller(client *Client, session *Session, interval time.Duration, onBatch func([]Notification)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:   client,
		session:  session,
		interval: interval,
		onBatch:  onBatch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins polling in a background goroutine
func (p *Poller) Start() {
	go p.run()
}

// Stop halts polling and waits for the poll goroutine to exit.
// Stop may be called at most once.
func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

func (p *Poller) poll() {
	if p.session.State() != StateAuthenticated {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	notifications, err := p.client.UnreadNotifications(ctx)
	if err != nil || len(notifications) == 0 {
		return
	}
	p.onBatch(notifications)
}
