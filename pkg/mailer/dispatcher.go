package mailer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"otp-auth/pkg/utils"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("mail queue is full")
	ErrClosed    = errors.New("mail dispatcher is closed")
)

const sendTimeout = 30 * time.Second

type job struct {
	to      string
	subject string
	html    string
}

// Dispatcher queues messages and delivers them on a single worker, so the
// caller only waits for the enqueue.
type Dispatcher struct {
	sender    Sender
	log       *zap.Logger
	ch        chan job
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(sender Sender, size int, log *zap.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}

	d := &Dispatcher{
		sender: sender,
		log:    log.With(zap.String("component", "mail_dispatcher")),
		ch:     make(chan job, size),
		done:   make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case j := <-d.ch:
			d.deliver(j)
		case <-d.done:
			// drain what was accepted before Close
			for {
				select {
				case j := <-d.ch:
					d.deliver(j)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	if err := d.sender.Send(ctx, j.to, j.subject, j.html); err != nil {
		d.log.Error("Failed to deliver email",
			zap.Error(err),
			zap.String("to", utils.MaskEmail(j.to)),
		)
	}
}

// Send enqueues the message. It never blocks: a full queue is an error the
// caller reports.
func (d *Dispatcher) Send(ctx context.Context, to, subject, html string) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case d.ch <- job{to: to, subject: subject, html: html}:
		return nil
	case <-d.done:
		return ErrClosed
	default:
		return ErrQueueFull
	}
}

// Close stops accepting messages and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}
