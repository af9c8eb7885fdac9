package notify

import (
	"log"
	"sync"
)

type Mail struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single mail. The default implementation only logs;
// real transport is an external collaborator.
type Sender interface {
	Send(mail Mail) error
}

type LogSender struct{}

func (LogSender) Send(mail Mail) error {
	log.Printf("mail to %s: %s", mail.To, mail.Subject)
	return nil
}

// Mailer is a fire-and-forget mail queue drained by a single worker
// goroutine. Enqueue never blocks: when the queue is full the mail is
// dropped and counted.
type Mailer struct {
	sender  Sender
	queue   chan Mail
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	dropped int
}

func NewMailer(sender Sender, queueSize int) *Mailer {
	if sender == nil {
		sender = LogSender{}
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Mailer{
		sender: sender,
		queue:  make(chan Mail, queueSize),
		done:   make(chan struct{}),
	}
}

func (m *Mailer) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case mail := <-m.queue:
				if err := m.sender.Send(mail); err != nil {
					log.Printf("Error sending mail to %s: %v", mail.To, err)
				}
			case <-m.done:
				// Drain what is left before exiting.
				for {
					select {
					case mail := <-m.queue:
						if err := m.sender.Send(mail); err != nil {
							log.Printf("Error sending mail to %s: %v", mail.To, err)
						}
					default:
						return
					}
				}
			}
		}
	}()
}

func (m *Mailer) Enqueue(mail Mail) {
	select {
	case m.queue <- mail:
	default:
		m.mu.Lock()
		m.dropped++
		m.mu.Unlock()
		log.Printf("Mail queue full, dropping mail to %s", mail.To)
	}
}

func (m *Mailer) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

func (m *Mailer) Stop() {
	close(m.done)
	m.wg.Wait()
}
