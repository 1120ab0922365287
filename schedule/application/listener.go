package application

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const changeChannel = "schedule_changes"

// ChangeListener turns Postgres NOTIFY events on the schedule channel
// into runner wake-ups, so mutations through the API shorten the wait
// until the next sweep. Only meaningful on Postgres; sqlite deployments
// rely on the cron tick alone.
type ChangeListener struct {
	listener *pq.Listener
	runner   *Runner
}

func NewChangeListener(dsn string, runner *Runner) (*ChangeListener, error) {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).Warn("[RUNNER] Postgres listener event error")
		}
	})
	if err := listener.Listen(changeChannel); err != nil {
		listener.Close()
		return nil, err
	}
	return &ChangeListener{listener: listener, runner: runner}, nil
}

// Start consumes notifications until ctx is cancelled.
func (l *ChangeListener) Start(ctx context.Context) {
	go func() {
		defer l.listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-l.listener.Notify:
				// n is nil when the connection was re-established; ping
				// the next tick either way so nothing is missed.
				if n != nil {
					logrus.Debug("[RUNNER] Schedule change notification received")
				}
				l.runner.Wake()
			case <-time.After(5 * time.Minute):
				// Periodic liveness check per lib/pq guidance.
				go func() {
					if err := l.listener.Ping(); err != nil {
						logrus.WithError(err).Warn("[RUNNER] Postgres listener ping failed")
					}
				}()
			}
		}
	}()
}
