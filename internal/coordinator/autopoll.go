package coordinator

import (
	"time"

	"github.com/javanstorm/gcpvm/internal/vm"
	"go.uber.org/zap"
)

// StartAutoPoll issues a status query every interval while the coordinator
// is idle. Ticks that find it busy are skipped, never queued. A non-positive
// interval selects DefaultPollInterval. Calling it again replaces the ticker.
func (c *Coordinator) StartAutoPoll(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopAutoPollLocked()

	stop := make(chan struct{})
	c.pollStop = stop
	c.pollInterval = interval
	c.log.Info("auto-poll started", zap.Duration("interval", interval))
	go c.autoPoll(interval, stop)
}

// StopAutoPoll stops the ticker. It is a no-op when auto-poll is off.
func (c *Coordinator) StopAutoPoll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopAutoPollLocked()
}

// AutoPolling reports whether auto-poll is on, and its interval.
func (c *Coordinator) AutoPolling() (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollStop != nil, c.pollInterval
}

func (c *Coordinator) stopAutoPollLocked() {
	if c.pollStop == nil {
		return
	}
	close(c.pollStop)
	c.pollStop = nil
	c.pollInterval = 0
	c.log.Info("auto-poll stopped")
}

func (c *Coordinator) autoPoll(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case <-stop:
				return
			default:
			}
			_, _ = c.request(vm.KindStatus, sourceAutoPoll)
		}
	}
}
