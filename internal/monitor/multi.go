package monitor

import "github.com/vk/plugflow/internal/process"

type multi []process.Monitor

// Multi returns a monitor forwarding every event to each of ms in order.
// Nil monitors are skipped.
func Multi(ms ...process.Monitor) process.Monitor {
	out := make(multi, 0, len(ms))
	for _, m := range ms {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (m multi) Observe(e process.Event) {
	for _, mon := range m {
		mon.Observe(e)
	}
}
