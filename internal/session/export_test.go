package session

// PollingActive reports whether a polling ticker is running.
func (m *Machine) PollingActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poller != nil
}

// PollStarts returns how many polling tickers have been started over the
// machine's lifetime.
func (m *Machine) PollStarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pollStarts
}
