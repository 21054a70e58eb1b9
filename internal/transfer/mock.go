package transfer

import "sync"

// MockChannel is an in-memory Channel implementation for tests. It
// records every frame, simulates a drainable outbound buffer and can
// inject transient send failures.
type MockChannel struct {
	mu sync.Mutex

	TextFrames   [][]byte
	BinaryFrames [][]byte

	buffered     uint64
	lowThreshold uint64
	onLow        func()
	closed       bool

	// FailNext makes the next N binary sends return SendErr.
	FailNext int
	SendErr  error

	// Deliver, when set, receives every sent frame; wiring it to a
	// Receiver's HandleMessage makes the pair a loopback transfer.
	Deliver func(data []byte, isText bool)
}

var _ Channel = (*MockChannel)(nil)

func NewMockChannel() *MockChannel {
	return &MockChannel{}
}

func (m *MockChannel) SendText(data []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrChannelClosed
	}
	frame := append([]byte(nil), data...)
	m.TextFrames = append(m.TextFrames, frame)
	deliver := m.Deliver
	m.mu.Unlock()

	if deliver != nil {
		deliver(frame, true)
	}
	return nil
}

func (m *MockChannel) SendBinary(data []byte) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrChannelClosed
	}
	if m.FailNext > 0 {
		m.FailNext--
		err := m.SendErr
		m.mu.Unlock()
		return err
	}
	frame := append([]byte(nil), data...)
	m.BinaryFrames = append(m.BinaryFrames, frame)
	deliver := m.Deliver
	m.mu.Unlock()

	if deliver != nil {
		deliver(frame, false)
	}
	return nil
}

func (m *MockChannel) BufferedAmount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffered
}

// SetBuffered sets the simulated outbound buffer level.
func (m *MockChannel) SetBuffered(n uint64) {
	m.mu.Lock()
	m.buffered = n
	low := m.onLow
	fire := n <= m.lowThreshold && low != nil
	m.mu.Unlock()

	if fire {
		low()
	}
}

func (m *MockChannel) SetBufferedAmountLowThreshold(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowThreshold = n
}

func (m *MockChannel) OnBufferedAmountLow(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLow = f
}

func (m *MockChannel) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Close marks the channel unusable.
func (m *MockChannel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// FrameSizes returns the byte lengths of the recorded binary frames.
func (m *MockChannel) FrameSizes() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	sizes := make([]int, len(m.BinaryFrames))
	for i, f := range m.BinaryFrames {
		sizes[i] = len(f)
	}
	return sizes
}
