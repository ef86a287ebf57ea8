package intcode

import "math"

// denseSlack is how far past the current end an access may land and still
// grow the contiguous region. Accesses further out go to the sparse map so a
// single far-away address does not allocate a huge run of zeros.
const denseSlack = 1 << 16

// MaxAddress is the highest addressable word. Memory length must stay
// representable, so the last int64 is out of reach.
const MaxAddress = math.MaxInt64 - 1

// Memory implements the IntCode word store. It behaves like a slice that
// zero-fills up to and including any address touched past its end.
type Memory struct {
	dense  []int64
	sparse map[int64]int64
	low    int64 // Smallest sparse key, valid while sparse is non-empty
	length int64
}

// NewMemory returns a memory initialised with a copy of image.
func NewMemory(image []int64) *Memory {
	dense := make([]int64, len(image))
	copy(dense, image)
	return &Memory{dense: dense, length: int64(len(image))}
}

// Len returns the logical length: one past the highest address touched.
func (m *Memory) Len() int64 {
	return m.length
}

// Load reads the word at addr, extending memory if needed.
func (m *Memory) Load(addr int64) (int64, error) {
	if err := checkAddress(addr); err != nil {
		return 0, err
	}
	m.Resize(addr + 1)
	return m.get(addr), nil
}

// Store writes value at addr, extending memory if needed. An address outside
// [0, MaxAddress] fails without touching memory.
func (m *Memory) Store(addr, value int64) error {
	if err := checkAddress(addr); err != nil {
		return err
	}
	m.Resize(addr + 1)
	m.set(addr, value)
	return nil
}

// Resize grows memory to at least size words. It never shrinks.
func (m *Memory) Resize(size int64) {
	if size > m.length {
		m.length = size
	}
	have := int64(len(m.dense))
	if size <= have || size > have+denseSlack {
		return
	}
	m.dense = append(m.dense, make([]int64, size-have)...)
	if len(m.sparse) == 0 || m.low >= size {
		return
	}
	low := int64(math.MaxInt64)
	for addr, v := range m.sparse {
		if addr < size {
			m.dense[addr] = v
			delete(m.sparse, addr)
		} else if addr < low {
			low = addr
		}
	}
	m.low = low
}

// Snapshot returns a copy of the whole memory image, zero-filled where
// nothing was ever written.
func (m *Memory) Snapshot() []int64 {
	out := make([]int64, m.length)
	copy(out, m.dense)
	for addr, v := range m.sparse {
		if addr < m.length {
			out[addr] = v
		}
	}
	return out
}

func (m *Memory) get(addr int64) int64 {
	if addr < int64(len(m.dense)) {
		return m.dense[addr]
	}
	return m.sparse[addr]
}

func (m *Memory) set(addr, value int64) {
	if addr < int64(len(m.dense)) {
		m.dense[addr] = value
		return
	}
	if m.sparse == nil {
		m.sparse = make(map[int64]int64)
	}
	if len(m.sparse) == 0 || addr < m.low {
		m.low = addr
	}
	m.sparse[addr] = value
}

func checkAddress(addr int64) error {
	switch {
	case addr < 0:
		return ErrNegativeAddress
	case addr > MaxAddress:
		return ErrAddressOverflow
	}
	return nil
}
