package supervisor

import (
	"fmt"
)

// Default port range scanned for the web server.
const (
	DefaultBasePort  = 3001
	DefaultPortCount = 10
	maxPort          = 65535
)

// PortRange is a contiguous block of TCP ports, Base through Base+Count-1.
type PortRange struct {
	Base  int
	Count int
}

// DefaultPortRange returns 3001 through 3010.
func DefaultPortRange() PortRange {
	return PortRange{Base: DefaultBasePort, Count: DefaultPortCount}
}

// Validate checks that the range is non-empty and within 1..65535.
func (r PortRange) Validate() error {
	if r.Base < 1 || r.Base > maxPort {
		return fmt.Errorf("base port %d out of range 1-%d", r.Base, maxPort)
	}
	if r.Count < 1 {
		return fmt.Errorf("port count must be at least 1, got %d", r.Count)
	}
	if r.Last() > maxPort {
		return fmt.Errorf("port range %s exceeds %d", r, maxPort)
	}
	return nil
}

// Last returns the highest port in the range.
func (r PortRange) Last() int {
	return r.Base + r.Count - 1
}

// Candidates returns the ports in ascending scan order.
func (r PortRange) Candidates() []int {
	if r.Count < 1 {
		return nil
	}
	ports := make([]int, r.Count)
	for i := range ports {
		ports[i] = r.Base + i
	}
	return ports
}

// Contains reports whether port lies within the range.
func (r PortRange) Contains(port int) bool {
	return port >= r.Base && port <= r.Last()
}

func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Base, r.Last())
}
