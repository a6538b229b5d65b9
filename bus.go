// bus.go - MachineBus composes Memory and PortBus into the single Bus
// the CPU core talks to, avoiding a CPU -> ULA back-pointer (§9 design
// note): the CPU only ever sees Read/Write/In/Out.

package spectrum

// MachineBus adapts Memory and PortBus to the CPU's Bus interface.
type MachineBus struct {
	Mem   *Memory
	Ports *PortBus
}

func NewMachineBus(mem *Memory, ports *PortBus) *MachineBus {
	return &MachineBus{Mem: mem, Ports: ports}
}

func (m *MachineBus) Read(addr uint16) byte         { return m.Mem.Read(addr) }
func (m *MachineBus) Write(addr uint16, value byte) { m.Mem.Write(addr, value) }
func (m *MachineBus) In(port uint16) byte           { return m.Ports.In(port) }
func (m *MachineBus) Out(port uint16, value byte)   { m.Ports.Out(port, value) }
