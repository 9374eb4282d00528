//go:build linux

package canbus

import (
	"net"

	"golang.org/x/sys/unix"
)

// Bus is a SocketCAN-backed BusInterface. Frames addressed to a registered
// node ID are routed to that node's rx channel; everything else is dropped.
type Bus struct {
	fd   int
	tx   chan []byte
	rx   map[uint32]chan Msg
	open bool
}

// NewBus opens a raw CAN socket on the named interface (e.g. "can0") and
// starts the reader and writer loops.
func NewBus(ifname string) (bus *Bus, err error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return
	}

	bus = new(Bus)

	bus.fd, err = unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return nil, err
	}

	addr := &unix.SockaddrCAN{Ifindex: iface.Index}
	if err = unix.Bind(bus.fd, addr); err != nil {
		return nil, err
	}

	bus.rx = make(map[uint32]chan Msg)
	bus.tx = make(chan []byte)

	bus.open = true
	go bus.reader()
	go bus.writer()

	return
}

func (b *Bus) AddListener(nodeID uint32, rx chan Msg) {
	b.rx[nodeID] = rx
}

func (b *Bus) SendMsg(msg Msg) error {
	raw, err := msg.MarshalFrame()
	if err != nil {
		return err
	}

	b.tx <- raw
	return nil
}

func (b *Bus) Close() error {
	b.open = false
	return unix.Close(b.fd)
}

func (b *Bus) writer() {
	for b.open {
		raw := <-b.tx
		unix.Write(b.fd, raw)
	}
}

func (b *Bus) reader() {
	for b.open {
		raw := make([]byte, frameLength)
		n, err := unix.Read(b.fd, raw)
		if err != nil || n < frameLength {
			continue
		}

		var msg Msg
		if err := msg.UnmarshalFrame(raw); err != nil {
			continue
		}

		if rx, ok := b.rx[msg.ID]; ok {
			rx <- msg
		}
	}
}
