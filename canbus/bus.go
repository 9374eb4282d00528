package canbus

// BusInterface is the transport surface a device driver needs: send one
// message and subscribe to the messages a node sends back.
type BusInterface interface {
	SendMsg(msg Msg) error
	AddListener(nodeID uint32, rx chan Msg)
}
