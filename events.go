package demiurge

// Op names the query an event or error belongs to.
type Op string

const (
	OpChainInfo    Op = "chain_info"
	OpBalance      Op = "balance"
	OpArchonStatus Op = "archon_status"
)

// Event is a notification delivered to Dispatcher subscribers. Exactly
// one event is delivered per fetch, either the typed success event or
// an ErrorEvent.
type Event interface {
	event()
}

// ChainInfoEvent reports a chain height.
type ChainInfoEvent struct {
	Height int64
}

// BalanceEvent reports the balance of the queried address. The address
// round-trips from the fetch call, since the node does not echo it.
type BalanceEvent struct {
	Address string
	Balance uint64
}

// ArchonStatusEvent reports the Archon flag of the queried address.
type ArchonStatusEvent struct {
	Address  string
	IsArchon bool
}

// EndpointChangedEvent reports that future queries go to a new URL.
type EndpointChangedEvent struct {
	Endpoint string
}

// ErrorEvent reports a terminal failure of a single fetch. Address is
// set for address-scoped ops.
type ErrorEvent struct {
	Op      Op
	Address string
	Err     error
}

func (ChainInfoEvent) event()       {}
func (BalanceEvent) event()         {}
func (ArchonStatusEvent) event()    {}
func (EndpointChangedEvent) event() {}
func (ErrorEvent) event()           {}
