package core

import "github.com/google/uuid"

// InvokeKind selects what a v1 "invoke" host call asks the chain to do:
// call another contract's receive entrypoint, transfer CCD to an
// account, or query balance/contract-existence without performing an
// effect.
type InvokeKind uint8

const (
	InvokeCall InvokeKind = iota
	InvokeTransfer
	InvokeQueryAccountBalance
	InvokeQueryContractBalance
)

// InvokeRequest is what the running guest's invoke host call hands to
// the driver when it needs an effect performed outside the current
// instance: a nested contract call, a transfer, or a balance query.
// CorrelationID lets the driver's logs and the resumed call agree on
// which in-flight invoke a response belongs to, using google/uuid the
// way the teacher's codebase uses it for request tracing.
type InvokeRequest struct {
	CorrelationID uuid.UUID
	Kind          InvokeKind
	To            ContractAddress
	ToAccount     AccountAddress
	Entrypoint    string
	Amount        Amount
	Parameter     []byte
	Checkpoint    Checkpoint
}

// InvokeResponse is the driver's answer once it has executed (or
// rejected) an InvokeRequest.
type InvokeResponse struct {
	CorrelationID uuid.UUID
	Success       bool
	ReturnValue   []byte
	NewBalance    Amount
	Err           error
}

// InterruptEngine is the cooperative suspend/resume channel pair between
// a running guest export call and the driver loop that services its
// invoke requests. There is no API in wasmer-go for pausing and later
// resuming a module's call stack, so the "suspended configuration" here
// is not a data structure at all: it's a parked goroutine (the one
// running the export call, blocked on <-responses inside the invoke
// handler) together with the trie Checkpoint taken at the moment of
// suspension. The driver resumes it simply by sending a value.
type InterruptEngine struct {
	requests  chan InvokeRequest
	responses chan InvokeResponse
}

// NewInterruptEngine creates an engine. The channels are unbuffered:
// a Suspend call blocks until the driver calls Next, and the driver's
// Resume blocks until the guest goroutine is ready to receive it. That
// rendezvous is the whole synchronization primitive.
func NewInterruptEngine() *InterruptEngine {
	return &InterruptEngine{
		requests:  make(chan InvokeRequest),
		responses: make(chan InvokeResponse),
	}
}

// Suspend is called from inside the invoke host-call handler, on the
// goroutine running the guest's export call. It hands the request to
// whoever is listening (the driver loop on the original goroutine) and
// blocks until that side calls Resume.
func (e *InterruptEngine) Suspend(req InvokeRequest) InvokeResponse {
	req.CorrelationID = uuid.New()
	e.requests <- req
	return <-e.responses
}

// Next is called from the driver loop to receive the next suspended
// invoke, or (false) once the export call has finished and closed the
// request channel.
func (e *InterruptEngine) Next() (InvokeRequest, bool) {
	req, ok := <-e.requests
	return req, ok
}

// Resume hands control back to the parked guest goroutine with the
// result of servicing its invoke request.
func (e *InterruptEngine) Resume(resp InvokeResponse) {
	e.responses <- resp
}

// Close signals that no more requests will be serviced; a guest
// goroutine still blocked in Suspend would hang forever, so Close must
// only be called after the export call has actually returned.
func (e *InterruptEngine) Close() {
	close(e.requests)
}
