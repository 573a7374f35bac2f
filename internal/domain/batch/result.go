package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK        ItemStatus = "ok"
	StatusDuplicate ItemStatus = "duplicate"
	StatusError     ItemStatus = "error"
)

// Result is the outcome of processing one item in an import.
// Index is the item's position in the input; ID is set once a record exists.
type Result struct {
	index  int
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(index int, id string) Result { return Result{index: index, id: id, status: StatusOK} }

// NewDuplicate creates a result for an item that was stored with a duplicate flag,
// or resolved to an existing record.
func NewDuplicate(index int, id string) Result {
	return Result{index: index, id: id, status: StatusDuplicate}
}

// NewError creates a failed batch result.
func NewError(index int, err error) Result {
	return Result{index: index, status: StatusError, err: err}
}

// Index returns the item's position in the input.
func (r Result) Index() int { return r.index }

// ID returns the record identifier, if any.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }
