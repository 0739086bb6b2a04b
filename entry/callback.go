package entry

// ReadCallback receives the outcome of an asynchronous topic read: either an
// ordered list of records (possibly empty) or a NotFound error.
type ReadCallback func(records []*ConsumerRecord, err error)
