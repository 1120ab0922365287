package error

// GenericError is implemented by every typed error in this package so the
// HTTP recovery middleware can map a panic to a response without knowing
// the concrete type.
type GenericError interface {
	Error() string
	ErrCode() string
	StatusCode() int
}
