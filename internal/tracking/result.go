package tracking

// Result carries either a value or the reason the tracking service could not
// provide one. A failed Result is an expected outcome, not an error to bubble
// up: callers decide how to degrade.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}
