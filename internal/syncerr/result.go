package syncerr

// Result is the sum type spec.md §4.10 names, kept as a literal generic
// type. The Remote Backend Port's methods return it and the executor's
// retry wrapper passes it through; the rest of the module uses the
// idiomatic Go (T, error) return form. See SPEC_FULL.md §4.10.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok constructs a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err constructs a failed Result.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err, ok: false}
}

// IsOk reports whether r holds a value.
func (r Result[T]) IsOk() bool { return r.ok }

// IsErr reports whether r holds an error.
func (r Result[T]) IsErr() bool { return !r.ok }

// Unwrap returns the held value, panicking if r is an error variant.
// Reserved for call sites that have already checked IsOk.
func (r Result[T]) Unwrap() T {
	if !r.ok {
		panic("syncerr: Unwrap called on Err result")
	}

	return r.value
}

// UnwrapErr returns the held error, panicking if r is an ok variant.
func (r Result[T]) UnwrapErr() error {
	if r.ok {
		panic("syncerr: UnwrapErr called on Ok result")
	}

	return r.err
}

// UnwrapOr returns the held value, or def if r is an error variant.
func (r Result[T]) UnwrapOr(def T) T {
	if r.ok {
		return r.value
	}

	return def
}

// UnwrapOrElse returns the held value, or the result of f(err) if r is
// an error variant.
func (r Result[T]) UnwrapOrElse(f func(error) T) T {
	if r.ok {
		return r.value
	}

	return f(r.err)
}

// Error returns the held error, or nil if r is ok. Lets Result
// interoperate with plain (T, error) call sites.
func (r Result[T]) Error() error {
	if r.ok {
		return nil
	}

	return r.err
}

// MapResult applies f to the held value, passing through any error
// unchanged. Named MapResult (not a method) because Go methods cannot
// introduce new type parameters.
func MapResult[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}

	return Ok(f(r.value))
}

// MapErr transforms the held error, passing through any value unchanged.
func MapErr[T any](r Result[T], f func(error) error) Result[T] {
	if r.ok {
		return r
	}

	return Err[T](f(r.err))
}

// AndThen (bind) chains a Result-returning function onto a successful
// result, short-circuiting on error.
func AndThen[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.ok {
		return Err[U](r.err)
	}

	return f(r.value)
}

// OrElse recovers from an error variant by invoking f; passes through
// any ok value unchanged.
func OrElse[T any](r Result[T], f func(error) Result[T]) Result[T] {
	if r.ok {
		return r
	}

	return f(r.err)
}

// CollectResults gathers a slice of Results into a single Result holding
// a slice of values, short-circuiting on the first error encountered.
func CollectResults[T any](results []Result[T]) Result[[]T] {
	out := make([]T, 0, len(results))

	for _, r := range results {
		if r.IsErr() {
			return Err[[]T](r.err)
		}

		out = append(out, r.value)
	}

	return Ok(out)
}

// PartitionResults splits a slice of Results into its ok values and its
// errors, preserving relative order within each.
func PartitionResults[T any](results []Result[T]) ([]T, []error) {
	oks := make([]T, 0, len(results))
	errs := make([]error, 0)

	for _, r := range results {
		if r.IsOk() {
			oks = append(oks, r.value)
		} else {
			errs = append(errs, r.err)
		}
	}

	return oks, errs
}

// AllOk reports whether every Result in results is ok.
func AllOk[T any](results []Result[T]) bool {
	for _, r := range results {
		if r.IsErr() {
			return false
		}
	}

	return true
}

// AnyErr reports whether at least one Result in results is an error.
func AnyErr[T any](results []Result[T]) bool {
	for _, r := range results {
		if r.IsErr() {
			return true
		}
	}

	return false
}

// FirstErr returns the first error among results, or nil if all are ok.
func FirstErr[T any](results []Result[T]) error {
	for _, r := range results {
		if r.IsErr() {
			return r.err
		}
	}

	return nil
}

// Wrap runs f and converts any returned error into a Result, mirroring
// the kernel's wrap_result-style combinator: a returned error becomes
// Err(FromError(err)).
func Wrap[T any](f func() (T, error)) Result[T] {
	v, err := f()
	if err != nil {
		return Err[T](FromError(err, "", ""))
	}

	return Ok(v)
}
