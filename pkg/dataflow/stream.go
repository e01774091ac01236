package dataflow

import (
	"bufio"
	"errors"
	"io"
)

// EOS signals end of stream. Adapted from the teacher library's
// Stream[T]/EOS pull-iterator idiom (streamv2's stream.go): a Stream is
// a closure that yields one value per call and returns EOS when
// exhausted. Used only at the driver I/O boundary (turning REPL lines
// into deltas); the explanation core never uses a pull iterator.
var EOS = errors.New("end of stream")

// Stream is a pull-style generator, as in the teacher's stream.go.
type Stream[T any] func() (T, error)

// FromSlice adapts a slice into a Stream, exactly as streamv2's
// FromSlice does.
func FromSlice[T any](items []T) Stream[T] {
	i := 0
	return func() (T, error) {
		if i >= len(items) {
			var zero T
			return zero, EOS
		}
		v := items[i]
		i++
		return v, nil
	}
}

// FromLines adapts a bufio.Scanner over r into a Stream of text lines,
// the driver's analogue of streamv2's FromChannel/io constructors.
func FromLines(r io.Reader) Stream[string] {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return func() (string, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", EOS
		}
		return scanner.Text(), nil
	}
}

// MapStream transforms a Stream elementwise, in the teacher's Filter[T,U] style.
func MapStream[T, U any](s Stream[T], fn func(T) U) Stream[U] {
	return func() (U, error) {
		v, err := s()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	}
}

// Where keeps only elements matching predicate, as in streamv2's Where.
func Where[T any](s Stream[T], predicate func(T) bool) Stream[T] {
	return func() (T, error) {
		for {
			v, err := s()
			if err != nil {
				var zero T
				return zero, err
			}
			if predicate(v) {
				return v, nil
			}
		}
	}
}

// Collect drains a Stream into a slice, as in streamv2's Collect.
func Collect[T any](s Stream[T]) ([]T, error) {
	var out []T
	for {
		v, err := s()
		if err != nil {
			if errors.Is(err, EOS) {
				return out, nil
			}
			return out, err
		}
		out = append(out, v)
	}
}

// ForEach drains a Stream, calling fn per element, as in streamv2's ForEach.
func ForEach[T any](s Stream[T], fn func(T) error) error {
	for {
		v, err := s()
		if err != nil {
			if errors.Is(err, EOS) {
				return nil
			}
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
}
