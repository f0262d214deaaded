// Package errors provides the classified error primitives used across docsnap.
//
// A ClassifiedError carries a category (config, content, filesystem, ...), a severity
// and a retry hint next to the message and its cause. Errors are built with a fluent
// builder:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "write snapshot entry").
//		WithContext("key", key).
//		WithContext("path", path).
//		Build()
//
// ClassifiedError implements Unwrap, so errors.Is and errors.As from the standard
// library see through it.
package errors
