package chart

import "fmt"

// RenderError reports why a figure could not be built. No partial figure is
// ever returned alongside it.
type RenderError struct {
	Kind Kind
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("creating %s visualization: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
