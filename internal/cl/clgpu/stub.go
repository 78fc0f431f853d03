//go:build !gpu

// Package clgpu implements the cl driver seam on top of a real OpenCL
// runtime. Without the 'gpu' build tag only this stub is compiled.
package clgpu

import "github.com/cwbudde/oclkit/internal/cl"

// New returns an error when OpenCL support is not compiled in.
func New() (cl.Driver, error) {
	return nil, cl.ErrNotBuilt
}
