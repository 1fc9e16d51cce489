// Package registry maps the spatial method names used in model files (e.g.
// "finite volume") to the Go constructors that implement them.
//
// Modules register their factories at startup. The registry is then
// validated against the loaded configuration so that a model file naming an
// unknown method fails before any discretization starts.
package registry
