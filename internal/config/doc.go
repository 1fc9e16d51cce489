// Package config defines the format-agnostic configuration model of the
// application: the domains to mesh, the spatial method of each domain and
// the models to discretize, along with the Loader interface that produces it.
//
// Concrete loaders, such as the HCL one, live in separate packages and are
// responsible for turning their source format into this model, including
// the translation of equations into expression trees.
package config
