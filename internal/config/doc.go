// Package config defines the format-agnostic settings model for the survey
// compiler, along with the Loader interface for reading settings from various
// sources. Concrete implementations, such as for HCL, live in separate
// packages.
//
// The `config.Settings` value is the single source of truth the compiler
// consumes: survey identity, survey type, rating-scale policy, and the
// self-rating exclusion rule.
package config
