// Package core contains the essential modelling components of the system.
//
// Subpackages:
//
//   - logger: logging abstractions and configuration
//   - series: time series containers, CSV IO and statistics
//   - model: transfer function models and fitting
package core
