// Package ext implements the extension registry that lets optional
// chart backends attach named capability namespaces to fitted models.
//
// The registry maps an extension name (e.g. "echarts") to a descriptor
// carrying a dependency probe and a namespace factory. Backends register
// themselves explicitly; nothing is registered at process start, so the
// core model stays free of heavy charting dependencies. A host resolves
// a namespace lazily through a per-instance binding cache: the first
// access constructs the namespace, later accesses return the same object.
package ext
