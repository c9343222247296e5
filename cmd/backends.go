package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/hydrostats/tsfit/internal/ext"
)

// RunBackendsProbe registers every known chart backend into an isolated
// registry and reports whether its rendering dependency is usable.
func RunBackendsProbe(w io.Writer) error {
	names := make([]string, 0, len(backendRegistrars))
	for name := range backendRegistrars {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		reg := ext.NewRegistry()
		err := backendRegistrars[name](reg)
		if err == nil {
			fmt.Fprintf(w, "%-12s available\n", name)
			continue
		}

		var missing *ext.MissingDependencyError
		if errors.As(err, &missing) {
			fmt.Fprintf(w, "%-12s unavailable: %s (%s)\n", name, missing.Reason, missing.Hint)
			continue
		}
		fmt.Fprintf(w, "%-12s error: %v\n", name, err)
	}
	return nil
}
