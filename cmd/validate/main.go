// Command validate checks a reference dataset file before it is embedded.
// With no -file flag it checks the dataset compiled into the binary.
//
// Usage:
//
//	go run ./cmd/validate -file internal/dataset/reference.yaml
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/agri-advisory-service/internal/dataset"
	"github.com/couchcryptid/agri-advisory-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a reference dataset YAML file (default: embedded dataset)")
	flag.Parse()

	os.Exit(run(*file, os.Stdout, os.Stderr))
}

func run(path string, stdout, stderr io.Writer) int {
	data := dataset.Embedded()
	source := "embedded"
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			fmt.Fprintf(stderr, "FATAL: read dataset: %v\n", err)
			return 1
		}
		source = path
	}

	fmt.Fprintln(stdout, "=== Reference Dataset Validation ===")
	fmt.Fprintf(stdout, "Source: %s\n", source)

	ds, err := dataset.Decode(data)
	if err != nil {
		fmt.Fprintf(stderr, "FATAL: decode dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateInvariants(ds),
		validateReachability(ds),
	}

	fmt.Fprintln(stdout)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(stdout, "  %-36s %s\n", p.name, status)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Entries: %d weather, %d soil, %d crop\n",
		len(ds.Keys(domain.KindWeather)), len(ds.Keys(domain.KindSoil)), len(ds.Keys(domain.KindCrop)))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(stdout, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(stdout, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(stdout, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(stdout, "\nValidation FAILED.")
	return 1
}

// validateInvariants reports every construction invariant violation.
func validateInvariants(ds *dataset.Dataset) *phase {
	p := &phase{name: "Phase 1: Construction invariants"}
	err := ds.Validate()
	if err == nil {
		return p
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			p.errorf("%v", e)
		}
		return p
	}
	p.errorf("%v", err)
	return p
}

// validateReachability checks that each key resolves to itself. A key is
// shadowed when an earlier key is a substring of it.
func validateReachability(ds *dataset.Dataset) *phase {
	p := &phase{name: "Phase 2: Key reachability"}
	for _, kind := range domain.Kinds {
		m := domain.NewMatcher(ds.Keys(kind))
		for _, key := range ds.Keys(kind) {
			got, ok := m.Match(key)
			switch {
			case !ok:
				p.errorf("%s %q: does not match itself", kind, key)
			case got != key:
				p.errorf("%s %q: shadowed by earlier key %q", kind, key, got)
			}
		}
	}
	return p
}
