// Command validate runs integrity checks over a directory of downloaded AW
// documents: it reports parse failures, verifies every normalized reach
// exposes the same attribute key set, checks geometry and access-point
// coordinates, and confirms the derived schema bounds every string value.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/couchcryptid/reach-data-etl/internal/adapter/awfile"
	"github.com/couchcryptid/reach-data-etl/internal/domain"
	"github.com/couchcryptid/reach-data-etl/internal/export"
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
	dataDir := flag.String("data-dir", "", "directory containing aw_*.json documents")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string) int {
	fmt.Println("=== Reach Data Integrity Validation ===")
	fmt.Println()

	docs, err := awfile.NewSource(dataDir).LoadAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load documents: %v\n", err)
		return 1
	}

	parsePhase, reaches := validateParsing(docs)

	phases := []*phase{
		parsePhase,
		validateKeySets(reaches),
		validateGeometry(reaches),
		validateSchemaBounds(reaches),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Documents: %d loaded, %d normalized\n", len(docs), len(reaches))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Parsing ──
// Normalizes every document; malformed ones are listed but are only warnings
// for the overall run, matching the pipeline's skip behavior.

func validateParsing(docs []domain.RawDocument) (*phase, []*domain.Reach) {
	p := &phase{name: "Phase 1: Document Parsing"}

	reaches := make([]*domain.Reach, 0, len(docs))
	for _, doc := range docs {
		r, err := domain.Normalize(doc.Data)
		if err != nil {
			p.errorf("%s: %v", doc.Name, err)
			continue
		}
		reaches = append(reaches, r)
	}
	return p, reaches
}

// ── Phase 2: Key Sets ──
// Every reach must expose exactly the canonical attribute keys.

func validateKeySets(reaches []*domain.Reach) *phase {
	p := &phase{name: "Phase 2: Attribute Key Consistency"}

	defs := domain.AttributeFields()
	for _, r := range reaches {
		attrs := r.Attributes()
		if len(attrs) != len(defs) {
			p.errorf("reach %d: %d attributes, want %d", r.ReachID, len(attrs), len(defs))
			continue
		}
		for _, def := range defs {
			if _, ok := attrs[def.Name]; !ok {
				p.errorf("reach %d: missing attribute %q", r.ReachID, def.Name)
			}
		}
	}
	return p
}

// ── Phase 3: Geometry ──

func validateGeometry(reaches []*domain.Reach) *phase {
	p := &phase{name: "Phase 3: Geometry Validity"}

	for _, r := range reaches {
		if len(r.Geometry) == 0 {
			p.errorf("reach %d: empty geometry", r.ReachID)
			continue
		}
		for i, path := range r.Geometry {
			if len(path) < 2 {
				p.errorf("reach %d: path %d has %d vertices", r.ReachID, i, len(path))
			}
			for _, pt := range path {
				if pt[1] < -90 || pt[1] > 90 || pt[0] < -180 || pt[0] > 180 {
					p.errorf("reach %d: path %d has out-of-range vertex (%g, %g)", r.ReachID, i, pt[0], pt[1])
					break
				}
			}
		}
		if _, ok := r.Centroid(); !ok {
			p.errorf("reach %d: no derivable centroid", r.ReachID)
		}
	}
	return p
}

// ── Phase 4: Schema Bounds ──
// The derived schema must bound every observed string value with headroom.

func validateSchemaBounds(reaches []*domain.Reach) *phase {
	p := &phase{name: "Phase 4: Schema Length Bounds"}

	schema, err := export.DeriveSchema(reaches)
	if err != nil {
		p.errorf("derive schema: %v", err)
		return p
	}

	lengths := make(map[string]int)
	for _, f := range schema.Fields {
		if f.Type == domain.FieldString {
			lengths[f.Name] = f.Length
			if f.Length < 1 {
				p.errorf("field %q: length %d below minimum", f.Name, f.Length)
			}
		}
	}

	for _, r := range reaches {
		for name, v := range r.Attributes() {
			s, ok := v.(string)
			if !ok {
				continue
			}
			limit, bounded := lengths[name]
			if !bounded {
				continue
			}
			if n := utf8.RuneCountInString(s); n > limit {
				p.errorf("reach %d: %s is %d chars, schema allows %d", r.ReachID, name, n, limit)
			}
		}
	}
	return p
}
