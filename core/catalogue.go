package core

import (
	"fmt"
	"sync"
)

// tagCatalogueEntry names one registered import tag, for tooling that
// needs to print or validate the full table rather than dispatch
// against it (cmd/artifactlint). Generalizes the teacher's
// opcodeTable/nameToOp registration pair (core/opcode_dispatcher.go),
// which guarded a single flat Opcode->handler map behind a RWMutex and
// panicked on a colliding registration; the same shape here, but
// keyed by (StateVersion, ImportTag) since tag 0 means something
// different in v0 than in v1.
type tagCatalogueEntry struct {
	version StateVersion
	tag     ImportTag
	module  string
	name    string
}

var (
	catalogueMu sync.RWMutex
	catalogue   []tagCatalogueEntry
	catalogueByKey = map[string]tagCatalogueEntry{}
)

func registerCatalogueEntry(version StateVersion, module, name string, tag ImportTag) {
	catalogueMu.Lock()
	defer catalogueMu.Unlock()
	key := fmt.Sprintf("%d:%s.%s", version, module, name)
	if _, exists := catalogueByKey[key]; exists {
		panic(fmt.Sprintf("core: duplicate import catalogue entry %s", key))
	}
	entry := tagCatalogueEntry{version: version, tag: tag, module: module, name: name}
	catalogueByKey[key] = entry
	catalogue = append(catalogue, entry)
}

func init() {
	for key, spec := range v0AllowedImports {
		registerCatalogueEntry(V0, spec.module, nameFromKey(key, spec.module), spec.tag)
	}
	for key, spec := range v1AllowedImports {
		registerCatalogueEntry(V1, spec.module, nameFromKey(key, spec.module), spec.tag)
	}
}

func nameFromKey(key, module string) string {
	return key[len(module)+1:]
}

// Catalogue returns every registered import entry across both state
// versions, for tooling (cmd/artifactlint) to print or validate.
func Catalogue() []tagCatalogueEntry {
	catalogueMu.RLock()
	defer catalogueMu.RUnlock()
	out := make([]tagCatalogueEntry, len(catalogue))
	copy(out, catalogue)
	return out
}

// TagName returns "module.name" for an entry, the form used in import
// validation error messages and lint output.
func (e tagCatalogueEntry) TagName() string { return e.module + "." + e.name }

func (e tagCatalogueEntry) Version() StateVersion { return e.version }

func (e tagCatalogueEntry) Tag() ImportTag { return e.tag }
