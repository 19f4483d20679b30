// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package linker

import (
	"fmt"
	"slices"

	"github.com/consensys/go-mips/pkg/asm/config"
	"github.com/consensys/go-mips/pkg/asm/diag"
	"github.com/consensys/go-mips/pkg/asm/object"
	"github.com/consensys/go-mips/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Result is the outcome of linking a set of modules.  The image holds one
// section for each distinct section name across all modules, at its final
// virtual address, along with the final (absolute) address of every exported
// symbol.
type Result struct {
	Image *object.Module
	// Address of the first instruction to execute
	Entry uint32
	// Exported symbols, along with the index of their defining module
	Globals map[string]Global
}

// Address returns the final address of an exported symbol.
func (p *Result) Address(name string) (uint32, bool) {
	if sym := p.Image.TryGetSymbol(name); sym.HasValue() {
		return uint32(sym.Unwrap().Address.Unwrap().Value), true
	}
	//
	return 0, false
}

// Link a set of one or more assembled modules together, to produce a single
// executable image.  Linking is the process of laying out the sections of
// every module, connecting symbols which are used by one module with their
// definitions (which may be in another), and patching every reference
// accordingly.  Modules which failed to assemble (or were not finalized) are
// rejected before anything else happens.  Every problem found is reported to
// the given logger, and false is returned if any was an error.  The given
// modules are never modified, hence the same modules can be linked again.
func Link(cfg config.Config, logger diag.Logger, modules ...*object.Module) (*Result, bool) {
	counter := diag.NewCounter(logger)
	reporter := diag.Logger(counter)
	// Promote before counting, so promoted warnings count as errors.
	if cfg.Werror {
		reporter = diag.Promote(counter)
	}
	//
	if !checkModules(modules, reporter) {
		return nil, false
	}
	// Relocation patches section bytes, so work on copies.
	modules = cloneModules(modules)
	//
	layout := newLayout(cfg.Link, modules)
	layout.checkOverlaps(reporter)
	// Construct global symbol table
	globals := buildGlobals(layout, reporter)
	// Link all modules
	for i := range modules {
		linkModule(layout, i, globals, reporter)
	}
	//
	entry := resolveEntry(cfg.Link, globals, reporter)
	//
	if counter.Errors() > 0 {
		return nil, false
	}
	//
	image := layout.build(cfg.Endian.ByteOrder(), globals)
	//
	log.Debugf("linked %d modules (entry %#x)", len(modules), entry)
	//
	return &Result{image, entry, globals}, true
}

// Fail fast on modules which cannot be linked.
func checkModules(modules []*object.Module, logger diag.Logger) bool {
	ok := true
	//
	for _, m := range modules {
		if m.Failed() {
			diag.Report(logger, diag.ModuleFailed, source.Location{}, nil, m.Name())
			ok = false
		} else if !m.IsFinalized() {
			diag.Report(logger, diag.NotFinalized, source.Location{}, nil, m.Name())
			ok = false
		}
	}
	//
	return ok
}

func cloneModules(modules []*object.Module) []*object.Module {
	clones := make([]*object.Module, len(modules))
	//
	for i, m := range modules {
		clones[i] = m.Clone()
	}
	//
	return clones
}

// ============================================================================
// Global symbols
// ============================================================================

// Global is an exported symbol, along with its final address and the module
// which defines it.
type Global struct {
	Symbol  object.Symbol
	Address int64
	Module  int
}

// Union the exported symbols of all modules.  Two global definitions of the
// same name conflict, whilst a global definition overrides a weak one.  Where
// several weak definitions exist, the first is used.
func buildGlobals(layout *Layout, logger diag.Logger) map[string]Global {
	globals := make(map[string]Global)
	//
	for i, m := range layout.modules {
		for _, sym := range m.Symbols() {
			if !sym.IsExported() || !sym.IsDefined() {
				continue
			}
			//
			g := Global{sym, layout.Resolve(i, sym.Address.Unwrap()), i}
			//
			if prev, ok := globals[sym.Name]; !ok {
				globals[sym.Name] = g
			} else if prev.Symbol.Binding == object.GLOBAL && sym.Binding == object.GLOBAL {
				diag.Report(logger, diag.DuplicateGlobal, sym.Origin, []string{sym.Name}, sym.Name,
					layout.modules[prev.Module].Name(), m.Name())
			} else if prev.Symbol.Binding == object.WEAK && sym.Binding == object.GLOBAL {
				globals[sym.Name] = g
			}
		}
	}
	//
	return globals
}

// ============================================================================
// References
// ============================================================================

// Resolve and patch every reference of a given module.
func linkModule(layout *Layout, index int, globals map[string]Global, logger diag.Logger) {
	module := layout.modules[index]
	//
	for _, ref := range module.References() {
		target, ok := resolveReference(layout, index, ref, globals)
		//
		if !ok {
			diag.Report(logger, diag.UnresolvedSymbol, source.Location{}, []string{ref.Symbol}, ref.Symbol,
				module.Name())
			//
			continue
		}
		// Branches are relative to their delay slot.
		delta := target
		//
		if ref.Kind == object.PCREL16 {
			delta = target - (layout.Resolve(index, ref.Location) + 4)
		}
		//
		if err := module.Relocate(ref, delta); err != nil {
			diag.Report(logger, diag.RelocationFailed, source.Location{}, []string{ref.Symbol}, ref.Symbol,
				err.Error())
		}
	}
}

// Determine the final address of the symbol targeted by a reference.  A
// section name refers to the start of that section within the referencing
// module.  Otherwise, a module's own local definitions take precedence,
// whilst an exported name always resolves to the merged global definition
// (so a weak definition overridden elsewhere is overridden for its own module
// as well).  An undefined weak symbol resolves to zero.
func resolveReference(layout *Layout, index int, ref object.Reference, globals map[string]Global) (int64, bool) {
	module := layout.modules[index]
	//
	if module.IsSectionName(ref.Symbol) {
		return layout.Resolve(index, object.Relative(ref.Symbol, 0)), true
	}
	//
	sym := module.TryGetSymbol(ref.Symbol)
	//
	if sym.HasValue() && sym.Unwrap().IsDefined() && !sym.Unwrap().IsExported() {
		return layout.Resolve(index, sym.Unwrap().Address.Unwrap()), true
	} else if g, ok := globals[ref.Symbol]; ok {
		return g.Address, true
	} else if sym.HasValue() && sym.Unwrap().IsDefined() {
		// Only reachable for a conflicting duplicate global
		return layout.Resolve(index, sym.Unwrap().Address.Unwrap()), true
	} else if sym.HasValue() && sym.Unwrap().Binding == object.WEAK {
		return 0, true
	}
	//
	return 0, false
}

// Determine the entry point, which defaults to the start of the text section
// when the entry symbol does not exist.
func resolveEntry(cfg config.Link, globals map[string]Global, logger diag.Logger) uint32 {
	if g, ok := globals[cfg.Entry]; ok {
		return uint32(g.Address)
	}
	//
	diag.Report(logger, diag.MissingEntry, source.Location{}, nil, cfg.Entry, cfg.TextBase)
	//
	return cfg.TextBase
}

func sortedNames(globals map[string]Global) []string {
	names := make([]string, 0, len(globals))
	//
	for name := range globals {
		names = append(names, name)
	}
	//
	slices.Sort(names)
	//
	return names
}

func (g Global) String() string {
	return fmt.Sprintf("%s = %#x (%s)", g.Symbol.Name, g.Address, g.Symbol.Binding)
}
