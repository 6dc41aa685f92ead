package interpreter

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/log"

	"menter/interpreter-go/pkg/ast"
	"menter/interpreter-go/pkg/runtime"
)

// resolution is the state of one chain walk. Switching into an imported
// module replaces context and frame for the remaining steps.
type resolution struct {
	context *runtime.GlobalContext
	frame   *runtime.Frame
	module  *runtime.Module
	value   *runtime.Value
}

// resolve walks an access chain. The head step is looked up in the frame, the
// context variables and the imports; every later step is a call or a key
// access on the previous value. Importing a module switches the rest of the
// chain into that module's context.
func (i *Interpreter) resolve(site ast.Node, steps []ast.Node, mode symbolMode, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	if len(steps) == 0 {
		return nil, frame.Errorf(g, runtime.ErrUnresolvedSymbol, "Cannot resolve symbol from %s", ast.Code(site))
	}
	if i.opts.LogResolve {
		log.Infof("resolve start: %s", ast.Code(site))
	}

	r := &resolution{context: g, frame: frame}
	var self *runtime.Value
	for idx, step := range steps {
		final := idx == len(steps)-1
		previous := r.value
		if previous.Kind() == runtime.KindObject {
			self = previous
		}
		var key *runtime.Value

		if r.value == nil {
			id, isIdent := step.(*ast.Identifier)
			if !isIdent {
				v, err := i.evalValue(step, g, throwIfMissing, frame)
				if err != nil {
					return nil, err
				}
				r.value = v
				i.logResolve(idx, ast.Code(step), "evaluated node")
				continue
			}
			name := id.Name
			key = runtime.NewString(name)

			if local, ok := r.frame.Get(name); ok {
				if r.module != nil && !r.module.Exports(name) {
					return nil, frame.Errorf(g, runtime.ErrIllegalModuleAccess, "Illegal access on [%s.%s]: module does not export symbol", r.module.Name, name)
				}
				if mode == createNew {
					local = local.Copy()
					r.frame.Put(name, local)
				}
				r.value = local
				i.logResolve(idx, name, "local symbols")
				continue
			}
			if global, ok := r.context.Variable(name); ok {
				if mode == createNew {
					global = global.Copy()
					r.context.SetVariable(name, global)
				}
				r.value = global
				i.logResolve(idx, name, "global variables")
				continue
			}

			found, err := i.switchToImport(r, site, name, g, frame, mode.creates() && final)
			if err != nil {
				return nil, err
			}
			if found {
				i.logResolve(idx, name, "import of "+r.module.Name)
				if r.value == nil && final {
					return nil, frame.Errorf(g, runtime.ErrIllegalModuleAccess, "Illegal access on [%s]: Cannot access reference to the [%s] module.\nAccessing symbols across modules is disallowed.", ast.Code(site), r.module.Name)
				}
				continue
			}

			if name == "symbols" && r.context != g {
				r.value = r.context.SymbolsObject()
				i.logResolve(idx, name, "module symbols")
				continue
			}
			if r.module != nil && mode.creates() {
				return nil, frame.Errorf(g, runtime.ErrIllegalModuleAccess, "Illegal access on [%s.%s]: module does not export symbol", r.module.Name, name)
			}
		} else {
			if call, isCall := step.(*ast.Call); isCall {
				args, err := i.evaluateArguments(call.Args, g, frame)
				if err != nil {
					return nil, err
				}
				receiver := self
				r.value, err = i.callFunction(r.value, args, g, frame, ast.Code(steps[idx-1]), func(local *runtime.Frame) {
					if receiver != nil {
						local.PutSelf(receiver)
					}
				})
				if err != nil {
					return nil, err
				}
				i.logResolve(idx, ast.Code(step), "function call")
				continue
			}

			var err error
			key, err = i.stepKey(step, g, frame)
			if err != nil {
				return nil, err
			}
			if found := r.value.Access(key); found != nil {
				r.value = found
				i.logResolve(idx, runtime.Display(key), "access on previous value")
				continue
			}
			if mode.creates() {
				created := runtime.Empty()
				if !previous.Create(key, created, final) {
					return nil, frame.Errorf(g, runtime.ErrTypeMismatch, "Cannot create [%s] on value of type %s: %s", runtime.Display(key), previous.Type(), ast.Code(site))
				}
				r.value = created
				i.logResolve(idx, runtime.Display(key), "created on previous value")
				continue
			}
		}

		name := runtime.Display(key)
		if !mode.creates() {
			return nil, frame.Errorf(g, runtime.ErrUnresolvedSymbol, "%s", i.unresolvedMessage(site, name, previous, r.context))
		}
		if final {
			r.value = runtime.Empty()
		} else {
			r.value = runtime.NewObject(nil)
		}
		r.frame.Put(name, r.value)
		i.logResolve(idx, name, "created")
	}
	return r.value, nil
}

// switchToImport switches r into the module an import of name refers to. For
// inline imports the exported symbol becomes the value right away, except when
// the name is the target of a write: the write then creates a binding in the
// importing source. Imports are only followed from the context the chain
// started in.
func (i *Interpreter) switchToImport(r *resolution, site ast.Node, name string, caller *runtime.GlobalContext, callerFrame *runtime.Frame, writing bool) (bool, error) {
	for _, imp := range r.context.Imports {
		module, ok := imp.Module()
		if !ok {
			return false, callerFrame.Errorf(caller, runtime.ErrImport, "Module has not finished loading yet: %s", imp)
		}
		matches := (!imp.Inline && imp.AliasOrName() == name) || (imp.Inline && !writing && module.Exports(name))
		if !matches {
			continue
		}
		if r.context != caller {
			if imp.Inline {
				return false, callerFrame.Errorf(caller, runtime.ErrIllegalModuleAccess, "Illegal access on [%s]: [%s] references a symbol from the [%s] module.\nAccessing symbols across modules is disallowed.", ast.Code(site), name, module.Name)
			}
			return false, callerFrame.Errorf(caller, runtime.ErrIllegalModuleAccess, "Illegal access on [%s]: Cannot access reference to the [%s] module.\nAccessing symbols across modules is disallowed.", ast.Code(site), module.Name)
		}
		r.context = module.Context
		r.module = module
		r.frame = callerFrame.ForkFunction()
		r.frame.PutAll(module.Context.Variables)
		if imp.Inline {
			v, found := module.Context.Variable(name)
			if !found {
				return false, callerFrame.Errorf(caller, runtime.ErrUnresolvedSymbol, "Module [%s] exports [%s], but does not define it", module.Name, name)
			}
			r.value = v
		}
		return true, nil
	}
	return false, nil
}

func (i *Interpreter) stepKey(step ast.Node, g *runtime.GlobalContext, frame *runtime.Frame) (*runtime.Value, error) {
	switch s := step.(type) {
	case *ast.Identifier:
		return runtime.NewString(s.Name), nil
	case *ast.Index:
		return i.evalValue(s.Key, g, throwIfMissing, frame)
	}
	return i.evalValue(step, g, throwIfMissing, frame)
}

func (i *Interpreter) logResolve(idx int, key, source string) {
	if i.opts.LogResolve {
		log.Infof("resolve step %d [%s] from %s", idx, key, source)
	}
}

func (i *Interpreter) unresolvedMessage(site ast.Node, name string, previous *runtime.Value, g *runtime.GlobalContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cannot resolve symbol '%s' on [%s]", name, ast.Code(site))
	if previous != nil {
		fmt.Fprintf(&b, "\nEvaluation stopped at value: %s", runtime.Display(previous))
	}
	candidates := suggest(name, i.candidateNames(previous, g), i.opts.Suggestions)
	if len(candidates) > 0 {
		quoted := make([]string, len(candidates))
		for idx, c := range candidates {
			quoted[idx] = "'" + c + "'"
		}
		fmt.Fprintf(&b, "\nDid you mean %s?", strings.Join(quoted, ", "))
	}
	return b.String()
}

// candidateNames lists what could have been meant: the keys and methods of the
// previous value, or the variables and imports at the head of a chain.
func (i *Interpreter) candidateNames(previous *runtime.Value, g *runtime.GlobalContext) []string {
	if previous != nil {
		return previous.AccessCandidates()
	}
	names := g.VariableNames()
	for _, imp := range g.Imports {
		module, ok := imp.Module()
		if !ok {
			continue
		}
		if imp.Inline {
			names = append(names, module.Symbols...)
		} else {
			names = append(names, imp.AliasOrName())
		}
	}
	return names
}

// suggest ranks candidates by how well they match the misspelled name.
// Matching characters score 1 while the match is contiguous and 0.5 after a
// gap, and the total is divided by the longer of the two names so long
// candidates do not win on length alone. Ties keep alphabetical order.
func suggest(name string, candidates []string, limit int) []string {
	seen := make(map[string]bool, len(candidates))
	unique := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != "" && !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	sort.Strings(unique)
	scores := make(map[string]float64, len(unique))
	for _, c := range unique {
		scores[c] = similarity(c, name)
	}
	sort.SliceStable(unique, func(a, b int) bool {
		return scores[unique[a]] > scores[unique[b]]
	})
	if limit >= 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

func similarity(candidate, name string) float64 {
	a := []rune(strings.ToLower(candidate))
	b := []rune(strings.ToLower(name))
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	score := 0.0
	matched := 0
	contiguous := true
	for idx := 0; idx < len(a) && matched < len(b); idx++ {
		if a[idx] == b[matched] {
			if contiguous {
				score++
			} else {
				score += 0.5
			}
			contiguous = true
			matched++
		} else {
			contiguous = false
		}
	}
	return score / float64(max(len(a), len(b)))
}
