/*
 * Copyright 2022 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ir

// CallGraph maps method name to MethodId to Graph, letting the inlining
// pass resolve a CALL_STATIC's callee id back to a compiled graph. It owns
// method-id allocation, not the graphs themselves.
type CallGraph struct {
    nextId  uint32
    names   map[string]MethodId
    graphs  map[MethodId]*Graph
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
    return &CallGraph{
        names:  make(map[string]MethodId),
        graphs: make(map[MethodId]*Graph),
    }
}

// DeclareMethod reserves a MethodId for name, returning the existing id if
// the name was already declared.
func (cg *CallGraph) DeclareMethod(name string) MethodId {
    if id, ok := cg.names[name]; ok {
        return id
    }
    cg.nextId++
    id := MethodId(cg.nextId)
    cg.names[name] = id
    return id
}

// NewGraph creates a Graph for the named method, declaring it first if
// necessary, and registers it in the call graph.
func (cg *CallGraph) NewGraph(name string) *Graph {
    id := cg.DeclareMethod(name)
    g := NewGraph()
    g.linkToCallGraph(cg, id)
    cg.graphs[id] = g
    return g
}

// GraphByMethodID resolves a previously-registered graph, or nil.
func (cg *CallGraph) GraphByMethodID(id MethodId) *Graph {
    return cg.graphs[id]
}

// MethodIdOf returns the MethodId for a declared name, and whether it was
// found.
func (cg *CallGraph) MethodIdOf(name string) (MethodId, bool) {
    id, ok := cg.names[name]
    return id, ok
}
