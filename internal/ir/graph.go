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

import (
    `strings`
)

// Graph owns a method's basic blocks and mints the identifiers and markers
// used within them. It belongs to (at most) one CallGraph.
type Graph struct {
    callGraph *CallGraph
    id        MethodId

    nextBBId   uint32
    nextInstId uint32
    nextMarker uint64

    blocks []*BasicBlock
}

// NewGraph creates a standalone graph with no call-graph affiliation, for
// tests and the IRBuilder's own fixtures.
func NewGraph() *Graph {
    return &Graph{nextMarker: 1}
}

func (g *Graph) linkToCallGraph(cg *CallGraph, id MethodId) {
    g.callGraph = cg
    g.id = id
}

// NewInstId mints the next instruction identifier. isPhi selects the phi bit.
func (g *Graph) NewInstId(isPhi bool) Id {
    id := newInstId(g.nextInstId, isPhi)
    g.nextInstId++
    return id
}

// NewBBId mints the next block identifier, packed like an instruction Id
// with the phi bit clear so that Id.String prints the plain block number.
func (g *Graph) NewBBId() Id {
    id := newInstId(g.nextBBId, false)
    g.nextBBId++
    return id
}

// GetMethodId returns the MethodId this graph is registered under in its
// CallGraph, or zero if unaffiliated.
func (g *Graph) GetMethodId() MethodId { return g.id }

// NewMarker draws a fresh marker bit from the graph's one-shot 64-bit
// supply. Panics once the supply is exhausted.
func (g *Graph) NewMarker() Marker {
    if g.nextMarker == 0 {
        panic(`ir: marker supply exhausted`)
    }
    m := Marker(g.nextMarker)
    g.nextMarker <<= 1
    return m
}

// InsertBasicBlock appends bb to the graph's block list.
func (g *Graph) InsertBasicBlock(bb *BasicBlock) {
    g.blocks = append(g.blocks, bb)
}

// CreateBlock mints a fresh id and appends a new block to the graph.
func (g *Graph) CreateBlock() *BasicBlock {
    bb := newBasicBlock(g.NewBBId(), g)
    g.InsertBasicBlock(bb)
    return bb
}

// GetStartBlock returns the first block inserted into the graph.
func (g *Graph) GetStartBlock() *BasicBlock {
    if len(g.blocks) == 0 {
        return nil
    }
    return g.blocks[0]
}

// GetBlocksCount returns the number of blocks currently in the graph.
func (g *Graph) GetBlocksCount() int { return len(g.blocks) }

// Blocks returns the graph's blocks in insertion order.
func (g *Graph) Blocks() []*BasicBlock { return g.blocks }

// GetGraphByMethodId resolves another graph through this graph's call graph.
func (g *Graph) GetGraphByMethodId(id MethodId) *Graph {
    if g.callGraph == nil {
        return nil
    }
    return g.callGraph.GraphByMethodID(id)
}

// IterateOverBlocks visits every block, including ones appended to the
// graph by the visitor itself (e.g. inlining splicing in new blocks).
func (g *Graph) IterateOverBlocks(visit func(*BasicBlock)) {
    for i := 0; i < len(g.blocks); i++ {
        visit(g.blocks[i])
    }
}

func (g *Graph) Dump() string {
    var sb strings.Builder
    for _, bb := range g.blocks {
        sb.WriteString(bb.dump())
    }
    return sb.String()
}
