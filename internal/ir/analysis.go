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

// DFS produces the preorder sequence of blocks reachable from the graph's
// start block, numbering each with SetDfsOrder as it is visited. The marker
// word is restored (every visited block unmarked) before returning, so
// repeated runs never exhaust the graph's one-shot marker supply.
func DFS(g *Graph) []*BasicBlock {
    start := g.GetStartBlock()
    if start == nil {
        return nil
    }
    marker := g.NewMarker()
    out := dfsWithMarker(start, marker)
    for _, bb := range out {
        bb.Unmark(marker)
    }
    return out
}

// dfsWithMarker runs a preorder DFS using an already-drawn marker, without
// unmarking on the way out. Callers that need to rerun DFS many times in a
// row (DominatorsTree.Run) reuse one marker across the whole series instead
// of exhausting the graph's one-shot 64-bit supply one bit per rerun.
func dfsWithMarker(start *BasicBlock, marker Marker) []*BasicBlock {
    var out []*BasicBlock
    dfsVisit(start, marker, &out)
    return out
}

func dfsVisit(bb *BasicBlock, marker Marker, out *[]*BasicBlock) {
    bb.Mark(marker)
    bb.setDfsOrder(uint32(len(*out)))
    *out = append(*out, bb)
    for _, succ := range bb.GetSuccessors() {
        if !succ.IsMarked(marker) {
            dfsVisit(succ, marker, out)
        }
    }
}

// RPO computes the reverse post-order of blocks reachable from start: every
// block precedes all its forward-reachable successors except across
// back-edges. It is the iteration order used by the peephole and
// check-elimination passes.
func RPO(g *Graph) []*BasicBlock {
    start := g.GetStartBlock()
    if start == nil {
        return nil
    }
    reachable := DFS(g)
    out := make([]*BasicBlock, len(reachable))
    idx := len(reachable)
    marker := g.NewMarker()
    rpoVisit(start, marker, out, &idx)
    for _, bb := range reachable {
        bb.Unmark(marker)
    }
    return out
}

func rpoVisit(bb *BasicBlock, marker Marker, out []*BasicBlock, idx *int) {
    if bb.IsMarked(marker) {
        return
    }
    bb.Mark(marker)
    for _, succ := range bb.GetSuccessors() {
        rpoVisit(succ, marker, out, idx)
    }
    *idx--
    out[*idx] = bb
}

// DominatorsTree holds the dominator relation over a graph's blocks, built
// by Run using the textbook reachability method: for each non-start block
// D, pre-mark D, re-run DFS from start, and every block that goes unreached
// is exactly the set D strictly dominates.
type DominatorsTree struct {
    graph *Graph
}

// NewDominatorsTree creates an (unpopulated) dominator tree for g. Call Run
// before issuing any query.
func NewDominatorsTree(g *Graph) *DominatorsTree {
    return &DominatorsTree{graph: g}
}

// Run computes dominance for every block reachable from the graph's start
// block, assigning each block's ImmediateDominator/ImmediateDominatees.
func (t *DominatorsTree) Run() {
    g := t.graph
    start := g.GetStartBlock()
    if start == nil {
        return
    }
    dfsMarker := g.NewMarker()
    reachable := dfsWithMarker(start, dfsMarker)
    for _, bb := range reachable {
        bb.Unmark(dfsMarker)
    }
    // reruns below re-invoke dfsVisit, which overwrites each block's dfs
    // order as a side effect; snapshot the true preorder now and restore it
    // once the blocking reruns are done.
    order := make(map[*BasicBlock]uint32, len(reachable))
    for i, bb := range reachable {
        order[bb] = uint32(i)
    }

    dominators := make(map[*BasicBlock][]*BasicBlock)
    for _, bb := range reachable {
        dominators[bb] = nil
    }

    for _, d := range reachable {
        if d == start {
            continue
        }
        // pre-block d with the same marker the rerun tests, so the DFS
        // never enters it
        d.Mark(dfsMarker)
        reached := dfsWithMarker(start, dfsMarker)
        reachedSet := make(map[*BasicBlock]bool, len(reached))
        for _, bb := range reached {
            reachedSet[bb] = true
        }
        for _, bb := range reached {
            bb.Unmark(dfsMarker)
        }
        for _, bb := range reachable {
            if bb == d {
                continue
            }
            if !reachedSet[bb] {
                dominators[bb] = append(dominators[bb], d)
            }
        }
        d.Unmark(dfsMarker)
    }
    for _, bb := range reachable {
        if bb == start {
            continue
        }
        dominators[bb] = append(dominators[bb], start)
    }

    for _, bb := range reachable {
        bb.setDfsOrder(order[bb])
    }
    t.buildTree(start, reachable, order, dominators)
}

func (t *DominatorsTree) buildTree(start *BasicBlock, reachable []*BasicBlock, order map[*BasicBlock]uint32, dominators map[*BasicBlock][]*BasicBlock) {
    for _, bb := range reachable {
        bb.idom = nil
        bb.idomed = nil
    }
    for _, bb := range reachable {
        if bb == start {
            continue
        }
        var idom *BasicBlock
        for _, d := range dominators[bb] {
            if idom == nil || order[d] > order[idom] {
                idom = d
            }
        }
        bb.idom = idom
        if idom != nil {
            idom.idomed = append(idom.idomed, bb)
        }
    }
}

// GetDominators returns every strict dominator of bb, unordered.
func (t *DominatorsTree) GetDominators(bb *BasicBlock) []*BasicBlock {
    return t.GetOrderedDominators(bb)
}

// GetOrderedDominators returns bb's strict dominators, deepest (closest)
// first, start block last. bb itself is never included.
func (t *DominatorsTree) GetOrderedDominators(bb *BasicBlock) []*BasicBlock {
    var out []*BasicBlock
    for d := bb.idom; d != nil; d = d.idom {
        out = append(out, d)
    }
    return out
}

// GetImmediateDominator returns bb's parent in the dominator tree, or nil
// for the start block (and unreachable blocks).
func (t *DominatorsTree) GetImmediateDominator(bb *BasicBlock) *BasicBlock {
    return bb.idom
}

// GetImmediateDominatorForBlocks returns the lowest common ancestor of
// bb1 and bb2 in the dominator tree, walking both ordered-dominator lists
// from their start-block end toward the deeper entries and keeping the last
// block they share. If either list is empty, returns nil. Note: if bb1
// strictly dominates bb2, bb1 never appears in its own dominator list, so
// the result is bb1's own immediate dominator, not bb1 itself.
func (t *DominatorsTree) GetImmediateDominatorForBlocks(bb1, bb2 *BasicBlock) *BasicBlock {
    d1 := t.GetOrderedDominators(bb1)
    d2 := t.GetOrderedDominators(bb2)
    if len(d1) == 0 || len(d2) == 0 {
        return nil
    }
    i, j := len(d1)-1, len(d2)-1
    var last *BasicBlock
    for i >= 0 && j >= 0 && d1[i] == d2[j] {
        last = d1[i]
        i--
        j--
    }
    return last
}

// GetImmediateDominatorForInstructions returns the lowest common ancestor
// instruction of inst1 and inst2: if they live in different blocks, the
// last instruction of the LCA block; if the same block, the instruction
// immediately preceding the earlier of the two in block order.
func (t *DominatorsTree) GetImmediateDominatorForInstructions(inst1, inst2 *Instruction) *Instruction {
    if inst1.block != inst2.block {
        lca := t.GetImmediateDominatorForBlocks(inst1.block, inst2.block)
        if lca == nil {
            return nil
        }
        return lca.GetLastInstruction()
    }
    var last *Instruction
    for _, inst := range inst1.block.instructions {
        if inst == inst1 || inst == inst2 {
            return last
        }
        last = inst
    }
    return last
}

// DoesBlockDominatesOn reports whether dominator dominates dominatee,
// reflexively (a block dominates itself).
func (t *DominatorsTree) DoesBlockDominatesOn(dominatee, dominator *BasicBlock) bool {
    if dominatee == dominator {
        return true
    }
    for _, child := range dominator.idomed {
        if t.DoesBlockDominatesOn(dominatee, child) {
            return true
        }
    }
    return false
}

// DoesInstructionDominatesOn reports whether dominator dominates dominatee.
// Across blocks this delegates to DoesBlockDominatesOn; within the same
// block it is strict (non-reflexive): passing the same instruction for
// both arguments returns false.
func (t *DominatorsTree) DoesInstructionDominatesOn(dominatee, dominator *Instruction) bool {
    if dominatee.block != dominator.block {
        return t.DoesBlockDominatesOn(dominatee.block, dominator.block)
    }
    for _, inst := range dominatee.block.instructions {
        if inst == dominatee {
            return false
        }
        if inst == dominator {
            return true
        }
    }
    return false
}
