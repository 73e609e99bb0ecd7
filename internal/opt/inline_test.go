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

package opt

import (
    `testing`

    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`

    `github.com/irforge/ssacore/internal/ir`
)

// buildBar creates the callee of E8: bar(v0) { return v0 << 7 }.
func buildBar(cg *ir.CallGraph) *ir.Graph {
    g := cg.NewGraph(`bar`)
    start := g.GetStartBlock()
    if start == nil {
        start = g.CreateBlock()
    }
    body := g.CreateBlock()
    b := ir.NewBuilder(g)

    b.SetInsertionPoint(start)
    param := b.CreateParam(ir.U32, 0)
    b.CreateBr(body)

    b.SetInsertionPoint(body)
    seven := b.CreateConstInt(ir.U32, 7)
    shl := b.CreateShl(param, seven)
    b.CreateRet(shl)

    return g
}

// TestInliner_SimpleCall covers E8: after inlining, the caller has no
// CALL_STATIC left, and the caller's own ADD consumes the inlined result
// (through the post-call phi or whatever it collapses to).
func TestInliner_SimpleCall(t *testing.T) {
    cg := ir.NewCallGraph()
    bar := buildBar(cg)

    foo := cg.NewGraph(`foo`)
    fooStart := foo.CreateBlock()
    b := ir.NewBuilder(foo)
    b.SetInsertionPoint(fooStart)

    arg := b.CreateParam(ir.U32, 0)
    call := b.CreateCallStatic(bar.GetMethodId(), ir.U32, arg)
    one := b.CreateConstInt(ir.U32, 1)
    add := b.CreateAdd(call, one)
    ret := b.CreateRet(add)

    inliner := NewInliner(b)
    inliner.Run(foo)

    var sawCall bool
    for _, bb := range foo.Blocks() {
        for _, inst := range bb.Instructions() {
            if inst.Op() == ir.CALL_STATIC {
                sawCall = true
            }
        }
    }
    require.False(t, sawCall, spew.Sdump(foo.Dump()))

    assert.Equal(t, ir.ADD, add.Op())
    assert.Equal(t, one, add.Inputs()[1])
    assert.NotEqual(t, call, add.Inputs()[0])
    assert.Contains(t, add.Inputs()[0].Users(), add)
    assert.Equal(t, ret, ret.Block().GetLastInstruction())
}

// buildAddK creates a callee whose prologue carries a CONSTANT (not just a
// PARAMETER): addK(v0) { return v0 + 9 }.
func buildAddK(cg *ir.CallGraph) *ir.Graph {
    g := cg.NewGraph(`addK`)
    start := g.GetStartBlock()
    if start == nil {
        start = g.CreateBlock()
    }
    body := g.CreateBlock()
    b := ir.NewBuilder(g)

    b.SetInsertionPoint(start)
    param := b.CreateParam(ir.U32, 0)
    nine := b.CreateConstInt(ir.U32, 9)
    b.CreateBr(body)

    b.SetInsertionPoint(body)
    b.CreateRet(b.CreateAdd(param, nine))

    return g
}

// TestInliner_CalleeConstantSubstitutionKeepsCallerTerminatorLast exercises
// mintConst's CONSTANT-substitution path (inline.go's equivalent of
// peephole's mintConst) against a caller whose own start block already ends
// in a BRANCH before the call is reached. A naive append-only mint would
// have landed the substitute constant after that BRANCH, leaving the start
// block with a non-terminal terminator.
func TestInliner_CalleeConstantSubstitutionKeepsCallerTerminatorLast(t *testing.T) {
    cg := ir.NewCallGraph()
    addK := buildAddK(cg)

    top := cg.NewGraph(`top`)
    topStart := top.CreateBlock()
    topBody := top.CreateBlock()
    b := ir.NewBuilder(top)

    b.SetInsertionPoint(topStart)
    topArg := b.CreateParam(ir.U32, 0)
    b.CreateBr(topBody)

    b.SetInsertionPoint(topBody)
    call := b.CreateCallStatic(addK.GetMethodId(), ir.U32, topArg)
    b.CreateRet(call)

    NewInliner(b).Run(top)

    last := topStart.GetLastInstruction()
    require.Equal(t, ir.BRANCH, last.Op(), spew.Sdump(top.Dump()))
}

// TestInliner_NestedCallIsAlsoInlined exercises the worklist re-enqueueing
// newly spliced call sites from an inlined body.
func TestInliner_NestedCallIsAlsoInlined(t *testing.T) {
    cg := ir.NewCallGraph()
    leaf := buildBar(cg) // leaf(v0) = v0 << 7

    mid := cg.NewGraph(`mid`)
    midStart := mid.GetStartBlock()
    if midStart == nil {
        midStart = mid.CreateBlock()
    }
    midBody := mid.CreateBlock()
    bm := ir.NewBuilder(mid)
    bm.SetInsertionPoint(midStart)
    midParam := bm.CreateParam(ir.U32, 0)
    bm.CreateBr(midBody)
    bm.SetInsertionPoint(midBody)
    midCall := bm.CreateCallStatic(leaf.GetMethodId(), ir.U32, midParam)
    bm.CreateRet(midCall)

    top := cg.NewGraph(`top`)
    topStart := top.CreateBlock()
    bt := ir.NewBuilder(top)
    bt.SetInsertionPoint(topStart)
    topArg := bt.CreateParam(ir.U32, 0)
    topCall := bt.CreateCallStatic(mid.GetMethodId(), ir.U32, topArg)
    bt.CreateRet(topCall)

    NewInliner(bt).Run(top)

    for _, bb := range top.Blocks() {
        for _, inst := range bb.Instructions() {
            assert.NotEqual(t, ir.CALL_STATIC, inst.Op(), spew.Sdump(top.Dump()))
        }
    }
}
