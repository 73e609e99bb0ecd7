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
    `github.com/oleiade/lane`

    `github.com/irforge/ssacore/internal/ir`
)

// Inliner replaces CALL_STATIC instructions with a copy of the callee's
// body, spliced into the caller's control-flow graph.
//
// A callee graph's start block is a dedicated prologue: PARAMETER and
// CONSTANT instructions followed by exactly one unconditional BRANCH into
// the callee's real body. That prologue is never cloned; it exists only to
// tell Inliner how to substitute the call's actual arguments and to name
// the callee's first body block. Every graph produced by Builder for use as
// an inlining callee must follow this convention.
type Inliner struct {
    builder *ir.Builder
}

// NewInliner creates an inlining pass that mints constants/blocks into the
// caller graph through builder.
func NewInliner(builder *ir.Builder) *Inliner {
    return &Inliner{builder: builder}
}

// Run scans every block of g for CALL_STATIC instructions and inlines each
// in turn. Call sites spliced in from an inlined body are enqueued too, so
// nested inlining is fully unrolled.
func (n *Inliner) Run(g *ir.Graph) {
    pending := lane.NewQueue()
    for _, bb := range g.Blocks() {
        for _, inst := range bb.Instructions() {
            if inst.Op() == ir.CALL_STATIC {
                pending.Enqueue(inst)
            }
        }
    }
    for !pending.Empty() {
        call := pending.Dequeue().(*ir.Instruction)
        if call.Block() == nil {
            continue
        }
        callee := g.GetGraphByMethodId(call.Callee())
        if callee == nil {
            continue
        }
        for _, fresh := range n.inlineCall(g, call, callee) {
            pending.Enqueue(fresh)
        }
    }
}

// cloneRecord keeps an (old, new) instruction pair alongside the order the
// pair was produced in, so the rewiring pass below has deterministic
// iteration order instead of Go's randomized map order.
type cloneRecord struct {
    old, fresh *ir.Instruction
}

func (n *Inliner) inlineCall(g *ir.Graph, call *ir.Instruction, callee *ir.Graph) []*ir.Instruction {
    calleeStart := callee.GetStartBlock()

    oldToNewInst := make(map[*ir.Instruction]*ir.Instruction)
    oldToNewBB := make(map[*ir.BasicBlock]*ir.BasicBlock)
    var clones []cloneRecord

    argIdx := 0
    for _, inst := range calleeStart.Instructions() {
        switch inst.Op() {
        case ir.PARAMETER:
            substitute := call.Inputs()[argIdx]
            argIdx++
            oldToNewInst[inst] = substitute
            clones = append(clones, cloneRecord{old: inst, fresh: substitute})
        case ir.CONSTANT:
            substitute := n.mintConst(g, inst.ResType(), inst.Value())
            oldToNewInst[inst] = substitute
            clones = append(clones, cloneRecord{old: inst, fresh: substitute})
        case ir.BRANCH:
            // the prologue's own terminator; nothing to substitute
        default:
            panic(`opt: callee start block must contain only PARAMETER/CONSTANT and a terminating BRANCH`)
        }
    }

    for _, bb := range callee.Blocks() {
        if bb == calleeStart {
            continue
        }
        oldToNewBB[bb] = g.CreateBlock()
    }

    for _, bb := range callee.Blocks() {
        if bb == calleeStart {
            continue
        }
        newBB := oldToNewBB[bb]
        for _, inst := range bb.Instructions() {
            var fresh *ir.Instruction
            if inst.Op() == ir.RETURN {
                fresh = ir.NewUnlinkedBranch(newBB, inst.Id())
            } else {
                fresh = inst.ShallowCopy(newBB, inst.Id())
            }
            oldToNewInst[inst] = fresh
            clones = append(clones, cloneRecord{old: inst, fresh: fresh})
        }
    }

    postCallBB := g.CreateBlock()
    var postCallPhi *ir.Instruction
    var newCalls []*ir.Instruction

    for _, bb := range callee.Blocks() {
        if bb == calleeStart {
            continue
        }
        newBB := oldToNewBB[bb]
        if bb.FalseSuccessor() != nil {
            newBB.SetFalseSuccessor(oldToNewBB[bb.FalseSuccessor()])
        }
        if bb.TrueSuccessor() != nil {
            newBB.SetTrueSuccessor(oldToNewBB[bb.TrueSuccessor()])
            continue
        }
        // bb ended in RETURN: its clone falls through into postCallBB
        newBB.SetTrueSuccessor(postCallBB)
    }

    // resolve return values against the post-call phi in a second pass,
    // once every callee block's clone exists (a return may feed a value
    // produced by a later block in declaration order)
    for _, bb := range callee.Blocks() {
        if bb == calleeStart || bb.TrueSuccessor() != nil {
            continue
        }
        oldRet := bb.GetLastInstruction()
        if oldRet.ResType() == ir.VOID {
            continue
        }
        newBB := oldToNewBB[bb]
        if postCallPhi == nil {
            // TODO: don't create a phi when the callee has only one return
            // site; peephole's trivial-phi collapse cleans this up on the
            // next optimizer pass instead of special-casing it here.
            n.builder.SetInsertionPoint(postCallBB)
            postCallPhi = n.builder.CreatePhi(oldRet.ResType())
        }
        postCallPhi.ResolveDependency(oldToNewInst[oldRet.Inputs()[0]], newBB)
    }

    for _, rec := range clones {
        for user := range rec.old.Users() {
            if mapped, ok := oldToNewInst[user]; ok {
                rec.fresh.AddUsers(mapped)
            }
        }
    }
    for _, rec := range clones {
        old, fresh := rec.old, rec.fresh
        switch {
        case old.IsPhi():
            for _, value := range old.PhiValues() {
                newValue := oldToNewInst[value]
                for _, predBB := range old.PhiBlocksFor(value) {
                    fresh.ResolveDependency(newValue, oldToNewBB[predBB])
                }
            }
        case old.Op() == ir.RETURN:
            // replaced by a synthetic branch; no operands to translate
        default:
            for _, in := range old.Inputs() {
                fresh.AddInputs(oldToNewInst[in])
            }
            if fresh.Op() == ir.CALL_STATIC {
                newCalls = append(newCalls, fresh)
            }
        }
    }

    n.merge(g, call, oldToNewBB[calleeStart.TrueSuccessor()], postCallBB, postCallPhi)
    return newCalls
}

func (n *Inliner) mintConst(g *ir.Graph, resType ir.ResultType, value int64) *ir.Instruction {
    start := g.GetStartBlock()
    for _, inst := range start.Instructions() {
        if inst.Op() == ir.CONSTANT && inst.ResType() == resType && inst.Value() == value {
            return inst
        }
    }
    return ir.NewConstBefore(g, start, resType, value)
}

// merge splices the cloned callee region into the caller: everything after
// the call moves into postCallBB, the caller's control flow is redirected
// through the callee's first body block via postCallBB as the donor for the
// caller's old successors, and the call itself is replaced by whatever
// value now stands in for its result.
func (n *Inliner) merge(g *ir.Graph, call *ir.Instruction, firstCalleeBB, postCallBB *ir.BasicBlock, postCallPhi *ir.Instruction) {
    callerBB := call.Block()

    // postCallBB holds at most the phi at this point; capture the call's
    // replacement value before the caller's own tail instructions move in.
    replacement := postCallBB.GetLastInstruction()

    for _, inst := range callerBB.InstructionsAfter(call) {
        callerBB.Unlink(inst)
        if inst.IsPhi() {
            postCallBB.InsertPhiInst(inst)
        } else {
            postCallBB.InsertInstBack(inst)
        }
        // InsertPhiInst/InsertInstBack already retargeted inst.block to
        // postCallBB, so relabel phi users against the known old block
        // directly rather than through UpdateBasicBlock (which would read
        // inst.block as its own "old" value and no-op the relabel).
        ir.RelabelPhiUsers(inst, callerBB, postCallBB)
    }

    callerBB.UpdateControlFlow(firstCalleeBB, nil, postCallBB)
    ir.AppendBranch(g, callerBB)

    if replacement != nil {
        ir.UpdateUsersAndEliminate(call, replacement)
    } else {
        ir.Eliminate(call)
    }
}
