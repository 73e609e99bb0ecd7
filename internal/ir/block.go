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

// BasicBlock is a maximal straight-line instruction sequence with a single
// entry and at most two successors. Phi instructions are kept contiguous at
// the front of the instruction list.
type BasicBlock struct {
    id    Id
    graph *Graph

    instructions []*Instruction
    lastPhiIdx   int // index one past the last phi, 0 if none

    predecessors []*BasicBlock
    trueSuccessor  *BasicBlock
    falseSuccessor *BasicBlock

    marks  markSet
    dfs    uint32
    idom   *BasicBlock
    idomed []*BasicBlock
}

func newBasicBlock(id Id, g *Graph) *BasicBlock {
    return &BasicBlock{id: id, graph: g, lastPhiIdx: 0}
}

func (b *BasicBlock) Id() Id           { return b.id }
func (b *BasicBlock) Graph() *Graph    { return b.graph }
func (b *BasicBlock) Instructions() []*Instruction {
    return b.instructions
}
func (b *BasicBlock) Predecessors() []*BasicBlock { return b.predecessors }
func (b *BasicBlock) TrueSuccessor() *BasicBlock  { return b.trueSuccessor }
func (b *BasicBlock) FalseSuccessor() *BasicBlock { return b.falseSuccessor }
func (b *BasicBlock) ImmediateDominator() *BasicBlock { return b.idom }
func (b *BasicBlock) ImmediateDominatees() []*BasicBlock { return b.idomed }

func (b *BasicBlock) addPredecessor(p *BasicBlock) {
    b.predecessors = append(b.predecessors, p)
}

// SetTrueSuccessor registers bb as this block's true successor, provided the
// slot is empty and bb differs from the existing false successor.
func (b *BasicBlock) SetTrueSuccessor(bb *BasicBlock) {
    if b.trueSuccessor != nil {
        panic(`ir: true successor already set`)
    }
    if bb == nil {
        panic(`ir: nil successor`)
    }
    if bb == b.falseSuccessor {
        panic(`ir: true and false successor must differ`)
    }
    b.trueSuccessor = bb
    bb.addPredecessor(b)
}

// SetFalseSuccessor registers bb as this block's false successor, provided
// the slot is empty and bb differs from the existing true successor.
func (b *BasicBlock) SetFalseSuccessor(bb *BasicBlock) {
    if b.falseSuccessor != nil {
        panic(`ir: false successor already set`)
    }
    if bb == nil {
        panic(`ir: nil successor`)
    }
    if bb == b.trueSuccessor {
        panic(`ir: true and false successor must differ`)
    }
    b.falseSuccessor = bb
    bb.addPredecessor(b)
}

func (b *BasicBlock) removePredecessor(p *BasicBlock) {
    for i, q := range b.predecessors {
        if q == p {
            b.predecessors = append(b.predecessors[:i], b.predecessors[i+1:]...)
            return
        }
    }
}

// GetSuccessors returns the block's successors, true-successor first.
func (b *BasicBlock) GetSuccessors() []*BasicBlock {
    var out []*BasicBlock
    if b.trueSuccessor != nil {
        out = append(out, b.trueSuccessor)
    }
    if b.falseSuccessor != nil {
        out = append(out, b.falseSuccessor)
    }
    return out
}

func (b *BasicBlock) Mark(m Marker)          { b.marks.mark(m) }
func (b *BasicBlock) Unmark(m Marker)        { b.marks.unmark(m) }
func (b *BasicBlock) IsMarked(m Marker) bool { return b.marks.isMarked(m) }

func (b *BasicBlock) setDfsOrder(v uint32) { b.dfs = v }
func (b *BasicBlock) DfsOrder() uint32     { return b.dfs }

// InsertInstBack appends a non-phi instruction to the end of the block.
func (b *BasicBlock) InsertInstBack(inst *Instruction) {
    if inst.IsPhi() {
        panic(`ir: phi instruction must use InsertPhiInst`)
    }
    inst.block = b
    b.instructions = append(b.instructions, inst)
}

// InsertInstBefore inserts a non-phi instruction immediately before mark.
func (b *BasicBlock) InsertInstBefore(inst, mark *Instruction) {
    if inst.IsPhi() {
        panic(`ir: phi instruction must use InsertPhiInst`)
    }
    inst.block = b
    for i, x := range b.instructions {
        if x == mark {
            b.instructions = append(b.instructions[:i], append([]*Instruction{inst}, b.instructions[i:]...)...)
            return
        }
    }
    panic(`ir: InsertInstBefore: mark not found`)
}

// InsertPhiInst inserts a phi instruction immediately after the last
// existing phi (or at the front if there is none).
func (b *BasicBlock) InsertPhiInst(inst *Instruction) {
    if !inst.IsPhi() {
        panic(`ir: non-phi instruction must use InsertInstBack`)
    }
    inst.block = b
    b.instructions = append(b.instructions[:b.lastPhiIdx], append([]*Instruction{inst}, b.instructions[b.lastPhiIdx:]...)...)
    b.lastPhiIdx++
}

// GetLastInstruction returns the block's last instruction, or nil if empty.
func (b *BasicBlock) GetLastInstruction() *Instruction {
    if len(b.instructions) == 0 {
        return nil
    }
    return b.instructions[len(b.instructions)-1]
}

// InstructionsAfter returns the instructions strictly after mark, in order.
func (b *BasicBlock) InstructionsAfter(mark *Instruction) []*Instruction {
    for i, x := range b.instructions {
        if x == mark {
            return append([]*Instruction(nil), b.instructions[i+1:]...)
        }
    }
    return nil
}

// Unlink removes inst from the block's instruction list without touching
// its def-use edges; used when relocating an instruction to another block.
func (b *BasicBlock) Unlink(inst *Instruction) {
    b.unlink(inst)
}

func (b *BasicBlock) unlink(inst *Instruction) {
    for i, x := range b.instructions {
        if x == inst {
            b.instructions = append(b.instructions[:i], b.instructions[i+1:]...)
            if i < b.lastPhiIdx {
                b.lastPhiIdx--
            }
            return
        }
    }
}

// IterateOverInstructions visits every instruction in the block, walking a
// snapshot of the list taken before the first visit so the visitor may
// safely eliminate the current instruction. Returning true from the visitor stops the walk early.
func (b *BasicBlock) IterateOverInstructions(visit func(*Instruction) bool) {
    snapshot := append([]*Instruction(nil), b.instructions...)
    for _, inst := range snapshot {
        if visit(inst) {
            return
        }
    }
}

// UpdateControlFlow redirects this block's successor edges through donor:
// donor inherits this block's current successors, then this block adopts
// (newTrue, newFalse) in their place. Used by inlining to splice a callee
// region between a caller block and its post-call tail.
func (b *BasicBlock) UpdateControlFlow(newTrue, newFalse, donor *BasicBlock) {
    if len(donor.GetSuccessors()) != 0 {
        panic(`ir: UpdateControlFlow donor must have empty successors`)
    }
    oldTrue, oldFalse := b.trueSuccessor, b.falseSuccessor
    if oldTrue != nil {
        oldTrue.removePredecessor(b)
        donor.SetTrueSuccessor(oldTrue)
    }
    if oldFalse != nil {
        oldFalse.removePredecessor(b)
        donor.SetFalseSuccessor(oldFalse)
    }
    b.trueSuccessor = nil
    b.falseSuccessor = nil
    if newTrue != nil {
        b.SetTrueSuccessor(newTrue)
    }
    if newFalse != nil {
        b.SetFalseSuccessor(newFalse)
    }
}

func (b *BasicBlock) dump() string {
    var sb strings.Builder
    sb.WriteString(`BB.`)
    sb.WriteString(b.id.String())
    sb.WriteString(":\n")
    for _, inst := range b.instructions {
        sb.WriteString(`    `)
        sb.WriteString(inst.dump())
        sb.WriteString("\n")
    }
    return sb.String()
}
