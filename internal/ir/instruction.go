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
    `fmt`
    `strconv`
    `strings`
)

// Instruction is a tagged union over every opcode family. Collapsing the
// original class hierarchy into one struct keeps Dump/ShallowCopy dispatch a
// plain switch on Op instead of virtual calls, and lets the def-use plumbing
// (inputs/users) live in exactly one place.
type Instruction struct {
    block   *BasicBlock
    id      Id
    op      Opcode
    resType ResultType

    inputs []*Instruction
    users  map[*Instruction]struct{}

    value  int64     // Assign: literal or parameter index
    cmp    CmpFlags  // Logic
    phi    *phiDeps  // Phi
    check  CheckType // Check
    callee MethodId  // CallStatic
}

func newInstruction(op Opcode, resType ResultType, inputs ...*Instruction) *Instruction {
    inst := &Instruction{
        op:      op,
        resType: resType,
        inputs:  append([]*Instruction(nil), inputs...),
        users:   make(map[*Instruction]struct{}),
    }
    for _, in := range inputs {
        in.AddUsers(inst)
    }
    return inst
}

func (i *Instruction) Id() Id               { return i.id }
func (i *Instruction) Op() Opcode           { return i.op }
func (i *Instruction) ResType() ResultType  { return i.resType }
func (i *Instruction) Block() *BasicBlock   { return i.block }
func (i *Instruction) IsPhi() bool          { return i.op == PHI }
func (i *Instruction) Inputs() []*Instruction {
    return i.inputs
}

// Value returns the literal (CONSTANT) or parameter index (PARAMETER).
func (i *Instruction) Value() int64 { return i.value }

// Cmp returns the comparison flag of a COMPARE instruction.
func (i *Instruction) Cmp() CmpFlags { return i.cmp }

// CheckKind returns the CheckType of a CHECK instruction.
func (i *Instruction) CheckKind() CheckType { return i.check }

// Callee returns the MethodId of a CALL_STATIC instruction.
func (i *Instruction) Callee() MethodId { return i.callee }

// Users returns the set of instructions that reference this one, either as
// a plain input (non-phi user) or as a phi value-dependency key.
func (i *Instruction) Users() map[*Instruction]struct{} {
    return i.users
}

func (i *Instruction) firstOp() *Instruction { return i.inputs[0] }
func (i *Instruction) lastOp() *Instruction  { return i.inputs[len(i.inputs)-1] }

// AddUsers registers each of x as a user of this instruction.
func (i *Instruction) AddUsers(x ...*Instruction) {
    for _, u := range x {
        i.users[u] = struct{}{}
    }
}

func (i *Instruction) removeUser(u *Instruction) {
    delete(i.users, u)
}

// UpdateInputs replaces the first occurrence of old in inputs with next.
// Caller is responsible for user-set maintenance.
func (i *Instruction) UpdateInputs(old, next *Instruction) {
    for idx, in := range i.inputs {
        if in == old {
            i.inputs[idx] = next
            return
        }
    }
}

// AddInputs appends more operands to inputs (used while rewiring clones
// produced by ShallowCopy, which start with an empty input list).
func (i *Instruction) AddInputs(x ...*Instruction) {
    i.inputs = append(i.inputs, x...)
}

// phiDependencies returns the phi value-dependency map. It is unexported,
// so only code inside package ir can reach it; other packages go through
// PhiValues/PhiBlocksFor.
func (i *Instruction) phiDependencies() *phiDeps {
    return i.phi
}

// ResolveDependency appends predBlock to value's incoming list on a PHI.
func (i *Instruction) ResolveDependency(value *Instruction, predBlock *BasicBlock) {
    if i.op != PHI {
        panic(`ir: ResolveDependency on a non-phi instruction`)
    }
    if value.resType != i.resType {
        panic(`ir: phi value type mismatch`)
    }
    i.phi.resolve(value, predBlock)
    value.AddUsers(i)
}

// UpdateDependencies re-keys a phi's incoming value from old to next, merging
// predecessor lists if next is already a key.
func (i *Instruction) UpdateDependencies(old, next *Instruction) {
    i.phi.rekey(old, next)
}

// UpdateValueBasicBlock rewrites the predecessor tag inside value's entry.
func (i *Instruction) UpdateValueBasicBlock(value *Instruction, oldBB, newBB *BasicBlock) {
    i.phi.relabelBlock(value, oldBB, newBB)
}

// PhiValues returns the distinct incoming values of a phi, in the order
// they were first resolved.
func (i *Instruction) PhiValues() []*Instruction {
    return i.phi.values()
}

// PhiBlocksFor returns the predecessor blocks value flows in from, for a
// value already present in this phi's dependency map.
func (i *Instruction) PhiBlocksFor(value *Instruction) []*BasicBlock {
    idx := i.phi.indexOf(value)
    if idx < 0 {
        return nil
    }
    return i.phi.entries[idx].blocks
}

// HasOnlyOneDependency is true iff exactly one distinct value flows into the
// phi, regardless of how many predecessor blocks carry it.
func (i *Instruction) HasOnlyOneDependency() bool {
    return i.phi.hasOnlyOneValue()
}

// SingleDependency returns the lone incoming value; only valid when
// HasOnlyOneDependency is true.
func (i *Instruction) SingleDependency() *Instruction {
    return i.phi.entries[0].value
}

// UpdateBasicBlock moves ownership of this instruction to newBB. Any user
// that is a phi has its predecessor tag for this value rewritten from the
// old block to newBB.
func (i *Instruction) UpdateBasicBlock(newBB *BasicBlock) {
    old := i.block
    i.block = newBB
    RelabelPhiUsers(i, old, newBB)
}

// RelabelPhiUsers rewrites, on every phi user of i, the predecessor tag for
// i's value from oldBB to newBB. Exposed separately from UpdateBasicBlock
// for callers (like inlining) that relocate an instruction via
// BasicBlock.InsertInstBack/InsertPhiInst directly and so have already
// updated i.block themselves before the old block is still known.
func RelabelPhiUsers(i *Instruction, oldBB, newBB *BasicBlock) {
    for u := range i.users {
        if u.IsPhi() {
            u.UpdateValueBasicBlock(i, oldBB, newBB)
        }
    }
}

// UpdateUsersAndEliminate migrates I's user set onto J, rewiring every user
// to reference J instead of I, then eliminates I. It is idempotent when I
// has no users: it degrades to a plain Eliminate.
func UpdateUsersAndEliminate(i, j *Instruction) {
    for u := range i.users {
        if u.IsPhi() {
            u.UpdateDependencies(i, j)
        } else {
            u.UpdateInputs(i, j)
        }
        j.AddUsers(u)
    }
    i.users = make(map[*Instruction]struct{})
    Eliminate(i)
}

// Eliminate requires i to have no users. It detaches i from each of its
// inputs' (or phi value-dependency keys') user sets, unlinks i from its
// block, and releases it. Irreversible.
func Eliminate(i *Instruction) {
    if len(i.users) != 0 {
        panic(`ir: Eliminate on instruction with live users`)
    }
    if i.op == PHI {
        for _, v := range i.phi.values() {
            v.removeUser(i)
        }
    } else {
        for _, in := range i.inputs {
            in.removeUser(i)
        }
    }
    if i.block != nil {
        i.block.unlink(i)
    }
}

// ReplaceArithm builds a fresh ArithmInst ahead of old in old's block,
// reusing old's own Id rather than minting a new one, and wires in1/in2 as
// its inputs. Used by the peephole pass's x+x -> SHL(x,1) rewrite, which
// keeps the original instruction's identity for its replacement.
func ReplaceArithm(old *Instruction, op Opcode, resType ResultType, in1, in2 *Instruction) *Instruction {
    fresh := newInstruction(op, resType, in1, in2)
    fresh.id = old.id
    old.block.InsertInstBefore(fresh, old)
    return fresh
}

// NewConstBefore mints a fresh CONSTANT instruction and inserts it
// immediately before block's current terminator (or appends, if block is
// still empty) rather than at the tail of the block. The optimizer passes'
// constant-pool mechanic must never land a minted constant after a block's
// existing terminator, matching the original's
// `constInst->InsertInstBefore(constBlock->GetLastInstruction())`.
func NewConstBefore(g *Graph, block *BasicBlock, resType ResultType, value int64) *Instruction {
    fresh := newInstruction(CONSTANT, resType)
    fresh.value = value
    fresh.id = g.NewInstId(false)
    if mark := block.GetLastInstruction(); mark != nil {
        block.InsertInstBefore(fresh, mark)
    } else {
        block.InsertInstBack(fresh)
    }
    return fresh
}

// NewUnlinkedBranch appends a BRANCH instruction to block reusing id,
// without registering any successor edge. Used by inlining to stand a
// branch in for a cloned RETURN before the branch's eventual target (the
// post-call block) is known; the successor is wired in a later step via
// BasicBlock.SetTrueSuccessor.
func NewUnlinkedBranch(block *BasicBlock, id Id) *Instruction {
    inst := newInstruction(BRANCH, VOID)
    inst.id = id
    block.InsertInstBack(inst)
    return inst
}

// AppendBranch mints a fresh BRANCH instruction and appends it to block,
// without registering a successor edge. Used by inlining to give a caller
// block a terminator instruction matching a successor edge that
// BasicBlock.UpdateControlFlow already set up.
func AppendBranch(g *Graph, block *BasicBlock) *Instruction {
    return NewUnlinkedBranch(block, g.NewInstId(false))
}

// ShallowCopy duplicates this instruction's opcode/result-type/payload (not
// its inputs, which start empty and must be rewired by the caller) under
// the caller-supplied id, inserting the clone into newBB following the
// usual phi-front discipline.
func (i *Instruction) ShallowCopy(newBB *BasicBlock, id Id) *Instruction {
    clone := &Instruction{
        block:   nil,
        id:      id,
        op:      i.op,
        resType: i.resType,
        inputs:  nil,
        users:   make(map[*Instruction]struct{}),
        value:   i.value,
        cmp:     i.cmp,
        check:   i.check,
        callee:  i.callee,
    }
    if i.op == PHI {
        clone.phi = &phiDeps{}
        newBB.InsertPhiInst(clone)
    } else {
        newBB.InsertInstBack(clone)
    }
    return clone
}

// dump renders this instruction in the textual format used by tests:
// "<id>[p].<resType> <mnemonic> <operands>".
func (i *Instruction) dump() string {
    head := i.id.String()
    if i.resType != VOID {
        head += `.` + i.resType.String()
    }
    return head + ` ` + i.op.String() + ` ` + i.operandsDump()
}

func vref(i *Instruction) string {
    return `v` + i.id.String()
}

func (i *Instruction) operandsDump() string {
    switch i.op {
    case PARAMETER, CONSTANT:
        return strconv.FormatInt(i.value, 10)
    case ADD, MUL, SHL, XOR:
        return vref(i.firstOp()) + `, ` + vref(i.lastOp())
    case COMPARE:
        return i.cmp.String() + ` ` + vref(i.firstOp()) + `, ` + vref(i.lastOp())
    case BRANCH:
        return `BB.` + i.block.trueSuccessor.id.String()
    case COND_BRANCH:
        return vref(i.firstOp()) + `, BB.` + i.block.trueSuccessor.id.String() + `, BB.` + i.block.falseSuccessor.id.String()
    case RETURN:
        if len(i.inputs) == 0 {
            return `void`
        }
        return vref(i.firstOp())
    case PHI:
        parts := make([]string, 0, len(i.phi.entries))
        for _, e := range i.phi.entries {
            for _, b := range e.blocks {
                parts = append(parts, vref(e.value)+`:BB.`+b.id.String())
            }
        }
        return strings.Join(parts, `, `)
    case MEM:
        return vref(i.firstOp())
    case LOAD:
        return vref(i.firstOp()) + `, ` + vref(i.lastOp())
    case STORE:
        parts := make([]string, len(i.inputs))
        for idx, in := range i.inputs {
            parts[idx] = vref(in)
        }
        return strings.Join(parts, `, `)
    case CHECK:
        parts := make([]string, len(i.inputs))
        for idx, in := range i.inputs {
            parts[idx] = vref(in)
        }
        return i.check.String() + ` ` + strings.Join(parts, `, `)
    case CALL_STATIC:
        parts := make([]string, len(i.inputs))
        for idx, in := range i.inputs {
            parts[idx] = vref(in)
        }
        return fmt.Sprintf(`id: %d Ret: %s %s`, i.callee, i.resType.String(), strings.Join(parts, `, `))
    default:
        return ``
    }
}
