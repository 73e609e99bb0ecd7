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

// Package opt holds the graph-rewriting passes: peephole/algebraic
// simplification, redundant-check elimination, and call-site inlining.
package opt

import (
    `github.com/irforge/ssacore/internal/ir`
)

// PeepHole runs one pass of local algebraic simplification over every
// instruction in the graph, in RPO order, dispatching ADD/SHL/XOR/PHI to the
// rules below and leaving every other opcode untouched.
type PeepHole struct {
    builder *ir.Builder
}

// NewPeepHole creates a peephole pass bound to builder's graph. Minted
// constants are inserted directly ahead of the start block's terminator
// (ir.NewConstBefore) rather than through builder, so the constant-pool
// invariant holds regardless of the builder's own insertion point; builder
// is kept for parity with the other passes and against future rules that
// need it.
func NewPeepHole(builder *ir.Builder) *PeepHole {
    return &PeepHole{builder: builder}
}

// Run executes one sweep of the optimizer over g.
func (p *PeepHole) Run(g *ir.Graph) {
    for _, bb := range ir.RPO(g) {
        bb.IterateOverInstructions(func(inst *ir.Instruction) bool {
            switch inst.Op() {
            case ir.ADD:
                p.optimizeAdd(inst)
            case ir.SHL:
                p.optimizeShl(inst)
            case ir.XOR:
                p.optimizeXor(inst)
            case ir.PHI:
                p.optimizePhi(inst)
            }
            return false
        })
    }
}

func operands(inst *ir.Instruction) (*ir.Instruction, *ir.Instruction) {
    in := inst.Inputs()
    return in[0], in[1]
}

func asConst(inst *ir.Instruction) (int64, bool) {
    if inst.Op() == ir.CONSTANT {
        return inst.Value(), true
    }
    return 0, false
}

// mintConst reuses an existing CONSTANT of the same type/value in the
// start block if present, else creates a fresh one immediately before the
// start block's terminator.
func (p *PeepHole) mintConst(g *ir.Graph, resType ir.ResultType, value int64) *ir.Instruction {
    start := g.GetStartBlock()
    for _, inst := range start.Instructions() {
        if inst.Op() == ir.CONSTANT && inst.ResType() == resType && inst.Value() == value {
            return inst
        }
    }
    return ir.NewConstBefore(g, start, resType, value)
}

func (p *PeepHole) optimizeAdd(inst *ir.Instruction) {
    op1, op2 := operands(inst)
    g := inst.Block().Graph()

    if v1, ok1 := asConst(op1); ok1 {
        if v2, ok2 := asConst(op2); ok2 {
            folded := p.mintConst(g, inst.ResType(), v1+v2)
            ir.UpdateUsersAndEliminate(inst, folded)
            return
        }
        if v1 == 0 {
            ir.UpdateUsersAndEliminate(inst, op2)
            return
        }
    }
    if v2, ok2 := asConst(op2); ok2 && v2 == 0 {
        ir.UpdateUsersAndEliminate(inst, op1)
        return
    }
    if op1 == op2 {
        one := p.mintConst(g, ir.U8, 1)
        shl := ir.ReplaceArithm(inst, ir.SHL, inst.ResType(), op1, one)
        ir.UpdateUsersAndEliminate(inst, shl)
    }
}

func (p *PeepHole) optimizeShl(inst *ir.Instruction) {
    op1, op2 := operands(inst)
    g := inst.Block().Graph()

    if v1, ok1 := asConst(op1); ok1 {
        if v2, ok2 := asConst(op2); ok2 {
            folded := p.mintConst(g, inst.ResType(), v1<<uint64(v2))
            ir.UpdateUsersAndEliminate(inst, folded)
            return
        }
        if v1 == 0 {
            zero := p.mintConst(g, ir.U8, 0)
            ir.UpdateUsersAndEliminate(inst, zero)
            return
        }
    }
    if v2, ok2 := asConst(op2); ok2 && v2 == 0 {
        ir.UpdateUsersAndEliminate(inst, op1)
        return
    }
}

func (p *PeepHole) optimizeXor(inst *ir.Instruction) {
    op1, op2 := operands(inst)
    g := inst.Block().Graph()

    if v1, ok1 := asConst(op1); ok1 {
        if v2, ok2 := asConst(op2); ok2 {
            folded := p.mintConst(g, inst.ResType(), v1^v2)
            ir.UpdateUsersAndEliminate(inst, folded)
            return
        }
        if v1 == 0 {
            ir.UpdateUsersAndEliminate(inst, op2)
            return
        }
    }
    if v2, ok2 := asConst(op2); ok2 && v2 == 0 {
        ir.UpdateUsersAndEliminate(inst, op1)
        return
    }
    if op1 == op2 {
        zero := p.mintConst(g, ir.U8, 0)
        ir.UpdateUsersAndEliminate(inst, zero)
    }
}

func (p *PeepHole) optimizePhi(inst *ir.Instruction) {
    if inst.HasOnlyOneDependency() {
        ir.UpdateUsersAndEliminate(inst, inst.SingleDependency())
    }
}
