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
    `github.com/irforge/ssacore/internal/ir`
)

// CheckOptimizer eliminates redundant NIL/BOUND checks on the same MEM
// allocation when one already dominates another equivalent check.
type CheckOptimizer struct {
    dom *ir.DominatorsTree
}

// NewCheckOptimizer builds (and runs) a dominator tree over g for use by
// the check-elimination pass.
func NewCheckOptimizer(g *ir.Graph) *CheckOptimizer {
    dom := ir.NewDominatorsTree(g)
    dom.Run()
    return &CheckOptimizer{dom: dom}
}

// Run eliminates every dominated, equivalent check reachable from g's start
// block, visiting blocks in RPO so dominators are processed before
// dominatees.
func (c *CheckOptimizer) Run(g *ir.Graph) {
    for _, bb := range ir.RPO(g) {
        for _, mem := range bb.Instructions() {
            if mem.Op() != ir.MEM {
                continue
            }
            c.optimizeMem(mem)
        }
    }
}

func (c *CheckOptimizer) optimizeMem(mem *ir.Instruction) {
    var nilChecks, boundChecks []*ir.Instruction
    for user := range mem.Users() {
        if user.Op() != ir.CHECK {
            continue
        }
        switch user.CheckKind() {
        case ir.NIL:
            nilChecks = append(nilChecks, user)
        case ir.BOUND:
            boundChecks = append(boundChecks, user)
        }
    }
    c.eliminateDominated(nilChecks, nilEquivalent)
    c.eliminateDominated(boundChecks, boundEquivalent)
}

func nilEquivalent(a, b *ir.Instruction) bool {
    return true
}

func boundEquivalent(a, b *ir.Instruction) bool {
    ai, bi := a.Inputs()[1], b.Inputs()[1]
    if ai == bi {
        return true
    }
    av, aok := constValue(ai)
    bv, bok := constValue(bi)
    return aok && bok && av == bv
}

func constValue(i *ir.Instruction) (int64, bool) {
    if i.Op() == ir.CONSTANT {
        return i.Value(), true
    }
    return 0, false
}

// eliminateDominated implements the pairwise reduction: pop a representative
// check, and for every other equivalent check in the partition, eliminate
// whichever of the pair is dominated by the other. If neither dominates the
// other, both survive and the representative is dropped from consideration
// (its remaining comparisons are already done).
func (c *CheckOptimizer) eliminateDominated(checks []*ir.Instruction, equivalent func(a, b *ir.Instruction) bool) {
    for len(checks) > 0 {
        check := checks[0]
        rest := checks[1:]
        var survivors []*ir.Instruction
        stop := false
        for _, other := range rest {
            if stop {
                survivors = append(survivors, other)
                continue
            }
            if !equivalent(check, other) {
                survivors = append(survivors, other)
                continue
            }
            switch {
            case c.dom.DoesInstructionDominatesOn(other, check):
                ir.Eliminate(other)
            case c.dom.DoesInstructionDominatesOn(check, other):
                ir.Eliminate(check)
                stop = true
                survivors = append(survivors, other)
            default:
                survivors = append(survivors, other)
            }
        }
        checks = survivors
    }
}
