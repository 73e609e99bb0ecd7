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

    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`

    `github.com/irforge/ssacore/internal/ir`
)

// TestCheckOptimizer_EliminatesDominatedDuplicates covers E6: on a single
// MEM, repeated nil/bound checks already dominated by an earlier equivalent
// check are eliminated; the first occurrence of each and the distinct-index
// bound check all survive.
func TestCheckOptimizer_EliminatesDominatedDuplicates(t *testing.T) {
    g := ir.NewGraph()
    bb := g.CreateBlock()
    b := ir.NewBuilder(g)
    b.SetInsertionPoint(bb)

    v0 := b.CreateParam(ir.U32, 0)
    v1 := b.CreateParam(ir.U32, 1)
    elem := b.CreateParam(ir.U32, 2)
    mem := b.CreateMem(ir.U32, b.CreateConstInt(ir.U32, 16))

    nil1 := b.CreateCheckNil(mem)
    bound1 := b.CreateCheckBound(mem, v0)
    b.CreateStore(mem, v0, elem)
    bound2 := b.CreateCheckBound(mem, v1)
    b.CreateStore(mem, v1, elem)
    boundDup1 := b.CreateCheckBound(mem, v0)
    b.CreateStore(mem, v0, elem)
    nilDup := b.CreateCheckNil(mem)
    boundDup2 := b.CreateCheckBound(mem, v1)
    b.CreateLoad(mem, v1)

    co := NewCheckOptimizer(g)
    co.Run(g)

    instructions := bb.Instructions()
    assert.Contains(t, instructions, nil1)
    assert.Contains(t, instructions, bound1)
    assert.Contains(t, instructions, bound2)
    assert.NotContains(t, instructions, boundDup1)
    assert.NotContains(t, instructions, nilDup)
    assert.NotContains(t, instructions, boundDup2)
    require.Len(t, instructions, 15-3)
}

// TestCheckOptimizer_DistinctMemsNeverCompared covers E7: bound checks on
// two independent MEM allocations are never eliminated against each other.
func TestCheckOptimizer_DistinctMemsNeverCompared(t *testing.T) {
    g := ir.NewGraph()
    bb := g.CreateBlock()
    b := ir.NewBuilder(g)
    b.SetInsertionPoint(bb)

    v0 := b.CreateParam(ir.U32, 0)
    mem1 := b.CreateMem(ir.U32, b.CreateConstInt(ir.U32, 8))
    mem2 := b.CreateMem(ir.U32, b.CreateConstInt(ir.U32, 8))

    bound1 := b.CreateCheckBound(mem1, v0)
    bound2 := b.CreateCheckBound(mem2, v0)

    co := NewCheckOptimizer(g)
    co.Run(g)

    assert.Contains(t, bb.Instructions(), bound1)
    assert.Contains(t, bb.Instructions(), bound2)
}
