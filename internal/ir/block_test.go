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
    `testing`

    `github.com/stretchr/testify/assert`
    `github.com/stretchr/testify/require`
)

// TestUpdateControlFlow_PreservesBothDonorEdges guards against the original
// system's false-successor copy bug, where the donor's false edge was
// wrongly assigned the old true successor a second time.
func TestUpdateControlFlow_PreservesBothDonorEdges(t *testing.T) {
    g := NewGraph()
    caller := g.CreateBlock()
    oldTrue := g.CreateBlock()
    oldFalse := g.CreateBlock()
    donor := g.CreateBlock()
    newTrue := g.CreateBlock()

    caller.SetTrueSuccessor(oldTrue)
    caller.SetFalseSuccessor(oldFalse)

    caller.UpdateControlFlow(newTrue, nil, donor)

    require.Equal(t, oldTrue, donor.TrueSuccessor())
    require.Equal(t, oldFalse, donor.FalseSuccessor())
    assert.NotEqual(t, donor.TrueSuccessor(), donor.FalseSuccessor())

    assert.Equal(t, newTrue, caller.TrueSuccessor())
    assert.Nil(t, caller.FalseSuccessor())

    assert.Contains(t, oldTrue.Predecessors(), donor)
    assert.Contains(t, oldFalse.Predecessors(), donor)
    assert.NotContains(t, oldTrue.Predecessors(), caller)
}

func TestUpdateControlFlow_PanicsIfDonorNotEmpty(t *testing.T) {
    g := NewGraph()
    caller := g.CreateBlock()
    oldTrue := g.CreateBlock()
    donor := g.CreateBlock()
    already := g.CreateBlock()

    caller.SetTrueSuccessor(oldTrue)
    donor.SetTrueSuccessor(already)

    assert.Panics(t, func() {
        caller.UpdateControlFlow(nil, nil, donor)
    })
}

func TestInsertPhiInst_KeepsPhisAtFront(t *testing.T) {
    g := NewGraph()
    bb := g.CreateBlock()
    b := NewBuilder(g)
    b.SetInsertionPoint(bb)

    c := b.CreateConstInt(U32, 1)
    phi := b.CreatePhi(U32)
    phi.ResolveDependency(c, bb)

    require.Len(t, bb.Instructions(), 2)
    assert.True(t, bb.Instructions()[0].IsPhi())
    assert.False(t, bb.Instructions()[1].IsPhi())
}

func TestSetTrueSuccessor_PanicsOnDoubleSet(t *testing.T) {
    g := NewGraph()
    bb := g.CreateBlock()
    a := g.CreateBlock()
    c := g.CreateBlock()
    bb.SetTrueSuccessor(a)
    assert.Panics(t, func() { bb.SetTrueSuccessor(c) })
}
