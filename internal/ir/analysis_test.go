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

// buildDiamondWithMerge constructs the E1 scenario: 0->1; 1->{2,5}; 2->3;
// 5->{4,6}; 4->3; 6->3.
func buildDiamondWithMerge(t *testing.T) (*Graph, map[int]*BasicBlock) {
    t.Helper()
    g := NewGraph()
    b := NewBuilder(g)

    bb := make(map[int]*BasicBlock)
    for i := 0; i < 7; i++ {
        bb[i] = g.CreateBlock()
    }

    b.SetInsertionPoint(bb[0])
    pred := b.CreateParam(BOOL, 0)
    b.CreateBr(bb[1])

    b.SetInsertionPoint(bb[1])
    b.CreateCondBr(pred, bb[2], bb[5])

    b.SetInsertionPoint(bb[2])
    b.CreateBr(bb[3])

    b.SetInsertionPoint(bb[5])
    b.CreateCondBr(pred, bb[4], bb[6])

    b.SetInsertionPoint(bb[4])
    b.CreateBr(bb[3])

    b.SetInsertionPoint(bb[6])
    b.CreateBr(bb[3])

    b.SetInsertionPoint(bb[3])
    b.CreateRetVoid()

    require.Equal(t, 7, g.GetBlocksCount())
    return g, bb
}

func TestDominatorsTree_DiamondWithMerge(t *testing.T) {
    g, bb := buildDiamondWithMerge(t)
    dom := NewDominatorsTree(g)
    dom.Run()

    assert.Equal(t, bb[0], dom.GetImmediateDominator(bb[1]))
    assert.Equal(t, bb[1], dom.GetImmediateDominator(bb[2]))
    assert.Equal(t, bb[1], dom.GetImmediateDominator(bb[3]))
    assert.Equal(t, bb[1], dom.GetImmediateDominator(bb[5]))
    assert.Equal(t, bb[5], dom.GetImmediateDominator(bb[4]))
    assert.Equal(t, bb[5], dom.GetImmediateDominator(bb[6]))
    assert.Nil(t, dom.GetImmediateDominator(bb[0]))

    doms4 := dom.GetDominators(bb[4])
    assert.ElementsMatch(t, []*BasicBlock{bb[0], bb[1], bb[5]}, doms4)
}

func TestDominatorsTree_ReflexiveVsStrict(t *testing.T) {
    g, bb := buildDiamondWithMerge(t)
    dom := NewDominatorsTree(g)
    dom.Run()

    // DoesBlockDominatesOn is reflexive.
    assert.True(t, dom.DoesBlockDominatesOn(bb[3], bb[3]))
    assert.True(t, dom.DoesBlockDominatesOn(bb[4], bb[1]))
    assert.False(t, dom.DoesBlockDominatesOn(bb[1], bb[4]))

    // DoesInstructionDominatesOn is strict within the same block.
    inst := bb[0].GetLastInstruction()
    assert.False(t, dom.DoesInstructionDominatesOn(inst, inst))
}

func TestDFSAndRPO_Order(t *testing.T) {
    g, bb := buildDiamondWithMerge(t)

    order := DFS(g)
    require.Len(t, order, 7)
    assert.Equal(t, bb[0], order[0])

    rpo := RPO(g)
    require.Len(t, rpo, 7)
    assert.Equal(t, bb[0], rpo[0])

    // RPO must place every block before its successors, except via the
    // merge block's multiple predecessors (handled by visiting successors
    // before recording, i.e. postorder reversed).
    index := make(map[*BasicBlock]int, len(rpo))
    for i, b := range rpo {
        index[b] = i
    }
    assert.Less(t, index[bb[1]], index[bb[2]])
    assert.Less(t, index[bb[1]], index[bb[5]])
    assert.Less(t, index[bb[5]], index[bb[4]])
    assert.Less(t, index[bb[5]], index[bb[6]])
}

func TestDominatorsTree_ManyBlocksDoesNotExhaustMarkers(t *testing.T) {
    // A straight-line chain of 200 blocks would draw 200 markers under a
    // naive "DFS(g) per non-start block" implementation, exhausting the
    // 64-bit one-shot supply well before the end. Run must survive this.
    g := NewGraph()
    b := NewBuilder(g)
    const n = 200
    blocks := make([]*BasicBlock, n)
    for i := 0; i < n; i++ {
        blocks[i] = g.CreateBlock()
    }
    for i := 0; i < n; i++ {
        b.SetInsertionPoint(blocks[i])
        if i == n-1 {
            b.CreateRetVoid()
        } else {
            b.CreateBr(blocks[i+1])
        }
    }

    dom := NewDominatorsTree(g)
    require.NotPanics(t, func() { dom.Run() })

    for i := 1; i < n; i++ {
        assert.Equal(t, blocks[i-1], dom.GetImmediateDominator(blocks[i]))
    }
}
