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

// phiEntry pairs an incoming value with the ordered list of predecessor
// blocks that carry it into the phi.
type phiEntry struct {
    value  *Instruction
    blocks []*BasicBlock
}

// phiDeps is the value-dependency map of a PhiInst: incoming-value
// instruction -> predecessor blocks it flows in from. Entries are kept in
// insertion order so Dump output is deterministic.
type phiDeps struct {
    entries []phiEntry
}

func (d *phiDeps) indexOf(v *Instruction) int {
    for i := range d.entries {
        if d.entries[i].value == v {
            return i
        }
    }
    return -1
}

// resolve appends predBlock to value's predecessor list, creating a fresh
// entry if value has not been seen before.
func (d *phiDeps) resolve(value *Instruction, predBlock *BasicBlock) {
    if i := d.indexOf(value); i >= 0 {
        d.entries[i].blocks = append(d.entries[i].blocks, predBlock)
        return
    }
    d.entries = append(d.entries, phiEntry{value: value, blocks: []*BasicBlock{predBlock}})
}

// rekey renames an incoming value from old to next, merging predecessor
// lists if next already has an entry of its own.
func (d *phiDeps) rekey(old, next *Instruction) {
    oi := d.indexOf(old)
    if oi < 0 {
        return
    }
    blocks := d.entries[oi].blocks
    d.entries = append(d.entries[:oi], d.entries[oi+1:]...)
    if ni := d.indexOf(next); ni >= 0 {
        d.entries[ni].blocks = append(d.entries[ni].blocks, blocks...)
        return
    }
    d.entries = append(d.entries, phiEntry{value: next, blocks: blocks})
}

// relabelBlock rewrites a single predecessor tag inside value's entry, used
// when a join block's predecessor identity changes (e.g. during inlining).
func (d *phiDeps) relabelBlock(value *Instruction, oldBB, newBB *BasicBlock) {
    i := d.indexOf(value)
    if i < 0 {
        return
    }
    blocks := d.entries[i].blocks
    for j := range blocks {
        if blocks[j] == oldBB {
            blocks[j] = newBB
        }
    }
}

func (d *phiDeps) values() []*Instruction {
    out := make([]*Instruction, len(d.entries))
    for i := range d.entries {
        out[i] = d.entries[i].value
    }
    return out
}

func (d *phiDeps) hasOnlyOneValue() bool {
    return len(d.entries) == 1
}
