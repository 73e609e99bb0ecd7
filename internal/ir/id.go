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
    `strconv`
)

// Id is a dense identifier minted by a Graph, used for both blocks and
// instructions. For instructions the low bit carries the phi flag, the
// remaining bits carry the sequence number: id = seq<<1 | isPhi.
type Id uint32

func newInstId(seq uint32, isPhi bool) Id {
    v := seq << 1
    if isPhi {
        v |= 1
    }
    return Id(v)
}

// Seq returns the sequence number embedded in an instruction Id.
func (id Id) Seq() uint32 {
    return uint32(id) >> 1
}

// IsPhi reports whether this Id was minted for a phi instruction.
func (id Id) IsPhi() bool {
    return uint32(id)&1 != 0
}

func (id Id) String() string {
    s := strconv.FormatUint(uint64(id.Seq()), 10)
    if id.IsPhi() {
        s += "p"
    }
    return s
}

// MethodId identifies a graph within a CallGraph.
type MethodId uint32
