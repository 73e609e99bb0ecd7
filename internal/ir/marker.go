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

// Marker is a single bit drawn from a Graph's 64-bit marker word, used as a
// reentrant visited flag on blocks during traversals. The supply is one-shot:
// a Graph never reuses a bit once it has been handed out.
type Marker uint64

// markSet is the per-block bitset a Marker is tested and mutated against.
type markSet struct {
    bits uint64
}

func (s *markSet) mark(m Marker) {
    s.bits |= uint64(m)
}

func (s *markSet) unmark(m Marker) {
    s.bits &^= uint64(m)
}

func (s *markSet) isMarked(m Marker) bool {
    return s.bits&uint64(m) != 0
}
