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

// Builder is a stateful façade over a Graph with a current insertion-point
// block, exposing one constructor per opcode for test and front-end
// construction. Non-phi instructions append to the insertion point; phi
// instructions go through the block's phi-front discipline.
type Builder struct {
    graph           *Graph
    insertionPoint  *BasicBlock
}

// NewBuilder creates a builder over graph with no insertion point set.
func NewBuilder(graph *Graph) *Builder {
    return &Builder{graph: graph}
}

// SetInsertionPoint directs subsequent Create* calls to append to bb.
func (b *Builder) SetInsertionPoint(bb *BasicBlock) {
    b.insertionPoint = bb
}

func (b *Builder) insert(inst *Instruction) *Instruction {
    if b.insertionPoint == nil {
        panic(`ir: builder has no insertion point`)
    }
    inst.id = b.graph.NewInstId(inst.IsPhi())
    if inst.IsPhi() {
        b.insertionPoint.InsertPhiInst(inst)
    } else {
        b.insertionPoint.InsertInstBack(inst)
    }
    return inst
}

// CreateBlock mints a new block in the builder's graph.
func (b *Builder) CreateBlock() *BasicBlock {
    return b.graph.CreateBlock()
}

// CreateConstInt creates a CONSTANT with the given literal value.
func (b *Builder) CreateConstInt(resType ResultType, value int64) *Instruction {
    if resType == VOID {
        panic(`ir: constant must have a non-void result type`)
    }
    inst := newInstruction(CONSTANT, resType)
    inst.value = value
    return b.insert(inst)
}

// CreateParam creates a PARAMETER of the given result type and index.
func (b *Builder) CreateParam(resType ResultType, index uint32) *Instruction {
    if resType == VOID {
        panic(`ir: parameter must have a non-void result type`)
    }
    inst := newInstruction(PARAMETER, resType)
    inst.value = int64(index)
    return b.insert(inst)
}

func (b *Builder) createArithm(op Opcode, op1, op2 *Instruction) *Instruction {
    if op1.resType == VOID || op2.resType == VOID {
        panic(`ir: arithmetic operands must be non-void`)
    }
    inst := newInstruction(op, CombineResultType(op1.resType, op2.resType), op1, op2)
    return b.insert(inst)
}

// CreateAdd creates an ADD of op1 and op2.
func (b *Builder) CreateAdd(op1, op2 *Instruction) *Instruction { return b.createArithm(ADD, op1, op2) }

// CreateMul creates a MUL of op1 and op2.
func (b *Builder) CreateMul(op1, op2 *Instruction) *Instruction { return b.createArithm(MUL, op1, op2) }

// CreateShl creates a SHL of op1 and op2.
func (b *Builder) CreateShl(op1, op2 *Instruction) *Instruction { return b.createArithm(SHL, op1, op2) }

// CreateXor creates an XOR of op1 and op2.
func (b *Builder) CreateXor(op1, op2 *Instruction) *Instruction { return b.createArithm(XOR, op1, op2) }

func (b *Builder) createCompare(flag CmpFlags, op1, op2 *Instruction) *Instruction {
    inst := newInstruction(COMPARE, BOOL, op1, op2)
    inst.cmp = flag
    return b.insert(inst)
}

// CreateCmpLE creates a COMPARE(op1 <= op2).
func (b *Builder) CreateCmpLE(op1, op2 *Instruction) *Instruction { return b.createCompare(LE, op1, op2) }

// CreateCmpLT creates a COMPARE(op1 < op2).
func (b *Builder) CreateCmpLT(op1, op2 *Instruction) *Instruction { return b.createCompare(LT, op1, op2) }

// CreateBr creates an unconditional BRANCH and registers bb as the
// insertion-point block's true successor.
func (b *Builder) CreateBr(bb *BasicBlock) *Instruction {
    inst := b.insert(newInstruction(BRANCH, VOID))
    inst.block.SetTrueSuccessor(bb)
    return inst
}

// CreateCondBr creates a COND_BRANCH on pred, registering trueBr/falseBr as
// the insertion-point block's successors.
func (b *Builder) CreateCondBr(pred *Instruction, trueBr, falseBr *BasicBlock) *Instruction {
    if pred.resType != BOOL {
        panic(`ir: conditional branch predicate must be BOOL`)
    }
    inst := b.insert(newInstruction(COND_BRANCH, VOID, pred))
    inst.block.SetTrueSuccessor(trueBr)
    inst.block.SetFalseSuccessor(falseBr)
    return inst
}

// CreateRet creates a RETURN carrying retValue.
func (b *Builder) CreateRet(retValue *Instruction) *Instruction {
    return b.insert(newInstruction(RETURN, retValue.resType, retValue))
}

// CreateRetVoid creates a zero-input VOID RETURN.
func (b *Builder) CreateRetVoid() *Instruction {
    return b.insert(newInstruction(RETURN, VOID))
}

// CreatePhi creates an empty phi of the given result type; dependencies are
// added afterward via ResolveDependency.
func (b *Builder) CreatePhi(resType ResultType) *Instruction {
    inst := newInstruction(PHI, resType)
    inst.phi = &phiDeps{}
    inst.id = b.graph.NewInstId(true)
    b.insertionPoint.InsertPhiInst(inst)
    return inst
}

// CreateMem creates a MEM allocation of count elements of elemType.
func (b *Builder) CreateMem(elemType ResultType, count *Instruction) *Instruction {
    if elemType == VOID {
        panic(`ir: mem element type must be non-void`)
    }
    return b.insert(newInstruction(MEM, elemType, count))
}

// CreateLoad creates a LOAD from mem at index.
func (b *Builder) CreateLoad(mem, index *Instruction) *Instruction {
    return b.insert(newInstruction(LOAD, mem.resType, mem, index))
}

// CreateStore creates a STORE of value into mem at index. value's result
// type must not be wider than mem's element type.
func (b *Builder) CreateStore(mem, index, value *Instruction) *Instruction {
    if value.resType > mem.resType {
        panic(`ir: store value wider than mem element type`)
    }
    return b.insert(newInstruction(STORE, VOID, mem, index, value))
}

// CreateCheckNil creates a NIL check on mem.
func (b *Builder) CreateCheckNil(mem *Instruction) *Instruction {
    inst := newInstruction(CHECK, VOID, mem)
    inst.check = NIL
    return b.insert(inst)
}

// CreateCheckBound creates a BOUND check on mem at index.
func (b *Builder) CreateCheckBound(mem, index *Instruction) *Instruction {
    inst := newInstruction(CHECK, VOID, mem, index)
    inst.check = BOUND
    return b.insert(inst)
}

// CreateCallStatic creates a CALL_STATIC of callee with the given arguments
// and return type.
func (b *Builder) CreateCallStatic(callee MethodId, retType ResultType, args ...*Instruction) *Instruction {
    inst := newInstruction(CALL_STATIC, retType, args...)
    inst.callee = callee
    return b.insert(inst)
}
