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

// Command ssacore-dump is a small demo/test harness: it builds one of a
// handful of named sample graphs, runs the requested optimizer passes over
// it, and prints the textual dump. It is not a production entry point.
package main

import (
    `flag`
    `fmt`
    `os`
    `strings`

    `github.com/irforge/ssacore/internal/ir`
    `github.com/irforge/ssacore/internal/opt`
)

var samples = map[string]func() *ir.Graph{
    `diamond-merge`:     sampleDiamondMerge,
    `add-zero`:          sampleAddZero,
    `add-self`:          sampleAddSelf,
    `check-elimination`: sampleCheckElimination,
    `simple-inlining`:   sampleSimpleInlining,
}

func main() {
    name := flag.String(`sample`, `diamond-merge`, sampleUsage())
    passes := flag.String(`passes`, ``, `comma-separated passes to run before dumping: peephole,checks,inline`)
    flag.Parse()

    build, ok := samples[*name]
    if !ok {
        fmt.Fprintf(os.Stderr, "ssacore-dump: unknown sample %q\n%s\n", *name, sampleUsage())
        os.Exit(1)
    }
    g := build()

    for _, pass := range strings.Split(*passes, `,`) {
        switch strings.TrimSpace(pass) {
        case ``:
        case `peephole`:
            opt.NewPeepHole(ir.NewBuilder(g)).Run(g)
        case `checks`:
            opt.NewCheckOptimizer(g).Run(g)
        case `inline`:
            opt.NewInliner(ir.NewBuilder(g)).Run(g)
        default:
            fmt.Fprintf(os.Stderr, "ssacore-dump: unknown pass %q\n", pass)
            os.Exit(1)
        }
    }

    fmt.Print(g.Dump())
}

func sampleUsage() string {
    names := make([]string, 0, len(samples))
    for name := range samples {
        names = append(names, name)
    }
    return `sample graph to build, one of: ` + strings.Join(names, `, `)
}

// sampleDiamondMerge is E1: a diamond CFG with a shared merge block.
func sampleDiamondMerge() *ir.Graph {
    g := ir.NewGraph()
    b := ir.NewBuilder(g)
    bb := make([]*ir.BasicBlock, 7)
    for i := range bb {
        bb[i] = g.CreateBlock()
    }

    b.SetInsertionPoint(bb[0])
    pred := b.CreateParam(ir.BOOL, 0)
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
    return g
}

// sampleAddZero is E2: RETURN(ADD(v0, 0)).
func sampleAddZero() *ir.Graph {
    g := ir.NewGraph()
    bb := g.CreateBlock()
    b := ir.NewBuilder(g)
    b.SetInsertionPoint(bb)

    zero := b.CreateConstInt(ir.U32, 0)
    v0 := b.CreateParam(ir.U32, 0)
    add := b.CreateAdd(v0, zero)
    b.CreateRet(add)
    return g
}

// sampleAddSelf is E3: RETURN(ADD(v0, v0)).
func sampleAddSelf() *ir.Graph {
    g := ir.NewGraph()
    bb := g.CreateBlock()
    b := ir.NewBuilder(g)
    b.SetInsertionPoint(bb)

    v0 := b.CreateParam(ir.U32, 0)
    add := b.CreateAdd(v0, v0)
    b.CreateRet(add)
    return g
}

// sampleCheckElimination is E6: repeated nil/bound checks on one MEM.
func sampleCheckElimination() *ir.Graph {
    g := ir.NewGraph()
    bb := g.CreateBlock()
    b := ir.NewBuilder(g)
    b.SetInsertionPoint(bb)

    v0 := b.CreateParam(ir.U32, 0)
    v1 := b.CreateParam(ir.U32, 1)
    elem := b.CreateParam(ir.U32, 2)
    mem := b.CreateMem(ir.U32, b.CreateConstInt(ir.U32, 16))

    b.CreateCheckNil(mem)
    b.CreateCheckBound(mem, v0)
    b.CreateStore(mem, v0, elem)
    b.CreateCheckBound(mem, v1)
    b.CreateStore(mem, v1, elem)
    b.CreateCheckBound(mem, v0)
    b.CreateStore(mem, v0, elem)
    b.CreateCheckNil(mem)
    b.CreateCheckBound(mem, v1)
    b.CreateLoad(mem, v1)
    b.CreateRetVoid()
    return g
}

// sampleSimpleInlining is E8: foo calls bar, bar returns v0 << 7.
func sampleSimpleInlining() *ir.Graph {
    cg := ir.NewCallGraph()
    bar := cg.NewGraph(`bar`)
    barStart := bar.CreateBlock()
    barBody := bar.CreateBlock()
    bb := ir.NewBuilder(bar)
    bb.SetInsertionPoint(barStart)
    barParam := bb.CreateParam(ir.U32, 0)
    bb.CreateBr(barBody)
    bb.SetInsertionPoint(barBody)
    seven := bb.CreateConstInt(ir.U32, 7)
    bb.CreateRet(bb.CreateShl(barParam, seven))

    foo := cg.NewGraph(`foo`)
    fooStart := foo.CreateBlock()
    bf := ir.NewBuilder(foo)
    bf.SetInsertionPoint(fooStart)
    arg := bf.CreateParam(ir.U32, 0)
    call := bf.CreateCallStatic(bar.GetMethodId(), ir.U32, arg)
    one := bf.CreateConstInt(ir.U32, 1)
    bf.CreateRet(bf.CreateAdd(call, one))

    return foo
}
