// Package pkg provides the libraries behind sectionflow, an incremental
// layout engine for sectioned scroll views.
//
// # Overview
//
// A scroll view is split into sections. Each section is laid out by its own
// strategy (rows, grid or mosaic) and the composite stacks the sections
// vertically, adds separators, gutters and pinned headers, and only
// recomputes what an update invalidated. The pkg directory is organized into
// these areas:
//
//  1. [geom] - Points, sizes and rectangles
//  2. [layout] - The composite and its strategies ([layout/rows],
//     [layout/grid], [layout/mosaic])
//  3. [scene] - Declarative scenes, the host that feeds them to the
//     composite, and snapshots of the resulting geometry
//  4. [script] - The mutation script language and its replayer
//  5. [render] - SVG, PDF and PNG drawings of snapshots
//  6. [pipeline] - Orchestration (load → replay → render) with caching
//  7. [cache], [errors], [observability], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through sectionflow:
//
//	scene.toml + script.sfs
//	         ↓
//	    [scene] package (parse + host)
//	         ↓
//	    [layout] package (prepare, invalidate, query)
//	         ↓
//	    [script] package (replay, verify against rebuild)
//	         ↓
//	    [render] package → SVG/PDF/PNG/JSON output
//
// # Quick Start
//
// Lay a scene out and query the visible elements:
//
//	import (
//	    "github.com/matzehuels/sectionflow/pkg/layout"
//	    "github.com/matzehuels/sectionflow/pkg/scene"
//	)
//
//	sc, _ := scene.ReadFile("inbox.toml")
//	host, _ := scene.NewHost(sc)
//	c := layout.New(host, host.Options()...)
//	defer c.Close()
//	if _, err := scene.Settle(c, host); err != nil {
//	    return err
//	}
//	for _, attr := range c.ElementsIn(host.Bounds()) {
//	    fmt.Println(attr.Key, attr.Frame)
//	}
//
// Or run the whole pipeline:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	result, _ := runner.Execute(ctx, pipeline.Options{
//	    ScenePath:  "inbox.toml",
//	    ScriptPath: "scroll.sfs",
//	    Formats:    []string{"svg"},
//	})
package pkg
