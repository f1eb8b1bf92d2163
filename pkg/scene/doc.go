// Package scene provides the file format for section layouts and the
// snapshot format for computed geometry.
//
// A [Scene] describes a scrollable screen: its viewport and an ordered list
// of sections, each laid out by one of the built-in strategies ("rows",
// "grid" or "mosaic"). Scenes are read from TOML or JSON:
//
//	name = "inbox"
//
//	[viewport]
//	width = 375
//	height = 667
//
//	[[sections]]
//	id = "messages"
//	type = "rows"
//	items = 20
//	self_sizing = true
//	estimated_height = 44
//	separator = "all-but-last"
//	heights = [52, 88, 44]
//
//	[sections.header]
//	height = 28
//	pinned = true
//
// A [Host] turns a scene into a live layout host: it owns one strategy per
// section, answers the data source questions of a layout.Composite and
// applies mutations, returning the batch updates to report.
//
// A [Snapshot] is the JSON wire format of a laid-out scene: the content
// size and every element with its global frame. Snapshots are what the
// pipeline caches and what the renderer draws.
package scene
