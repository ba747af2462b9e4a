// Package pipeline describes frame chains declaratively and builds them.
//
// A pipeline is an ordered list of named frames. The first frames read base
// tables; every later frame derives from an earlier one by exactly one step:
// filter, select, distinct, group_by or join. One frame is the output, and an
// optional aggregate turns the output into a scalar (or per-group) query.
//
// Pipelines are written in YAML:
//
//	pipelines:
//	  - name: actors
//	    frames:
//	      - {name: events, table: events}
//	      - name: hit
//	        from: events
//	        filter: {column: globaleventid, op: "==", value: 470747760}
//	      - {name: actors, from: hit, select: [actor1name, actor2name]}
//	    output: actors
//
// or in CUE, one struct per pipeline under the top-level pipeline field:
//
//	pipeline: actors: {
//		frames: [{name: "events", table: "events"}, ...]
//		output: "actors"
//	}
//
// CUE files are unified with the closed schema in schema.cue before decoding,
// so misspelled fields are rejected the same way the strict YAML decoder
// rejects them.
package pipeline
