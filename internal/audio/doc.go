// Package audio routes binder notifications to sound playback.
//
// The cue catalog (audio_cues.json) declares the playable cues and a routing
// table keyed by event wire name. Catalogs are checked twice: structurally
// against an embedded CUE schema, then semantically against event.AllNames so
// a route can never listen for an event the binder does not emit.
//
// Router implements event.Notifier and is subscribed to the binder's audio
// channel. It never reads or writes simulation state; the only engine value it
// sees is the entropy reading passed in through WithEntropy.
package audio
