// Package harness runs scripted garden scenarios against a real engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: threshold_climb
//	description: "Entropy climbs through every threshold and falls back"
//	rand: [0.5]
//	save: '{"saveSlot":"A","stats":{"starved":49}}'
//	steps:
//	  - do: modify
//	    delta: 45
//	  - do: step
//	    frames: 60
//	  - do: choose
//	    index: 0
//	    ok: true
//	assertions:
//	  - type: trace_contains
//	    event: entropy.enter.40
//	  - type: trace_order
//	    events: [entropy.enter.40, entropy.seizure]
//	  - type: trace_count
//	    event: omen.trigger
//	    count: 1
//	  - type: final_state
//	    expect: { entropy: 34.2, stats.omenCount: 1 }
//	  - type: score_recorded
//	    ending: GardenFamine
//
// # Steps
//
//   - modify: ModifyEntropy(delta, source)
//   - step: advance one frame and Step, frames times
//   - advance: advance the clock by ms and Step once
//   - click: Click(x, y)
//   - spawn_seed, feed, tick_seeds, awaken: persistent ecology
//   - click_god: ClickPersistentGod(god)
//   - choose, false_choice: story choices
//   - omen, check_endings, reset, flush
//
// # Deterministic Testing
//
// Every scenario runs against a ManualClock starting at testutil.Epoch,
// sequential entity ids ("seed-1", "god-2"), a scripted random source (or a
// fixed PCG seed) and a fresh in-memory store. The trace is the ordered list
// of every event the binder emitted on its audio channel, which carries
// every event, so traces are stable for golden comparison.
package harness
