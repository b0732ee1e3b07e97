// Package scenario runs scripted sequences of coordinator calls read
// from YAML. It drives loresync-cli simulate and doubles as an
// executable description of propagation behaviour.
//
//	name: tavern brawl
//	subsystems:
//	  - id: world
//	    payload: {day: 1}
//	  - id: combat
//	    payload: {active: false}
//	    require: [active]
//	steps:
//	  - op: propagate
//	    name: start
//	    source: world
//	    targets: [combat]
//	    payload: {active: true}
//	  - op: rollback
//	    ref: start
//	    expect: ignored
package scenario
