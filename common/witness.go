package common

import "github.com/nspcc-dev/neo-go/pkg/interop/runtime"

// ErrOwnerWitnessFailed appears when the method must be called by an owner
// of some assets but was not.
const ErrOwnerWitnessFailed = "owner witness check failed"

// CheckOwnerWitness checks witness of the passed owner.
// It panics with ErrOwnerWitnessFailed message on fail.
func CheckOwnerWitness(owner []byte) {
	checkWitnessWithPanic(owner, ErrOwnerWitnessFailed)
}

func checkWitnessWithPanic(account []byte, panicMsg string) {
	if !runtime.CheckWitness(account) {
		panic(panicMsg)
	}
}
