package simulator

// mixStep combines a simulation seed and a step index into a 64-bit
// value using the public-domain SplitMix64 finalizer, so deterministic-
// mode transition choice is reproducible across platforms without
// depending on map iteration order.
func mixStep(seed, step uint64) uint64 {
	x := seed + step*0x9E3779B97F4A7C15
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}
