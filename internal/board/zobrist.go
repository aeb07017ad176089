package board

// Zobrist-style hashing, used for positional superko detection and for the
// serialised "history" cursor in gamestate.Game. The hash of a given point
// (size, row, col, color) tuple is derived deterministically from a fixed
// seed via splitmix64, never from process-random state, so that every
// server process hashes a given board position identically — required
// because ko detection is checked against history written by whichever
// process last held the game.
const zobristSeed uint64 = 0x9E3779B97F4A7C15 // golden-ratio constant, fixed across builds

// zobristSeedHi seeds the hash's second 64-bit lane, giving a 128-bit
// digest per spec.md §4.A rather than a single 64-bit splitmix64 lane.
const zobristSeedHi uint64 = 0xD1B54A32D192ED03 // independent fixed constant

// splitmix64 is the standard fast, well-distributed mixer used to derive a
// sequence of pseudo-random values from a seed. See Vigna, "Further
// scramblings of Marsaglia's xorshift generators".
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Hash is a 128-bit Zobrist digest, stable across processes because every
// lane is derived from a fixed compile-time seed rather than process-random
// state.
type Hash [2]uint64

// zobristKey returns the fixed, process-independent key for placing color
// at (row, col) on a board of the given size: two independent splitmix64
// lanes, seeded differently, combined into a 128-bit value.
func zobristKey(size, row, col int, c Color) Hash {
	lo := zobristSeed
	lo = splitmix64(lo ^ uint64(size)*0x9E3779B1)
	lo = splitmix64(lo ^ uint64(row)*0xBF58476D1CE4E5B9)
	lo = splitmix64(lo ^ uint64(col)*0x94D049BB133111EB)
	lo = splitmix64(lo ^ uint64(c))

	hi := zobristSeedHi
	hi = splitmix64(hi ^ uint64(size)*0x94D049BB133111EB)
	hi = splitmix64(hi ^ uint64(row)*0x9E3779B1)
	hi = splitmix64(hi ^ uint64(col)*0xBF58476D1CE4E5B9)
	hi = splitmix64(hi ^ uint64(c)*0xD1B54A32D192ED03)

	return Hash{lo, hi}
}

// Hash returns a stable 128-bit digest of the board's point grid, suitable
// for positional superko comparisons across processes.
func (b *Board) Hash() Hash {
	var h Hash
	for row := 0; row < b.Size; row++ {
		for col := 0; col < b.Size; col++ {
			if c := b.At(row, col); c != Empty {
				k := zobristKey(b.Size, row, col, c)
				h[0] ^= k[0]
				h[1] ^= k[1]
			}
		}
	}
	return h
}
