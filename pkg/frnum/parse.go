package frnum

import "math"

// Parse returns the integer denoted by an ordered sequence of French number
// words, e.g. ["deux", "mille", "cinq", "cents"] → 2500.
//
// Parse never fails. "et" is skipped, words outside the lexicon are ignored,
// and an empty sequence yields 0. The result is never negative: arithmetic
// saturates at [math.MaxInt64] for absurd inputs such as a long chain of
// "cent".
//
// Two accumulators drive the scan. current holds the group below one
// thousand that is being built; result holds everything already folded at a
// mille/million/milliard boundary.
//
//   - A unit adds to current. "quatre" directly followed by "vingt" or
//     "vingts" adds 80 and consumes both words.
//   - "cent" sets current to 100 when empty, otherwise multiplies it, so
//     hundreds nest inside a thousands block ("neuf cent" = 900).
//   - mille/million/milliard multiply current (or 1 when empty), add the
//     product to result and reset current. Blocks are independent:
//     "deux mille cinq cents" is 2000 + 500.
//   - A stray "vingts" without "quatre" adds 20.
func Parse(words []string) int64 {
	var result, current int64

	for i := 0; i < len(words); i++ {
		w := normalize(words[i])
		if w == wordEt {
			continue
		}

		// quatre-vingt(s) must be caught before "quatre" is added as 4.
		if w == wordQuatre && i+1 < len(words) {
			if next := normalize(words[i+1]); next == wordVingt || next == wordVingts {
				current = satAdd(current, 80)
				i++
				continue
			}
		}

		kind, value := classify(w)
		switch {
		case kind == KindUnit:
			current = satAdd(current, value)
		case w == wordCent || w == wordCents:
			if current == 0 {
				current = 100
			} else {
				current = satMul(current, 100)
			}
		case kind == KindVingts:
			current = satAdd(current, value)
		case kind == KindMultiplier:
			group := current
			if group == 0 {
				group = 1
			}
			result = satAdd(result, satMul(group, value))
			current = 0
		}
	}

	return satAdd(result, current)
}

// satAdd returns a+b for non-negative operands, clamped to math.MaxInt64.
func satAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// satMul returns a*b for non-negative operands with b > 0, clamped to
// math.MaxInt64.
func satMul(a, b int64) int64 {
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
