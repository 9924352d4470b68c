package training

import (
	"math/rand"
	"sort"
)

// DefaultSeed keeps splits reproducible between runs
const DefaultSeed = 42

// SplitByMatch partitions examples into train and test sets. Whole matches are
// assigned to one side so no chase leaks across the split.
func SplitByMatch(examples []Example, testFraction float64, seed int64) (train, test []Example) {
	seen := make(map[int]struct{})
	var ids []int
	for _, e := range examples {
		if _, ok := seen[e.MatchID]; !ok {
			seen[e.MatchID] = struct{}{}
			ids = append(ids, e.MatchID)
		}
	}
	sort.Ints(ids)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	nTest := int(float64(len(ids))*testFraction + 0.5)
	if nTest >= len(ids) && len(ids) > 1 {
		nTest = len(ids) - 1
	}
	testIDs := make(map[int]struct{}, nTest)
	for _, id := range ids[:nTest] {
		testIDs[id] = struct{}{}
	}

	for _, e := range examples {
		if _, ok := testIDs[e.MatchID]; ok {
			test = append(test, e)
		} else {
			train = append(train, e)
		}
	}
	return train, test
}
