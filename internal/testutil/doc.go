// Package testutil provides seeded data generators for tests.
//
// This package is intended for use in tests only.
//
//	rng := testutil.NewRNG(seed)
//	data, labels := rng.ClusteredSamples(300, 2, 4, 0.5)
//	input := rng.TrainingInput(100, 0.1)
package testutil
