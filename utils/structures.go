package utils

// Create a map from array with kf providing keys, values are array elements
func ArrayToMap[T any, K comparable](ts []T, kf func(T) K) map[K]T {
	result := make(map[K]T)
	for _, t := range ts {
		result[kf(t)] = t
	}
	return result
}

func SetFromArray[T comparable](ts []T) map[T]bool {
	result := make(map[T]bool, len(ts))
	for _, t := range ts {
		result[t] = true
	}
	return result
}

func Keys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func Max[T int | int64 | uint64](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Min[T int | int64 | uint64](a, b T) T {
	if a < b {
		return a
	}
	return b
}
