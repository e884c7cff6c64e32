package registry

import "slices"

// Identifier sets inside entity values are kept as sorted slices so that two
// entities with the same membership compare equal and snapshots come out in a
// canonical order without extra sorting passes.

func insertID[T ~string](ids []T, id T) []T {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(slices.Clone(ids), i, id)
}

func removeID[T ~string](ids []T, id T) []T {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(slices.Clone(ids), i, i+1)
}

func containsID[T ~string](ids []T, id T) bool {
	_, found := slices.BinarySearch(ids, id)
	return found
}

func sortedIDs[T ~string](ids []T) []T {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
