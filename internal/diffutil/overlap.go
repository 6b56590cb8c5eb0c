package diffutil

import "sort"

// Overlaps reports, for a map of instance -> claimed paths, every path
// claimed by more than one instance, mapped to the sorted list of claiming
// instance ids (spec.md §4.3, consumed by the pipeline's shard-barrier
// validation, C10 §4.10.4).
func Overlaps(claims map[string][]string) map[string][]string {
	byPath := make(map[string][]string)
	for instance, paths := range claims {
		seen := make(map[string]bool, len(paths))
		for _, p := range paths {
			if seen[p] {
				continue
			}
			seen[p] = true
			byPath[p] = append(byPath[p], instance)
		}
	}

	result := make(map[string][]string)
	for path, instances := range byPath {
		if len(instances) > 1 {
			sort.Strings(instances)
			result[path] = instances
		}
	}
	return result
}
