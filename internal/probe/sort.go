package probe

import "sort"

func sortByLatency(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Latency < results[j].Latency
	})
}
