package elementswallet

import (
	"fmt"
	"sort"

	"github.com/tdex-network/walletd/internal/core/domain"
)

// maxCombinationCandidates bounds the number of utxos the best combination
// search runs over, above it the largest utxos are picked greedily.
const maxCombinationCandidates = 12

// selectUtxos selects a subset of the utxos of the given asset covering
// the target amount and returns it along with the change amount. Utxos in
// the exclude set are not considered.
func selectUtxos(
	utxos []utxo, asset string, target uint64, exclude map[string]struct{},
) ([]utxo, uint64, error) {
	candidates := make([]utxo, 0)
	total := uint64(0)
	for _, u := range utxos {
		if u.asset != asset {
			continue
		}
		if _, ok := exclude[u.key()]; ok {
			continue
		}
		candidates = append(candidates, u)
		total += u.value
	}
	if total < target {
		return nil, 0, fmt.Errorf(
			"%w: asset %s, available %d, needed %d",
			domain.ErrInsufficientFunds, asset, total, target,
		)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].value > candidates[j].value
	})

	var indexes []int
	if len(candidates) <= maxCombinationCandidates {
		indexes = bestCombination(values(candidates), target)
	}
	if len(indexes) <= 0 {
		indexes = greedySelection(values(candidates), target)
	}

	selected := make([]utxo, 0, len(indexes))
	amount := uint64(0)
	for _, i := range indexes {
		selected = append(selected, candidates[i])
		amount += candidates[i].value
	}
	return selected, amount - target, nil
}

// bestCombination selects as few items as possible whose sum is at least
// target and at most 10 times target. Items must be sorted by descending
// value. It returns nil if there is no such combination.
func bestCombination(items []uint64, target uint64) []int {
	for size := 1; size <= len(items); size++ {
		if found := combinationOfSize(items, target, size, 0, nil); found != nil {
			return found
		}
	}
	return nil
}

func combinationOfSize(
	items []uint64, target uint64, size, offset int, current []int,
) []int {
	if size == 0 {
		total := uint64(0)
		for _, i := range current {
			total += items[i]
		}
		if total >= target && total <= target*10 {
			return append([]int{}, current...)
		}
		return nil
	}
	for i := offset; i <= len(items)-size; i++ {
		found := combinationOfSize(items, target, size-1, i+1, append(current, i))
		if found != nil {
			return found
		}
	}
	return nil
}

// greedySelection picks the largest items until the target is covered.
func greedySelection(items []uint64, target uint64) []int {
	indexes := make([]int, 0)
	total := uint64(0)
	for i, v := range items {
		if total >= target && len(indexes) > 0 {
			break
		}
		indexes = append(indexes, i)
		total += v
	}
	return indexes
}

func values(utxos []utxo) []uint64 {
	list := make([]uint64, 0, len(utxos))
	for _, u := range utxos {
		list = append(list, u.value)
	}
	return list
}
