package service

import "sort"

// maxHintDistance: насколько далеко может быть подсказка по бренду.
const maxHintDistance = 2

// damerauLevenshtein: расстояние с транспозицией соседних символов (OSA).
func damerauLevenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	al, bl := len(ra), len(rb)

	dp := make([][]int, al+1)
	for i := 0; i <= al; i++ {
		dp[i] = make([]int, bl+1)
		dp[i][0] = i
	}
	for j := 0; j <= bl; j++ {
		dp[0][j] = j
	}

	for i := 1; i <= al; i++ {
		for j := 1; j <= bl; j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			// вставка / удаление / замена
			dp[i][j] = min(dp[i-1][j]+1, dp[i][j-1]+1, dp[i-1][j-1]+cost)

			// транспозиция соседних символов
			if i > 1 && j > 1 && ra[i-1] == rb[j-2] && ra[i-2] == rb[j-1] {
				if v := dp[i-2][j-2] + 1; v < dp[i][j] {
					dp[i][j] = v
				}
			}
		}
	}
	return dp[al][bl]
}

// closestKey: ближайший известный ключ производителя для подсказки ревьюеру.
// Это не сопоставление: запись всё равно уходит в ledger.
func closestKey(key string, known []string) string {
	if key == "" || len(known) == 0 {
		return ""
	}
	ks := append([]string(nil), known...)
	sort.Strings(ks)

	best, bestDist := "", maxHintDistance+1
	for _, k := range ks {
		if k == key || k == "" {
			continue
		}
		if d := damerauLevenshtein(key, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
