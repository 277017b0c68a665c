package model

import "strings"

// AggregationKey は行名の最初の ':' より前の部分を返す
// ':' を含まない場合は名前全体がキーになる。
func AggregationKey(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}

// Group は同じ集約キーを持つ行の集まり
type Group struct {
	Key     string
	Members []int
}

// GroupByKey は名前を集約キーでまとめる
// グループは最初に出現した順に並ぶ。
func GroupByKey(names []string) []Group {
	index := make(map[string]int)
	var groups []Group
	for i, name := range names {
		key := AggregationKey(name)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, Group{Key: key})
		}
		groups[g].Members = append(groups[g].Members, i)
	}
	return groups
}

// AggregateSum は同じキーを持つ値を合計する（混合比の集約）
func AggregateSum(names []string, values []float64) ([]string, []float64) {
	return aggregate(names, values, func(acc, v float64) float64 { return acc + v })
}

// AggregateMin は同じキーを持つ値の最小値を取る（距離の集約）
func AggregateMin(names []string, values []float64) ([]string, []float64) {
	return aggregate(names, values, func(acc, v float64) float64 {
		if v < acc {
			return v
		}
		return acc
	})
}

func aggregate(names []string, values []float64, combine func(acc, v float64) float64) ([]string, []float64) {
	groups := GroupByKey(names)
	keys := make([]string, len(groups))
	out := make([]float64, len(groups))
	for g, group := range groups {
		keys[g] = group.Key
		acc := values[group.Members[0]]
		for _, m := range group.Members[1:] {
			acc = combine(acc, values[m])
		}
		out[g] = acc
	}
	return keys, out
}
