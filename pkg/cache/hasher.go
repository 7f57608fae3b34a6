package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"supplynet/pkg/domain"
)

// Fingerprint вычисляет хеш входа оптимизации: графа, спроса и параметров запуска.
// Одинаковый вход в любом порядке построения даёт одинаковый отпечаток.
func Fingerprint(g *domain.Graph, demand domain.Demand, params ...string) string {
	if g == nil {
		return ""
	}

	return QuickHash(canonical(g, demand, params))[:32]
}

// canonical создаёт детерминированное представление входа
func canonical(g *domain.Graph, demand domain.Demand, params []string) []byte {
	var b strings.Builder

	// Узлы
	for _, id := range g.SortedNodeIDs() {
		fmt.Fprintf(&b, "n:%d:%d;", id, g.NodeType(id))
	}

	// Рёбра
	for _, e := range g.SortedEdges() {
		fmt.Fprintf(&b, "e:%d:%d:%.6f:%.6f;", e.From, e.To, e.Length, e.Pheromone)
	}

	// Спрос, только положительные объёмы
	for _, s := range demand.Suppliers() {
		for _, r := range demand.Targets(s) {
			fmt.Fprintf(&b, "d:%d:%d:%.6f;", s, r, demand.Volume(s, r))
		}
	}

	// Параметры
	for _, p := range params {
		fmt.Fprintf(&b, "p:%s;", p)
	}

	return []byte(b.String())
}

// BuildSolveKey строит ключ кэша для результата решения
func BuildSolveKey(fingerprint, algorithm string) string {
	return fmt.Sprintf("solve:%s:%s", algorithm, fingerprint)
}

// QuickHash sha256 данных в hex
func QuickHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
