package domain

import (
	"fmt"
	"math"
	"slices"
)

// Demand матрица спроса: поставщик -> розничная точка -> объём.
// После построения не изменяется; мутирующие операции возвращают копию.
type Demand map[int64]map[int64]float64

// NewDemand создаёт пустую матрицу спроса
func NewDemand() Demand {
	return make(Demand)
}

// Set задаёт объём для пары (поставщик, точка)
func (d Demand) Set(supplier, retail int64, volume float64) {
	row, ok := d[supplier]
	if !ok {
		row = make(map[int64]float64)
		d[supplier] = row
	}
	row[retail] = volume
}

// Volume возвращает объём спроса для пары
func (d Demand) Volume(supplier, retail int64) float64 {
	return d[supplier][retail]
}

// Suppliers возвращает ID поставщиков по возрастанию
func (d Demand) Suppliers() []int64 {
	ids := make([]int64, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Retailers возвращает все розничные ID, упомянутые в матрице
func (d Demand) Retailers() []int64 {
	seen := make(map[int64]bool)
	for _, row := range d {
		for r := range row {
			seen[r] = true
		}
	}
	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Targets возвращает точки с положительным спросом поставщика по возрастанию
func (d Demand) Targets(supplier int64) []int64 {
	row := d[supplier]
	ids := make([]int64, 0, len(row))
	for r, v := range row {
		if v > 0 {
			ids = append(ids, r)
		}
	}
	slices.Sort(ids)
	return ids
}

// Row возвращает копию вектора спроса поставщика
func (d Demand) Row(supplier int64) map[int64]float64 {
	row := make(map[int64]float64, len(d[supplier]))
	for r, v := range d[supplier] {
		row[r] = v
	}
	return row
}

// SupplierTotal возвращает суммарный спрос поставщика
func (d Demand) SupplierTotal(supplier int64) float64 {
	var total float64
	for _, v := range d[supplier] {
		total += v
	}
	return total
}

// RetailTotal возвращает суммарный спрос точки по всем поставщикам
func (d Demand) RetailTotal(retail int64) float64 {
	var total float64
	for _, row := range d {
		total += row[retail]
	}
	return total
}

// Total возвращает общий объём спроса
func (d Demand) Total() float64 {
	var total float64
	for _, row := range d {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// Clone создаёт глубокую копию матрицы
func (d Demand) Clone() Demand {
	clone := make(Demand, len(d))
	for s := range d {
		clone[s] = d.Row(s)
	}
	return clone
}

// Scale возвращает копию матрицы с объёмами, умноженными на factor
func (d Demand) Scale(factor float64) Demand {
	clone := d.Clone()
	for _, row := range clone {
		for r, v := range row {
			row[r] = math.Max(v*factor, 0)
		}
	}
	return clone
}

// Validate проверяет неотрицательность и конечность объёмов
func (d Demand) Validate() []error {
	var errs []error
	for _, s := range d.Suppliers() {
		row := d[s]
		retail := make([]int64, 0, len(row))
		for r := range row {
			retail = append(retail, r)
		}
		slices.Sort(retail)
		for _, r := range retail {
			v := row[r]
			if !IsFinite(v) {
				errs = append(errs, fmt.Errorf("demand %d->%d is not finite", s, r))
				continue
			}
			if v < 0 {
				errs = append(errs, fmt.Errorf("demand %d->%d is negative: %g", s, r, v))
			}
		}
	}
	return errs
}
