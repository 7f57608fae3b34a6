package validators

import (
	"fmt"
	"math"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

// DefaultTolerance допустимое расхождение потока на узле
const DefaultTolerance = 0.5

// Виды расхождений
const (
	MismatchSupplier = "supplier"
	MismatchRetail   = "retail"
	MismatchEdge     = "edge"
)

// Mismatch расхождение фактического потока с ожидаемым
type Mismatch struct {
	Kind     string         `json:"kind"`
	Node     int64          `json:"node,omitempty"`
	Edge     domain.EdgeKey `json:"edge,omitempty"`
	Expected float64        `json:"expected"`
	Actual   float64        `json:"actual"`
}

// Diff возвращает actual - expected
func (m Mismatch) Diff() float64 {
	return m.Actual - m.Expected
}

// CheckOptions допуски проверки. Допуск на узле - большее из Tolerance
// и RelTolerance от ожидаемого потока узла.
type CheckOptions struct {
	Tolerance    float64
	RelTolerance float64
}

// allowed допуск для узла с ожидаемым потоком expected
func (o CheckOptions) allowed(expected float64) float64 {
	return math.Max(o.Tolerance, o.RelTolerance*math.Abs(expected))
}

// CheckReport результат проверки баланса
type CheckReport struct {
	Balanced        bool              `json:"balanced"`
	Tolerance       float64           `json:"tolerance"`
	RelTolerance    float64           `json:"rel_tolerance,omitempty"`
	SupplierOutflow map[int64]float64 `json:"supplier_outflow"`
	RetailInflow    map[int64]float64 `json:"retail_inflow"`
	ExpectedOutflow map[int64]float64 `json:"expected_outflow"`
	ExpectedInflow  map[int64]float64 `json:"expected_inflow"`
	Mismatches      []Mismatch        `json:"mismatches,omitempty"`
	NegativeEdges   []domain.EdgeKey  `json:"negative_edges,omitempty"`
	// ErrorPercent сумма |diff| к сумме ожидаемых значений, в процентах
	ErrorPercent float64 `json:"error_percent"`
}

// Check сверяет итоговый поток со спросом с абсолютным допуском tol.
//
// Выход поставщика - сумма потока по исходящим рёбрам, вход точки - по
// входящим. Ожидается полный спрос, включая недостижимые пары. Отрицательная
// tol заменяется на DefaultTolerance.
func Check(g *domain.Graph, demand domain.Demand, tol float64) *CheckReport {
	return CheckWithOptions(g, demand, CheckOptions{Tolerance: tol})
}

// CheckWithOptions как Check, но допуск может расти с объёмом узла.
// Отрицательные допуски: абсолютный заменяется на DefaultTolerance,
// относительный на 0.
func CheckWithOptions(g *domain.Graph, demand domain.Demand, opts CheckOptions) *CheckReport {
	if opts.Tolerance < 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.RelTolerance < 0 {
		opts.RelTolerance = 0
	}
	if g == nil {
		g = domain.NewGraph()
	}
	if demand == nil {
		demand = domain.NewDemand()
	}

	report := &CheckReport{
		Tolerance:       opts.Tolerance,
		RelTolerance:    opts.RelTolerance,
		SupplierOutflow: make(map[int64]float64),
		RetailInflow:    make(map[int64]float64),
		ExpectedOutflow: make(map[int64]float64),
		ExpectedInflow:  make(map[int64]float64),
	}

	var absDiff, expectedTotal float64

	for _, s := range union(g.IDsByType(domain.NodeTypeSupplier), demand.Suppliers()) {
		actual := g.Outflow(s)
		expected := demand.SupplierTotal(s)
		report.SupplierOutflow[s] = actual
		report.ExpectedOutflow[s] = expected
		absDiff += math.Abs(actual - expected)
		expectedTotal += expected
		if math.Abs(actual-expected) > opts.allowed(expected) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: MismatchSupplier, Node: s, Expected: expected, Actual: actual,
			})
		}
	}

	for _, r := range union(g.IDsByType(domain.NodeTypeRetail), demand.Retailers()) {
		actual := g.Inflow(r)
		expected := demand.RetailTotal(r)
		report.RetailInflow[r] = actual
		report.ExpectedInflow[r] = expected
		absDiff += math.Abs(actual - expected)
		expectedTotal += expected
		if math.Abs(actual-expected) > opts.allowed(expected) {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: MismatchRetail, Node: r, Expected: expected, Actual: actual,
			})
		}
	}

	for _, e := range g.SortedEdges() {
		if e.Flow < -domain.Epsilon {
			report.NegativeEdges = append(report.NegativeEdges, e.Key())
			report.Mismatches = append(report.Mismatches, Mismatch{
				Kind: MismatchEdge, Edge: e.Key(), Actual: e.Flow,
			})
		}
	}

	if expectedTotal > 0 {
		report.ErrorPercent = absDiff / expectedTotal * 100
	}
	report.Balanced = len(report.Mismatches) == 0

	return report
}

// Balanced проверяет баланс с допуском DefaultTolerance
func Balanced(g *domain.Graph, demand domain.Demand) bool {
	return Check(g, demand, DefaultTolerance).Balanced
}

// Errors переводит расхождения в ошибки приложения
func (r *CheckReport) Errors() *apperror.ValidationErrors {
	verrs := apperror.NewValidationErrors()

	for _, m := range r.Mismatches {
		switch m.Kind {
		case MismatchEdge:
			verrs.Add(apperror.New(apperror.CodeNegativeFlow,
				fmt.Sprintf("negative flow %.4f on edge %s", m.Actual, m.Edge)).
				WithField(fmt.Sprintf("edges[%s]", m.Edge)))
		default:
			verrs.Add(apperror.New(apperror.CodeFlowImbalance,
				fmt.Sprintf("%s %d: flow %.4f, expected %.4f", m.Kind, m.Node, m.Actual, m.Expected)).
				WithField(fmt.Sprintf("nodes[%d]", m.Node)).
				WithDetails("diff", m.Diff()))
		}
	}

	return verrs
}

// union объединяет два отсортированных списка без повторов
func union(a, b []int64) []int64 {
	result := make([]int64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		var next int64
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			next = a[i]
			i++
		case i >= len(a) || b[j] < a[i]:
			next = b[j]
			j++
		default:
			next = a[i]
			i++
			j++
		}
		if len(result) == 0 || result[len(result)-1] != next {
			result = append(result, next)
		}
	}
	return result
}
