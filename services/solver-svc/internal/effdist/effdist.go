// Package effdist provides effective distance models E(Q) with their
// derivatives DE(Q), used by the solvers to turn aggregated edge flow into
// congestion-aware edge length and transport cost.
package effdist

import (
	"fmt"
	"math"

	"supplynet/pkg/apperror"
	"supplynet/pkg/config"
)

// Func is a scalar function of edge flow.
type Func func(q float64) float64

// Model pairs an effective distance function with its derivative.
type Model struct {
	Name string
	E    Func
	DE   Func
}

// Model kinds accepted by FromConfig.
const (
	KindExponential = "exponential"
	KindLinear      = "linear"
	KindBPR         = "bpr"
)

// DefaultStep is the central difference step used by Numeric when h <= 0.
const DefaultStep = 1e-4

// New validates that both callables are present.
func New(e, de Func) (*Model, error) {
	if e == nil {
		return nil, apperror.NewWithField(apperror.CodeNilInput, "effective distance function is nil", "E")
	}
	if de == nil {
		return nil, apperror.NewWithField(apperror.CodeNilInput, "effective distance derivative is nil", "DE")
	}
	return &Model{Name: "custom", E: e, DE: de}, nil
}

// Numeric derives DE from e by a central difference clamped at zero flow:
//
//	DE(q) = (E(q+h) - E(max(q-h, 0))) / (q + h - max(q-h, 0))
func Numeric(e Func, h float64) (*Model, error) {
	if e == nil {
		return nil, apperror.NewWithField(apperror.CodeNilInput, "effective distance function is nil", "E")
	}
	if h <= 0 {
		h = DefaultStep
	}
	de := func(q float64) float64 {
		lo := math.Max(q-h, 0)
		hi := q + h
		return (e(hi) - e(lo)) / (hi - lo)
	}
	return &Model{Name: "numeric", E: e, DE: de}, nil
}

// Exponential builds E(Q) = a + b*exp(-k*Q).
func Exponential(a, b, k float64) *Model {
	return &Model{
		Name: KindExponential,
		E: func(q float64) float64 {
			return a + b*math.Exp(-k*q)
		},
		DE: func(q float64) float64 {
			return -k * b * math.Exp(-k*q)
		},
	}
}

// Linear builds E(Q) = a + b*Q.
func Linear(a, b float64) *Model {
	return &Model{
		Name: KindLinear,
		E: func(q float64) float64 {
			return a + b*q
		},
		DE: func(float64) float64 {
			return b
		},
	}
}

// BPR builds the Bureau of Public Roads travel time t0*(1 + alpha*(Q/c)^beta).
// Negative flow is treated as zero.
func BPR(t0, capacity, alpha, beta float64) (*Model, error) {
	if capacity <= 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
			fmt.Sprintf("bpr capacity must be positive, got %g", capacity), "capacity")
	}
	return &Model{
		Name: KindBPR,
		E: func(q float64) float64 {
			q = math.Max(q, 0)
			return t0 * (1 + alpha*math.Pow(q/capacity, beta))
		},
		DE: func(q float64) float64 {
			q = math.Max(q, 0)
			if q == 0 && beta < 1 {
				return 0
			}
			return t0 * alpha * beta * math.Pow(q/capacity, beta-1) / capacity
		},
	}, nil
}

// Canonical returns 5 + 3*exp(-0.3*Q).
func Canonical() *Model {
	return Exponential(5, 3, 0.3)
}

// Eval returns E(q) and DE(q).
func (m *Model) Eval(q float64) (e, de float64) {
	return m.E(q), m.DE(q)
}

// Cost returns the transport cost E(q)*q of moving q units over one edge.
func (m *Model) Cost(q float64) float64 {
	return m.E(q) * q
}

// FromConfig builds a model from the cost section of the configuration.
// When cfg.Numeric is set the analytical derivative is replaced by Numeric.
func FromConfig(cfg config.CostConfig) (*Model, error) {
	var m *Model
	switch cfg.Kind {
	case KindExponential, "":
		m = Exponential(cfg.Base, cfg.Scale, cfg.Decay)
	case KindLinear:
		m = Linear(cfg.Base, cfg.Slope)
	case KindBPR:
		var err error
		m, err = BPR(cfg.FreeFlow, cfg.Capacity, cfg.Alpha, cfg.Power)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperror.NewWithField(apperror.CodeInvalidConfig,
			fmt.Sprintf("unknown effective distance kind %q", cfg.Kind), "cost.kind")
	}

	if cfg.Numeric {
		numeric, err := Numeric(m.E, cfg.Step)
		if err != nil {
			return nil, err
		}
		numeric.Name = m.Name + "+numeric"
		return numeric, nil
	}
	return m, nil
}

// String describes the model.
func (m *Model) String() string {
	return m.Name
}
