package validators

import (
	"testing"

	"supplynet/pkg/apperror"
	"supplynet/pkg/domain"
)

// balancedSample возвращает эталонную сеть с вручную разложенным потоком
func balancedSample() (*domain.Graph, domain.Demand) {
	g, demand := domain.SampleNetwork()
	routes := []struct {
		path   []int64
		volume float64
	}{
		{[]int64{1, 8}, 5},
		{[]int64{1, 9}, 12},
		{[]int64{2, 5, 8}, 16},
		{[]int64{3, 5, 8}, 6},
		{[]int64{3, 9}, 6},
	}
	for _, r := range routes {
		if err := domain.AugmentPath(g, r.path, r.volume); err != nil {
			panic(err)
		}
	}
	return g, demand
}

func hasCode(errs []*apperror.Error, code apperror.ErrorCode) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func assertCodes(t *testing.T, errs []*apperror.Error, codes ...apperror.ErrorCode) {
	t.Helper()
	for _, code := range codes {
		if !hasCode(errs, code) {
			t.Errorf("expected code %s in %v", code, errs)
		}
	}
}
