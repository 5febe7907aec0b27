package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// SaleMetrics records outcomes of the settlement engine's write path.
type SaleMetrics struct {
	itemsSold      prometheus.Counter
	saleConflicts  prometheus.Counter
	promosApplied  prometheus.Counter
	itemsReclaimed prometheus.Counter
	itemsExpired   prometheus.Counter
	commission     prometheus.Histogram
}

// NewSaleMetrics registers the sale metrics on the provided registerer.
func NewSaleMetrics(reg prometheus.Registerer) *SaleMetrics {
	if reg == nil {
		return &SaleMetrics{}
	}
	itemsSold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "items_sold_total",
		Help: "Items successfully transitioned to sold.",
	})
	saleConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sale_conflicts_total",
		Help: "Sale attempts that lost to a concurrent purchase.",
	})
	promosApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promos_applied_total",
		Help: "Purchases recorded with a promotion code.",
	})
	itemsReclaimed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "items_reclaimed_total",
		Help: "Items handed back to their vendor.",
	})
	itemsExpired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "items_expired_total",
		Help: "Unsold items marked reclaimable by session closure.",
	})
	commission := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_commission_amount",
		Help:    "Commission captured per sale.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
	reg.MustRegister(itemsSold, saleConflicts, promosApplied, itemsReclaimed, itemsExpired, commission)
	return &SaleMetrics{
		itemsSold:      itemsSold,
		saleConflicts:  saleConflicts,
		promosApplied:  promosApplied,
		itemsReclaimed: itemsReclaimed,
		itemsExpired:   itemsExpired,
		commission:     commission,
	}
}

// IncSold increments the sold counter and observes the captured commission.
func (m *SaleMetrics) IncSold(commission decimal.Decimal) {
	if m == nil || m.itemsSold == nil {
		return
	}
	m.itemsSold.Inc()
	value, _ := commission.Float64()
	m.commission.Observe(value)
}

// IncConflict increments the lost-race counter.
func (m *SaleMetrics) IncConflict() {
	if m == nil || m.saleConflicts == nil {
		return
	}
	m.saleConflicts.Inc()
}

// IncPromoApplied increments the promo usage counter.
func (m *SaleMetrics) IncPromoApplied() {
	if m == nil || m.promosApplied == nil {
		return
	}
	m.promosApplied.Inc()
}

// IncReclaimed increments the reclaimed counter.
func (m *SaleMetrics) IncReclaimed() {
	if m == nil || m.itemsReclaimed == nil {
		return
	}
	m.itemsReclaimed.Inc()
}

// AddExpired adds the number of items a session closure transitioned.
func (m *SaleMetrics) AddExpired(count int64) {
	if m == nil || m.itemsExpired == nil {
		return
	}
	m.itemsExpired.Add(float64(count))
}
