package prometheus

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec

	// Tenant context metrics
	TenantContextMissingCounter prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Ledger metrics
	InventoryMovementsCounter *prometheus.CounterVec
	InventoryRejectedCounter  *prometheus.CounterVec
	ProductStockGauge         *prometheus.GaugeVec

	// Catalog, order and directory metrics
	ProductOperationsCounter  *prometheus.CounterVec
	CategoryOperationsCounter *prometheus.CounterVec
	OrderOperationsCounter    *prometheus.CounterVec
	ShopOperationsCounter     *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics registers the domain metrics under prefix. Later calls are no-ops.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		AuthAttemptsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of authentication attempts by outcome",
			},
			[]string{"outcome"},
		)

		TenantContextMissingCounter = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_tenant_context_missing_total",
				Help: "Total number of requests from accounts without a shop",
			},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)

		InventoryMovementsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_inventory_movements_total",
				Help: "Total number of recorded inventory movements",
			},
			[]string{"movement_type"},
		)

		InventoryRejectedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_inventory_movements_rejected_total",
				Help: "Total number of rejected inventory movements by error code",
			},
			[]string{"code"},
		)

		ProductStockGauge = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: prefix + "_product_stock",
				Help: "Stock quantity of a product after its last movement",
			},
			[]string{"shop_id", "product_id"},
		)

		ProductOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_product_operations_total",
				Help: "Total number of product operations",
			},
			[]string{"operation"},
		)

		CategoryOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_category_operations_total",
				Help: "Total number of category operations",
			},
			[]string{"operation"},
		)

		OrderOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_operations_total",
				Help: "Total number of order operations",
			},
			[]string{"operation"},
		)

		ShopOperationsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_shop_operations_total",
				Help: "Total number of shop and account operations",
			},
			[]string{"operation"},
		)
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordAuthAttempt counts an authentication attempt with its outcome
func RecordAuthAttempt(outcome string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordTenantContextMissing counts a request from an account without a shop
func RecordTenantContextMissing() {
	if TenantContextMissingCounter != nil {
		TenantContextMissingCounter.Inc()
	}
}

// RecordInventoryMovement counts a committed movement and updates the stock gauge
func RecordInventoryMovement(movementType string, shopID, productID uint, balance int) {
	if InventoryMovementsCounter == nil {
		return
	}
	InventoryMovementsCounter.WithLabelValues(movementType).Inc()
	UpdateProductStock(shopID, productID, balance)
}

// RecordInventoryRejected counts a movement refused with the given error code
func RecordInventoryRejected(code string) {
	if InventoryRejectedCounter != nil {
		InventoryRejectedCounter.WithLabelValues(code).Inc()
	}
}

// UpdateProductStock sets the stock gauge for a product
func UpdateProductStock(shopID, productID uint, stock int) {
	if ProductStockGauge == nil {
		return
	}
	ProductStockGauge.WithLabelValues(
		strconv.FormatUint(uint64(shopID), 10),
		strconv.FormatUint(uint64(productID), 10),
	).Set(float64(stock))
}

// ForgetProductStock removes the stock series of a deleted product
func ForgetProductStock(productID uint) {
	if ProductStockGauge == nil {
		return
	}
	ProductStockGauge.DeletePartialMatch(prometheus.Labels{
		"product_id": strconv.FormatUint(uint64(productID), 10),
	})
}

// RecordProductOperation increments the counter for product operations
func RecordProductOperation(operation string) {
	if ProductOperationsCounter != nil {
		ProductOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordCategoryOperation increments the counter for category operations
func RecordCategoryOperation(operation string) {
	if CategoryOperationsCounter != nil {
		CategoryOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordOrderOperation increments the counter for order operations
func RecordOrderOperation(operation string) {
	if OrderOperationsCounter != nil {
		OrderOperationsCounter.WithLabelValues(operation).Inc()
	}
}

// RecordShopOperation increments the counter for shop and account operations
func RecordShopOperation(operation string) {
	if ShopOperationsCounter != nil {
		ShopOperationsCounter.WithLabelValues(operation).Inc()
	}
}
