// Package services – payment metrics
//
// Prometheus collectors for the payment pipeline. Label cardinality is kept
// to the confirmation path ("webhook" or "poll") so dashboards can tell which
// half of the dual confirmation channel is doing the work.
package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// ordersCreated counts orders accepted by the order manager.
	ordersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "superchat_orders_created_total",
		Help: "Total number of superchat orders created.",
	})

	// paymentsConfirmed counts terminal transitions won, by confirmation path.
	paymentsConfirmed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "superchat_payments_confirmed_total",
		Help: "Total number of orders moved to a terminal state, by path and status.",
	}, []string{"path", "status"})

	// superchatsMaterialized counts paid messages durably inserted.
	superchatsMaterialized = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "superchat_messages_materialized_total",
		Help: "Total number of paid messages materialized.",
	})

	// duplicateMaterializations counts inserts recovered via the unique
	// guard. A nonzero rate is normal under the webhook/poller race.
	duplicateMaterializations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "superchat_duplicate_materializations_total",
		Help: "Total number of materialize calls that found the row already present.",
	})
)

func init() {
	prometheus.MustRegister(ordersCreated, paymentsConfirmed, superchatsMaterialized, duplicateMaterializations)
}
