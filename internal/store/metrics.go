package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DocumentsSeeded counts sample values written on first read, by key family.
var DocumentsSeeded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "digiplay",
	Subsystem: "store",
	Name:      "documents_seeded_total",
	Help:      "Documents created with sample data on first read.",
}, []string{"family"})

// DocumentsMigrated counts stored values upgraded to a newer schema version.
var DocumentsMigrated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "digiplay",
	Subsystem: "store",
	Name:      "documents_migrated_total",
	Help:      "Documents rewritten at a newer schema version.",
}, []string{"family"})

// Transfers counts parent to child transfers by kind.
var Transfers = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "digiplay",
	Subsystem: "wallet",
	Name:      "transfers_total",
	Help:      "Completed transfers from a parent wallet to a child wallet.",
}, []string{"kind"})
