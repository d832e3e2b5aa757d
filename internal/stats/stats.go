// Package stats aggregates per-run event counters.
package stats

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/impresso/impresso-linguistic-processing/internal/logger"
)

// Category labels for run events. Exactly one CONTENT-ITEMS-* outcome is
// counted per record read, so their sum equals the total record count.
const (
	LangFromArg = "LANG-FROM-ARG"
	LangFromLID = "LANG-FROM-LID"
	LangFromDoc = "LANG-FROM-DOC"

	ItemsAdmitted        = "CONTENT-ITEMS-ADMITTED"
	ItemsNoText          = "CONTENT-ITEMS-NO-TEXT"
	ItemsEmpty           = "CONTENT-ITEMS-EMPTY"
	ItemsShort           = "CONTENT-ITEMS-SHORT"
	ItemsLong            = "CONTENT-ITEMS-LONG"
	ItemsNoLang          = "CONTENT-ITEMS-NO-LANG"
	ItemsUnsupportedLang = "CONTENT-ITEMS-UNSUPPORTED-LANG"

	TitleStatusPrefix = "TITLE-STATUS-"
)

// Aggregator is a per-run counter set. It is constructed per run and passed
// to each stage; it is never a process-global. Counters only go up.
type Aggregator struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

// NewAggregator creates an empty counter set backed by a private Prometheus
// registry, so concurrent runs in one process never share state.
func NewAggregator() *Aggregator {
	registry := prometheus.NewRegistry()
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lingproc_run_events_total",
		Help: "Categorized pipeline events for the current run.",
	}, []string{"category"})
	registry.MustRegister(events)

	return &Aggregator{registry: registry, events: events}
}

// Inc increments the counter for a category by one.
func (a *Aggregator) Inc(category string) {
	a.events.WithLabelValues(category).Inc()
}

// Get returns the current count for a category.
func (a *Aggregator) Get(category string) uint64 {
	return a.Snapshot()[category]
}

// Snapshot returns the current category counts.
func (a *Aggregator) Snapshot() map[string]uint64 {
	counts := make(map[string]uint64)
	families, err := a.registry.Gather()
	if err != nil {
		return counts
	}
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			for _, lbl := range m.GetLabel() {
				if lbl.GetName() == "category" {
					counts[lbl.GetValue()] = uint64(m.GetCounter().GetValue())
				}
			}
		}
	}
	return counts
}

// RejectedTotal sums all CONTENT-ITEMS-* rejection outcomes.
func (a *Aggregator) RejectedTotal() uint64 {
	snap := a.Snapshot()
	var total uint64
	for _, c := range []string{
		ItemsNoText, ItemsEmpty, ItemsShort, ItemsLong,
		ItemsNoLang, ItemsUnsupportedLang,
	} {
		total += snap[c]
	}
	return total
}

// LogAll writes every category and its count to the logger, sorted by
// category name. Called once at run end; the counts are not persisted.
func (a *Aggregator) LogAll(log logger.Logger) {
	snap := a.Snapshot()
	categories := make([]string, 0, len(snap))
	for c := range snap {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	for _, c := range categories {
		log.Info("Run statistic",
			logger.String("category", c),
			logger.Uint64("count", snap[c]),
		)
	}
}
