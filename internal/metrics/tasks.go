package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	NameTaskMutations       = "task_mutations_total"
	NameDescriptionRequests = "description_requests_total"
	LabelOperation          = "operation"
	LabelSource             = "source"

	SourceGenerated = "generated"
	SourceFallback  = "fallback"

	ResultOK = "ok"
)

var TaskMutations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameTaskMutations,
		Help:      "Task store mutations by outcome",
		Namespace: Namespace,
	},
	[]string{LabelOperation, LabelResult},
)

var DescriptionRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameDescriptionRequests,
		Help:      "AI description requests by where the stored text came from",
		Namespace: Namespace,
	},
	[]string{LabelSource},
)
