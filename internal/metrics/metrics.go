package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 文档与问答核心指标
var (
	DocumentsUploaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuhub_documents_uploaded_total",
		Help: "Total number of uploaded documents",
	})

	DocumentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docuhub_documents_processed_total",
		Help: "Total number of processed documents by result",
	}, []string{"result"})

	ChunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docuhub_chunks_indexed_total",
		Help: "Total number of chunks written to the vector index",
	})

	QuestionsAnswered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docuhub_questions_answered_total",
		Help: "Total number of answered questions by answer source",
	}, []string{"source"})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docuhub_ingest_duration_seconds",
		Help:    "Document ingestion duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	AnswerDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docuhub_answer_duration_seconds",
		Help:    "Question answering duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)
