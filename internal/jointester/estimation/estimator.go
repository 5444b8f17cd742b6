package estimation

import (
	"fmt"
	"time"

	"github.com/armadaproject/jointester/internal/jointester/configuration"
)

const (
	// Average length of a generated word plus its separator.
	avgBytesPerWord = 7
	// Identity, source and key fields of a body record.
	bodyOverheadBytes = 160
	// An instance record has only short fields.
	avgBytesPerInstance = 330
)

type Estimation struct {
	Bodies            int64
	Instances         int64
	TotalRecords      int64
	Batches           int64
	RecordsPerBatch   int
	EstimatedBytes    int64
	CommitWithin      time.Duration
	Backend           configuration.Backend
	ChildMode         configuration.ChildMode
	SenderConcurrency int
}

func Estimate(config configuration.Config) Estimation {
	bodies := int64(config.Corpus.Parents)
	instances := bodies * int64(config.Corpus.ChildrenPerParent)
	groupSize := config.Corpus.ChildrenPerParent + 1
	groupsPerBatch := groupsPerBatch(config.Batch.Threshold, groupSize)

	bytesPerBody := int64(config.Corpus.WordsPerBody)*avgBytesPerWord + bodyOverheadBytes

	return Estimation{
		Bodies:            bodies,
		Instances:         instances,
		TotalRecords:      config.Corpus.TotalRecords(),
		Batches:           ceilDiv(bodies, int64(groupsPerBatch)),
		RecordsPerBatch:   groupsPerBatch * groupSize,
		EstimatedBytes:    bodies*bytesPerBody + instances*avgBytesPerInstance,
		CommitWithin:      config.Batch.CommitWithin,
		Backend:           config.IndexClient.Backend,
		ChildMode:         config.Corpus.ChildMode,
		SenderConcurrency: config.IndexClient.Threads,
	}
}

// groupsPerBatch is the number of whole parent groups buffered before the threshold is reached.
func groupsPerBatch(threshold, groupSize int) int {
	if groupSize <= 0 {
		return 1
	}
	n := (threshold + groupSize - 1) / groupSize
	if n < 1 {
		return 1
	}
	return n
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
