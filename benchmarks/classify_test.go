package benchmarks

import (
	"testing"

	"github.com/randalmurphal/flowmend/pkg/flowmend/classify"
)

var conflictBodies = []struct {
	status int
	body   string
}{
	{409, "Processor 0a1b2c3d is currently running"},
	{409, "Cannot delete because 0a1b2c3d is the source of active connections"},
	{409, "Connection 9f8e7d6c has an active flowfile queue with 12000 flowfiles"},
	{409, "[0a1b2c3d] is not the most up-to-date revision. This component appears to have been modified"},
	{404, "Unable to locate processor with id 0a1b2c3d"},
	{403, "Access is denied"},
	{409, "Node disconnected from cluster"},
	{500, "Internal server error"},
}

// BenchmarkClassify measures conflict classification across the body
// pattern families.
func BenchmarkClassify(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := conflictBodies[i%len(conflictBodies)]
		_ = classify.Classify(c.status, c.body)
	}
}

// BenchmarkClassify_WorstCase measures a long 409 body that matches no
// pattern, forcing every pattern family to be scanned.
func BenchmarkClassify_WorstCase(b *testing.B) {
	body := "The request cannot be completed because the referenced component " +
		"belongs to a versioned flow that is currently under a different " +
		"coordination protocol and the node is awaiting cluster election results"

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = classify.Classify(409, body)
	}
}
