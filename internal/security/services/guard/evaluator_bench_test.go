package guard

import (
	"fmt"
	"testing"

	"github.com/haukened/cd-security/internal/security/common/log"
	"github.com/haukened/cd-security/internal/security/domain"
)

func benchList(n int) domain.BlockList {
	list := make(domain.BlockList, n)
	for i := range list {
		list[i] = domain.BlockEntry{
			Username: fmt.Sprintf("spammer%d", i),
			Domain:   fmt.Sprintf("junk%d.example", i),
		}
	}
	return list
}

func BenchmarkEvaluate_Allowed(b *testing.B) {
	list := benchList(1000)
	c := domain.Candidate{Login: "alice", Email: "alice@good.example", RegisteredAt: validDate}
	logger := log.NewNoopLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate(c, list, logger)
	}
}

func BenchmarkEvaluate_BlockedAtEnd(b *testing.B) {
	list := benchList(1000)
	c := domain.Candidate{Login: "bob", Email: "bob@JUNK999.example", RegisteredAt: validDate}
	logger := log.NewNoopLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate(c, list, logger)
	}
}
