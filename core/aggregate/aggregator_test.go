package aggregate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanquote/core/types"
)

func quote(service string, perVisit, contract int64) types.QuoteBreakdown {
	return types.QuoteBreakdown{
		ServiceID:        service,
		PerVisit:         decimal.NewFromInt(perVisit),
		MonthlyRecurring: decimal.NewFromInt(perVisit),
		FirstPeriodTotal: decimal.NewFromInt(perVisit),
		ContractTotal:    decimal.NewFromInt(contract),
	}
}

func TestPublishReplacesAndKeepsOrder(t *testing.T) {
	a := New("Acme Corp", types.CurrencyUSD)
	a.Publish("a", quote("saniscrub", 250, 3000))
	a.Publish("b", quote("sanipod", 40, 480))
	a.Publish("a", quote("saniscrub", 300, 3600))

	s := a.Summary()
	require.Len(t, s.Services, 2)
	assert.Equal(t, "saniscrub", s.Services[0].ServiceID)
	assert.True(t, s.TotalContract.Equal(decimal.NewFromInt(4080)))
	assert.True(t, s.TotalPerVisit.Equal(decimal.NewFromInt(340)))
	assert.Equal(t, "Acme Corp", s.Name)
}

func TestWithdraw(t *testing.T) {
	a := New("", "")
	a.Publish("a", quote("saniscrub", 250, 3000))
	a.Publish("b", quote("sanipod", 40, 480))
	v := a.Version()

	a.Withdraw("a")
	a.Withdraw("missing")

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, v+1, a.Version())
	assert.True(t, a.Summary().TotalContract.Equal(decimal.NewFromInt(480)))
	assert.Equal(t, types.CurrencyUSD, a.Summary().Currency)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize("empty", types.CurrencyEUR, nil)
	assert.Empty(t, s.Services)
	assert.True(t, s.TotalContract.IsZero())
}

func TestConcurrentPublish(t *testing.T) {
	a := New("load", types.CurrencyUSD)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.Publish(fmt.Sprintf("calc-%d", i), quote("carpet", 10, 100))
		}(i)
	}
	wg.Wait()

	s := a.Summary()
	assert.Len(t, s.Services, 50)
	assert.True(t, s.TotalContract.Equal(decimal.NewFromInt(5000)))
}
