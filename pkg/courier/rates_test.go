package courier_test

import (
	"context"
	"testing"
	"time"

	"github.com/ordermesh/courier/pkg/courier"
	"github.com/ordermesh/courier/pkg/courier/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRateRequest() *courier.ShipmentRequest {
	return &courier.ShipmentRequest{
		OrderID:         "ORD-1001",
		PickupPincode:   "110001",
		DeliveryPincode: "226001",
		WeightGrams:     500,
		DeclaredValue:   500,
		PaymentMode:     courier.PaymentCOD,
		CODAmount:       500,
	}
}

func TestRateAggregator_SortsByPrice(t *testing.T) {
	registry := courier.NewRegistry()

	expensive := mock.New("expensive")
	expensive.RatePrice = 150
	cheap := mock.New("cheap")
	cheap.RatePrice = 60
	mid := mock.New("mid")
	mid.RatePrice = 95

	registry.Register(expensive)
	registry.Register(cheap)
	registry.Register(mid)

	agg := courier.NewRateAggregator(registry)
	quotes, err := agg.GetBestRates(context.Background(), validRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	assert.Equal(t, "cheap", quotes[0].Provider)
	assert.Equal(t, "mid", quotes[1].Provider)
	assert.Equal(t, "expensive", quotes[2].Provider)
	for _, q := range quotes {
		assert.True(t, q.Success)
	}
}

func TestRateAggregator_SlowProviderTimesOut(t *testing.T) {
	registry := courier.NewRegistry()

	fast1 := mock.New("fast-1")
	fast1.RatePrice = 80
	fast2 := mock.New("fast-2")
	fast2.RatePrice = 70
	slow := mock.New("slow")
	slow.Latency = 500 * time.Millisecond

	registry.Register(fast1)
	registry.Register(slow)
	registry.Register(fast2)

	agg := courier.NewRateAggregator(registry,
		courier.WithPerProviderTimeout(50*time.Millisecond),
		courier.WithAggregateTimeout(100*time.Millisecond),
	)

	start := time.Now()
	quotes, err := agg.GetBestRates(context.Background(), validRateRequest())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, quotes, 3, "every configured provider yields exactly one quote")
	assert.Less(t, elapsed, 300*time.Millisecond, "fan-out must respect the aggregate ceiling")

	// Two successes sorted ascending by price.
	assert.True(t, quotes[0].Success)
	assert.True(t, quotes[1].Success)
	assert.Equal(t, "fast-2", quotes[0].Provider)
	assert.Equal(t, "fast-1", quotes[1].Provider)

	// The slow provider trails as a TIMEOUT failure.
	assert.False(t, quotes[2].Success)
	assert.Equal(t, "slow", quotes[2].Provider)
	assert.Equal(t, courier.ReasonTimeout, quotes[2].Reason)
}

func TestRateAggregator_FailedQuotesKeepConfigOrder(t *testing.T) {
	registry := courier.NewRegistry()

	ok := mock.New("ok")
	ok.RatePrice = 99
	failB := mock.New("fail-b")
	failB.RateFailReason = "lane not serviceable"
	failA := mock.New("fail-a")
	failA.RateFailReason = "weight over limit"

	registry.Register(failB)
	registry.Register(ok)
	registry.Register(failA)

	agg := courier.NewRateAggregator(registry)
	quotes, err := agg.GetBestRates(context.Background(), validRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	assert.Equal(t, "ok", quotes[0].Provider)
	assert.Equal(t, "fail-b", quotes[1].Provider, "failures keep registration order")
	assert.Equal(t, "fail-a", quotes[2].Provider)
	assert.Equal(t, "lane not serviceable", quotes[1].Reason)
}

func TestRateAggregator_TieBreakIsConfigOrder(t *testing.T) {
	registry := courier.NewRegistry()

	second := mock.New("second")
	second.RatePrice = 75
	first := mock.New("first")
	first.RatePrice = 75

	registry.Register(second)
	registry.Register(first)

	agg := courier.NewRateAggregator(registry)
	quotes, err := agg.GetBestRates(context.Background(), validRateRequest())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "second", quotes[0].Provider)
	assert.Equal(t, "first", quotes[1].Provider)
}

func TestRateAggregator_InvalidRequest(t *testing.T) {
	registry := courier.NewRegistry()
	registry.Register(mock.New("any"))

	agg := courier.NewRateAggregator(registry)
	req := validRateRequest()
	req.WeightGrams = 0

	_, err := agg.GetBestRates(context.Background(), req)
	assert.True(t, courier.IsValidation(err))
}

func TestRateAggregator_NoProviders(t *testing.T) {
	agg := courier.NewRateAggregator(courier.NewRegistry())

	_, err := agg.GetBestRates(context.Background(), validRateRequest())
	assert.ErrorIs(t, err, courier.ErrProviderNotFound)
}
