package courier_test

import (
	"testing"

	"github.com/ordermesh/courier/pkg/courier"
	"github.com/stretchr/testify/assert"
)

func TestShipmentRequest_Validate(t *testing.T) {
	valid := func() *courier.ShipmentRequest {
		return &courier.ShipmentRequest{
			OrderID:         "ORD-1",
			PickupPincode:   "110001",
			DeliveryPincode: "226001",
			WeightGrams:     500,
			PaymentMode:     courier.PaymentPrepaid,
			DeclaredValue:   999,
			Dimensions:      []courier.Dimension{{Count: 1, Length: 10, Width: 10, Height: 10}},
		}
	}

	assert.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*courier.ShipmentRequest)
	}{
		{"missing pickup", func(r *courier.ShipmentRequest) { r.PickupPincode = "" }},
		{"missing delivery", func(r *courier.ShipmentRequest) { r.DeliveryPincode = "" }},
		{"zero weight", func(r *courier.ShipmentRequest) { r.WeightGrams = 0 }},
		{"negative weight", func(r *courier.ShipmentRequest) { r.WeightGrams = -5 }},
		{"bad payment mode", func(r *courier.ShipmentRequest) { r.PaymentMode = "CHEQUE" }},
		{"cod without amount", func(r *courier.ShipmentRequest) {
			r.PaymentMode = courier.PaymentCOD
			r.CODAmount = 0
		}},
		{"zero dimension", func(r *courier.ShipmentRequest) {
			r.Dimensions = []courier.Dimension{{Count: 1, Length: 0, Width: 10, Height: 10}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(req)
			err := req.Validate()
			assert.True(t, courier.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

func TestShipmentRequest_CODRequiresAmount(t *testing.T) {
	req := &courier.ShipmentRequest{
		PickupPincode:   "110001",
		DeliveryPincode: "226001",
		WeightGrams:     500,
		PaymentMode:     courier.PaymentCOD,
		CODAmount:       500,
	}
	assert.NoError(t, req.Validate())
}
