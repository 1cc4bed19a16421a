package delhivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderflow/internal/config"
)

func testCarrier(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(config.DelhiveryConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-token",
		PickupLocation: "Main Warehouse",
		OriginPin:      "400001",
	}, zap.NewNop())
	c.backoff = time.Millisecond
	return c
}

func TestPincodeServiceability_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Serviceability
	}{
		{
			name: "map keyed by pincode with Y/N flags",
			body: `{"560001":{"pre_paid":"Y","cod":"N"}}`,
			want: Serviceability{Serviceable: true, Prepaid: true},
		},
		{
			name: "bare entry object with bool flags",
			body: `{"pre_paid":true,"cod":true}`,
			want: Serviceability{Serviceable: true, Prepaid: true, COD: true},
		},
		{
			name: "array of entries, matching pin wins",
			body: `[{"pin":"110011","pre_paid":"N","cod":"N"},{"pin":"560001","pre_paid":"Y","cod":"Y"}]`,
			want: Serviceability{Serviceable: true, Prepaid: true, COD: true},
		},
		{
			name: "non-serviceable zone marker",
			body: `"NSZ"`,
			want: Serviceability{},
		},
		{
			name: "null body",
			body: `null`,
			want: Serviceability{},
		},
		{
			name: "both flags off",
			body: `{"560001":{"pre_paid":"N","cod":"N"}}`,
			want: Serviceability{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
				assert.Equal(t, "560001", r.URL.Query().Get("filter_codes"))
				w.Write([]byte(tt.body))
			})

			got, err := c.PincodeServiceability(context.Background(), "560001")
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPincodeServiceability_InvalidPin(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid pin")
	})
	_, err := c.PincodeServiceability(context.Background(), "12ab")
	assert.Error(t, err)
}

func TestDo_RetriesOn5xx(t *testing.T) {
	var calls int
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"560001":{"pre_paid":"Y"}}`))
	})

	sv, err := c.PincodeServiceability(context.Background(), "560001")
	assert.NoError(t, err)
	assert.True(t, sv.Serviceable)
	assert.Equal(t, 3, calls)
}

func TestDo_FailsFastOn4xx(t *testing.T) {
	var calls int
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid api token"}`))
	})

	_, err := c.PincodeServiceability(context.Background(), "560001")
	assert.ErrorContains(t, err, "invalid api token")
	assert.Equal(t, 1, calls)
}

func TestDo_GivesUpAfterAllAttempts(t *testing.T) {
	var calls int
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.PincodeServiceability(context.Background(), "560001")
	assert.Error(t, err)
	assert.Equal(t, defaultAttempts, calls)
}

func TestTAT(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expected_delivery_days":3}`))
	})
	days, err := c.TAT(context.Background(), "400001", "560001")
	assert.NoError(t, err)
	assert.Equal(t, 3, days)

	c = testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"something_else":true}`))
	})
	days, err = c.TAT(context.Background(), "400001", "560001")
	assert.NoError(t, err)
	assert.Equal(t, DefaultTATDays, days)
}

func TestBulkWaybill_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{"bare array", `["AWB001","AWB002"]`, []string{"AWB001", "AWB002"}},
		{"object array", `[{"waybill":"AWB001"}]`, []string{"AWB001"}},
		{"waybills key", `{"waybills":["AWB001"]}`, []string{"AWB001"}},
		{"joined string", `"AWB001,AWB002"`, []string{"AWB001", "AWB002"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.BulkWaybill(context.Background(), 2)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty response errors", func(t *testing.T) {
		c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		_, err := c.BulkWaybill(context.Background(), 1)
		assert.Error(t, err)
	})
}

func TestCreateShipment(t *testing.T) {
	var form url.Values
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`{"packages":[{"status":"Success","waybill":"AWB001","reference_id":"REF42"}]}`))
	})

	resp, err := c.CreateShipment(context.Background(), ShipmentRequest{
		OrderID:     42,
		Name:        "Asha Rao",
		Address:     "12 MG Road, Bengaluru, Karnataka",
		Pin:         "560001",
		Phone:       "+91-98765-43210",
		PaymentMode: "COD",
		CODAmount:   decimal.NewFromFloat(1499),
	})
	require.NoError(t, err)
	assert.Equal(t, "AWB001", resp.Waybill)
	assert.Equal(t, "REF42", resp.ShipmentID)
	assert.Contains(t, resp.LabelURL, "/api/p/packing_slip?wbns=AWB001")

	assert.Equal(t, "json", form.Get("format"))
	data := form.Get("data")
	assert.Contains(t, data, `"payment_mode":"COD"`)
	assert.Contains(t, data, `"cod_amount":"1499.00"`)
	assert.Contains(t, data, `"pin":"560001"`)
	// Phone is reduced to the last ten digits.
	assert.Contains(t, data, `"phone":"9876543210"`)
	assert.Contains(t, data, `"weight":500`)
	assert.Contains(t, data, `"hsn_code":"998399"`)
}

func TestCreateShipment_PerPackageFailureInside200(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"packages":[{"status":"Fail","remarks":["ClientWarehouse matching query does not exist"]}]}`))
	})

	_, err := c.CreateShipment(context.Background(), ShipmentRequest{
		OrderID: 42, Name: "Asha", Pin: "560001", PaymentMode: "Pre-paid",
	})
	assert.ErrorContains(t, err, "ClientWarehouse matching query does not exist")
}

func TestCreateShipment_TopLevelErrorFlag(t *testing.T) {
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":true,"rmk":"manifest disabled for client"}`))
	})

	_, err := c.CreateShipment(context.Background(), ShipmentRequest{
		OrderID: 42, Name: "Asha", Pin: "560001", PaymentMode: "Pre-paid",
	})
	assert.ErrorContains(t, err, "manifest disabled for client")
}

func TestCreateShipment_PrepaidOmitsCODAmount(t *testing.T) {
	var data string
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		data = r.PostForm.Get("data")
		w.Write([]byte(`{"packages":[{"status":"Success","waybill":"AWB001"}]}`))
	})

	resp, err := c.CreateShipment(context.Background(), ShipmentRequest{
		OrderID:     42,
		Name:        "Asha Rao",
		Pin:         "560001",
		PaymentMode: "Pre-paid",
		CODAmount:   decimal.NewFromFloat(1499),
	})
	require.NoError(t, err)
	assert.NotContains(t, data, "cod_amount")
	// No carrier reference id: fall back to the order id.
	assert.Equal(t, "42", resp.ShipmentID)
}

func TestCancelShipment(t *testing.T) {
	var gotURL string
	c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		w.Write([]byte(`{"status":true}`))
	})

	err := c.CancelShipment(context.Background(), "AWB001")
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotURL, "/api/p/edit?"))
	assert.Contains(t, gotURL, "waybill=AWB001")
	assert.Contains(t, gotURL, "cancellation=true")
}

func TestTrack(t *testing.T) {
	t.Run("shipment data envelope", func(t *testing.T) {
		c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "AWB001", r.URL.Query().Get("waybill"))
			w.Write([]byte(`{"ShipmentData":[{"Shipment":{
				"Status":{"Status":"In Transit","StatusCode":"UD","StatusLocation":"Bengaluru_Hub","StatusDateTime":"2026-08-25T10:00:00"},
				"Scans":[{"ScanDetail":{"Scan":"Picked Up","ScannedLocation":"Mumbai_Hub","ScanDateTime":"2026-08-24T09:00:00","Instructions":"Bag added"}}]
			}}]}`))
		})

		tr, err := c.Track(context.Background(), "AWB001")
		require.NoError(t, err)
		assert.Equal(t, "In Transit", tr.Status)
		assert.Equal(t, "Bengaluru_Hub", tr.Location)
		require.Len(t, tr.Scans, 1)
		assert.Equal(t, "Picked Up", tr.Scans[0].Status)
	})

	t.Run("flat staging shape", func(t *testing.T) {
		c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"Dispatched","scans":[{"status":"Out for delivery","location":"Bengaluru","time":"2026-08-25"}]}`))
		})

		tr, err := c.Track(context.Background(), "AWB001")
		require.NoError(t, err)
		assert.Equal(t, "Dispatched", tr.Status)
		require.Len(t, tr.Scans, 1)
	})

	t.Run("empty body errors", func(t *testing.T) {
		c := testCarrier(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		})
		_, err := c.Track(context.Background(), "AWB001")
		assert.Error(t, err)
	})
}

func TestUnconfiguredClient(t *testing.T) {
	c := New(config.DelhiveryConfig{}, zap.NewNop())
	assert.False(t, c.Configured())

	_, err := c.PincodeServiceability(context.Background(), "560001")
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = c.CreateShipment(context.Background(), ShipmentRequest{})
	assert.ErrorIs(t, err, errNotConfigured)
	_, err = c.Track(context.Background(), "AWB001")
	assert.ErrorIs(t, err, errNotConfigured)
}
