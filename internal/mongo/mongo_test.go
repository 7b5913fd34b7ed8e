package mongo

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/appetiteclub/tableside/internal/catalog"
	"github.com/appetiteclub/tableside/internal/order"
	"github.com/appetiteclub/tableside/internal/session"
	"github.com/appetiteclub/tableside/internal/stock"
)

var (
	_ catalog.RestaurantRepo   = (*RestaurantRepo)(nil)
	_ catalog.TableRepo        = (*TableRepo)(nil)
	_ catalog.MenuItemRepo     = (*MenuItemRepo)(nil)
	_ catalog.IngredientRepo   = (*IngredientRepo)(nil)
	_ catalog.StaffRepo        = (*StaffRepo)(nil)
	_ order.OrderRepo          = (*OrderRepo)(nil)
	_ order.Counter            = (*CounterRepo)(nil)
	_ session.TokenStore       = (*TokenRepo)(nil)
	_ stock.IngredientAdjuster = (*IngredientRepo)(nil)
)

type priced struct {
	Price decimal.Decimal `bson:"price"`
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	vw, err := bsonrw.NewBSONValueWriter(buf)
	if err != nil {
		t.Fatalf("NewBSONValueWriter() error = %v", err)
	}
	enc, err := bson.NewEncoder(vw)
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	if err := enc.SetRegistry(Registry()); err != nil {
		t.Fatalf("SetRegistry() error = %v", err)
	}
	if err := enc.Encode(v); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, data []byte, v any) error {
	t.Helper()
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data))
	if err != nil {
		t.Fatalf("NewDecoder() error = %v", err)
	}
	if err := dec.SetRegistry(Registry()); err != nil {
		t.Fatalf("SetRegistry() error = %v", err)
	}
	return dec.Decode(v)
}

func TestDecimalCodecRoundTrip(t *testing.T) {
	want := decimal.RequireFromString("19.95")
	data := encode(t, priced{Price: want})

	raw := bson.Raw(data)
	if got := raw.Lookup("price").Type; got != bson.TypeDecimal128 {
		t.Fatalf("price stored as %s, want decimal128", got)
	}

	var got priced
	if err := decode(t, data, &got); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !got.Price.Equal(want) {
		t.Errorf("Price = %s, want %s", got.Price, want)
	}
}

func TestDecimalCodecDecodesLegacyValues(t *testing.T) {
	d128, _ := primitive.ParseDecimal128("7.25")

	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{name: "decimal128", value: d128, want: "7.25"},
		{name: "string", value: "3.10", want: "3.1"},
		{name: "double", value: 2.5, want: "2.5"},
		{name: "int32", value: int32(4), want: "4"},
		{name: "int64", value: int64(12), want: "12"},
		{name: "null", value: nil, want: "0"},
		{name: "badString", value: "abc", wantErr: true},
		{name: "boolean", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := bson.Marshal(bson.M{"price": tt.value})
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			var got priced
			err = decode(t, data, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Price.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Price = %s, want %s", got.Price, tt.want)
			}
		})
	}
}

func TestOrderDocumentShape(t *testing.T) {
	o := order.NewOrder(uuid.New(), uuid.New())
	o.AddItem(order.OrderItem{MenuItemID: uuid.New(), Name: "Soup", Quantity: 2, UnitPrice: decimal.RequireFromString("4.50")})
	o.Table = &order.TableRef{Number: 3}

	raw := bson.Raw(encode(t, o))

	if _, err := raw.LookupErr("table"); err == nil {
		t.Error("table projection persisted")
	}
	if got := raw.Lookup("total").Type; got != bson.TypeDecimal128 {
		t.Errorf("total stored as %s, want decimal128", got)
	}
	if _, err := raw.LookupErr("items", "0", "unit_price"); err != nil {
		t.Errorf("items not embedded: %v", err)
	}

	var back order.Order
	if err := decode(t, raw, &back); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if back.ID != o.ID || !back.Total.Equal(o.Total) || len(back.Items) != 1 {
		t.Errorf("decoded order = %+v", back)
	}
}

func TestCounterKey(t *testing.T) {
	id := uuid.MustParse("11111111-2222-4333-8444-555555555555")
	if got := counterKey(id, "2026-03-14"); got != "11111111-2222-4333-8444-555555555555:2026-03-14" {
		t.Errorf("counterKey() = %s", got)
	}
}

func TestStatusFilter(t *testing.T) {
	id := uuid.New()
	f := statusFilter(id, []string{"PENDING", "READY"})

	if f["restaurant_id"] != id {
		t.Errorf("restaurant_id = %v, want %v", f["restaurant_id"], id)
	}
	in, ok := f["status"].(bson.M)["$in"].([]string)
	if !ok || len(in) != 2 {
		t.Errorf("status filter = %v", f["status"])
	}
}
