package repo

import (
	"reflect"
	"testing"

	"gorm.io/datatypes"

	"mongol-shop/internal/domain"
)

// 模拟写库再读回：Value 的结果交给 Scan
func roundTrip[T any](t *testing.T, j datatypes.JSONType[T]) T {
	t.Helper()
	v, err := j.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	var back datatypes.JSONType[T]
	if err := back.Scan(v); err != nil {
		t.Fatalf("Scan(%v): %v", v, err)
	}
	return back.Data()
}

func TestUserAddressColumn(t *testing.T) {
	addr := &domain.Address{Street: "Peace Ave 1", City: "Ulaanbaatar", Country: "MN"}
	for _, in := range []*domain.Address{nil, addr} {
		m := toUserModel(&domain.User{ID: "u1", Provider: domain.ProviderLocal, Address: in})
		got := roundTrip(t, m.Address)
		if !reflect.DeepEqual(got, in) {
			t.Fatalf("address = %+v, want %+v", got, in)
		}
		if u := toUser(m); !reflect.DeepEqual(u.Address, in) {
			t.Fatalf("toUser address = %+v, want %+v", u.Address, in)
		}
	}
}

func TestProductJSONColumns(t *testing.T) {
	p := &domain.Product{
		ID:         "p1",
		Dimensions: &domain.Dimensions{Length: 30, Width: 20, Height: 5, Unit: "cm"},
	}
	m := toProductModel(p)
	if got := roundTrip(t, m.Dimensions); !reflect.DeepEqual(got, p.Dimensions) {
		t.Fatalf("dimensions = %+v", got)
	}
	// 没填的属性保持 nil，不变成空对象
	if got := roundTrip(t, m.Attributes); got != nil {
		t.Fatalf("attributes = %+v, want nil", got)
	}
}
