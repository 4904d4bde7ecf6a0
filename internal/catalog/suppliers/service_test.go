package suppliers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/almacen-pos/almacen/internal/platform/httpx"
	"github.com/almacen-pos/almacen/internal/shared"
)

type link struct {
	supplierID int64
	productID  int64
}

type memoryRepo struct {
	suppliers map[int64]Supplier
	products  map[int64]SupplierProduct
	links     map[link]decimal.Decimal
}

func newMemoryRepo() *memoryRepo {
	price := decimal.NewFromInt(120)
	return &memoryRepo{
		suppliers: map[int64]Supplier{
			1: {ID: 1, Nombre: "Distribuidora Norte", CreadoEn: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
		products: map[int64]SupplierProduct{
			10: {ID: 10, Name: "Harina", Barcode: "10", Price: &price},
			11: {ID: 11, Name: "Aceite", Barcode: "11"},
		},
		links: make(map[link]decimal.Decimal),
	}
}

func (r *memoryRepo) List(ctx context.Context) ([]Supplier, error) {
	out := []Supplier{}
	for _, s := range r.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, nombre string, contacto *string) (Supplier, error) {
	for _, s := range r.suppliers {
		if s.Nombre == nombre {
			return Supplier{}, shared.ErrDuplicate
		}
	}
	s := Supplier{ID: int64(len(r.suppliers) + 1), Nombre: nombre, Contacto: contacto, CreadoEn: time.Now()}
	r.suppliers[s.ID] = s
	return s, nil
}

func (r *memoryRepo) Assign(ctx context.Context, a Assignment) error {
	if _, ok := r.suppliers[a.ProveedorID]; !ok {
		return shared.ErrNotFound
	}
	for _, id := range a.Productos {
		if _, ok := r.products[id]; !ok {
			return shared.ErrNotFound
		}
	}
	for _, id := range a.Productos {
		r.links[link{a.ProveedorID, id}] = a.Costo
	}
	return nil
}

func (r *memoryRepo) ProductsOf(ctx context.Context, supplierID int64) ([]SupplierProduct, error) {
	out := []SupplierProduct{}
	for l, cost := range r.links {
		if l.supplierID == supplierID {
			p := r.products[l.productID]
			p.Costo = cost
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) Unassigned(ctx context.Context) ([]SupplierProduct, error) {
	out := []SupplierProduct{}
	for id, p := range r.products {
		assigned := false
		for l := range r.links {
			if l.productID == id {
				assigned = true
			}
		}
		if !assigned {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) Catalog(ctx context.Context) ([]CatalogProduct, error) {
	out := []CatalogProduct{}
	for id, p := range r.products {
		c := CatalogProduct{ID: id, Name: p.Name, Barcode: p.Barcode, Price: p.Price}
		for l, cost := range r.links {
			if l.productID == id {
				sid := l.supplierID
				name := r.suppliers[sid].Nombre
				cost := cost
				c.ProveedorID, c.ProveedorNombre, c.Costo = &sid, &name, &cost
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) UpdateCost(ctx context.Context, supplierID, productID int64, costo decimal.Decimal) error {
	key := link{supplierID, productID}
	if _, ok := r.links[key]; !ok {
		return shared.ErrNotFound
	}
	r.links[key] = costo
	return nil
}

func TestAssignAndUpdateCost(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	a, err := svc.Assign(ctx, AssignRequest{ProveedorID: 1, Productos: []int64{10, 10}, Costo: []byte(`"80.5"`)})
	require.NoError(t, err)
	require.Equal(t, []int64{10}, a.Productos)

	products, err := svc.ProductsOf(ctx, 1)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "80.5", products[0].Costo.String())

	unassigned, err := svc.Unassigned(ctx)
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	require.Equal(t, int64(11), unassigned[0].ID)

	require.NoError(t, svc.UpdateCost(ctx, 1, 10, CostRequest{Costo: []byte(`90`)}))
	require.ErrorIs(t, svc.UpdateCost(ctx, 1, 11, CostRequest{Costo: []byte(`90`)}), httpx.ErrNotFound)
	require.ErrorIs(t, svc.UpdateCost(ctx, 1, 10, CostRequest{}), httpx.ErrValidation)
	require.ErrorIs(t, svc.UpdateCost(ctx, 1, 10, CostRequest{Costo: []byte(`-1`)}), httpx.ErrValidation)
	require.ErrorIs(t, svc.UpdateCost(ctx, 1, 10, CostRequest{Costo: []byte(`1e99999999`)}), httpx.ErrValidation)
	require.ErrorIs(t, svc.UpdateCost(ctx, 1, 10, CostRequest{Costo: []byte(`1000000000000`)}), httpx.ErrValidation)
}

func TestAssignValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	for _, req := range []AssignRequest{
		{Productos: []int64{10}},
		{ProveedorID: 1},
		{ProveedorID: 1, Productos: []int64{0}},
	} {
		_, err := svc.Assign(ctx, req)
		require.ErrorIs(t, err, httpx.ErrValidation)
		require.EqualError(t, err, "Datos inválidos")
	}

	_, err := svc.Assign(ctx, AssignRequest{ProveedorID: 9, Productos: []int64{10}})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateSupplier(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	s, err := svc.Create(ctx, CreateRequest{Nombre: " Lácteos Sur "})
	require.NoError(t, err)
	require.Equal(t, "Lácteos Sur", s.Nombre)

	_, err = svc.Create(ctx, CreateRequest{Nombre: "Lácteos Sur"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	_, err = svc.Create(ctx, CreateRequest{Nombre: "  "})
	require.EqualError(t, err, "nombre requerido")
}

func TestSupplierRoutes(t *testing.T) {
	handler := NewHandler(nil, NewService(newMemoryRepo()))
	router := chi.NewRouter()
	router.Route("/api/proveedores", handler.MountRoutes)

	serve := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(http.MethodPost, "/api/proveedores/productos/asignar", `{"proveedor_id":1,"productos":[10],"costo":75}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"proveedor_id":1,"productos":[10]}`, rec.Body.String())

	rec = serve(http.MethodGet, "/api/proveedores/1/productos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":10,"name":"Harina","barcode":"10","price":120,"costo":75}]`, rec.Body.String())

	rec = serve(http.MethodGet, "/api/proveedores/productos/sin-proveedor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":11,"name":"Aceite","barcode":"11","price":null}]`, rec.Body.String())

	rec = serve(http.MethodGet, "/api/proveedores/todos/productos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[
		{"id":11,"name":"Aceite","barcode":"11","price":null,"proveedor_id":null,"proveedor_nombre":null,"costo":null},
		{"id":10,"name":"Harina","barcode":"10","price":120,"proveedor_id":1,"proveedor_nombre":"Distribuidora Norte","costo":75}
	]`, rec.Body.String())

	rec = serve(http.MethodPut, "/api/proveedores/1/productos/10", `{"costo":"82.30"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"proveedor_id":1,"producto_id":10,"costo":82.3}`, rec.Body.String())

	rec = serve(http.MethodGet, "/api/proveedores/x/productos", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(http.MethodGet, "/api/proveedores", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"nombre":"Distribuidora Norte"`)
}
