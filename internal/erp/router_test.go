package erp

import (
	"net/url"
	"sort"
	"strings"
	"testing"
)

func TestResolveMethodClassification(t *testing.T) {
	cases := []struct {
		resource, op string
		method, norm string
	}{
		{"clientes", "listar", "GET", "listar"},
		{"clientes", "crear", "POST", "crear"},
		{"clientes", "editar", "PUT", "editar"},
		{"productos", "eliminar", "DELETE", "eliminar"},
		{"facturas_venta", "enviar_mail", "POST", "enviar_mail"},
		{"facturas_venta", "consultar_por_id", "GET", "consultar_por_id"},
		{"cuentas_por_pagar", "resumen", "GET", "resumen"},
	}
	for _, tc := range cases {
		method, norm, err := Resolve(tc.resource, tc.op)
		if err != nil {
			t.Fatalf("Resolve(%s, %s): %v", tc.resource, tc.op, err)
		}
		if method != tc.method || norm != tc.norm {
			t.Fatalf("Resolve(%s, %s) = (%s, %s), want (%s, %s)",
				tc.resource, tc.op, method, norm, tc.method, tc.norm)
		}
	}
}

func TestResolveAliases(t *testing.T) {
	cases := []struct {
		resource, op, norm, method string
	}{
		{"clientes", "list", "listar", "GET"},
		{"clientes", "create", "crear", "POST"},
		{"productos", "delete", "eliminar", "DELETE"},
		{"productos", "get_by_code", "consultar_por_codigo", "GET"},
		{"facturas_venta", "send_email", "enviar_mail", "POST"},
		{"catalogos", "document_types", "tipos_comprobante", "GET"},
		{"cuentas_por_pagar", "overdue", "vencidas", "GET"},
		{"clientes", "LISTAR", "listar", "GET"}, // case-insensitive
	}
	for _, tc := range cases {
		method, norm, err := Resolve(tc.resource, tc.op)
		if err != nil {
			t.Fatalf("Resolve(%s, %s): %v", tc.resource, tc.op, err)
		}
		if norm != tc.norm || method != tc.method {
			t.Fatalf("Resolve(%s, %s) = (%s, %s), want (%s, %s)",
				tc.resource, tc.op, method, norm, tc.method, tc.norm)
		}
	}
}

func TestResolveIdempotence(t *testing.T) {
	m1, n1, err1 := Resolve("facturas_venta", "list")
	m2, n2, err2 := Resolve("facturas_venta", "list")
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v / %v", err1, err2)
	}
	if m1 != m2 || n1 != n2 {
		t.Fatalf("Resolve not idempotent: (%s,%s) vs (%s,%s)", m1, n1, m2, n2)
	}
}

func TestResolveUnsupportedOperation(t *testing.T) {
	// clients cannot be deleted in the backend
	_, _, err := Resolve("clientes", "eliminar")
	if err == nil {
		t.Fatal("expected capability error for clientes/eliminar")
	}
	if err.Kind != KindUnsupported {
		t.Fatalf("expected kind %s, got %s", KindUnsupported, err.Kind)
	}
	// the message lists the supported operations alphabetically
	_, listed, found := strings.Cut(err.Message, "supported: ")
	if !found {
		t.Fatalf("error message missing supported list: %s", err.Message)
	}
	if ops := strings.Split(listed, ", "); !sort.StringsAreSorted(ops) {
		t.Fatalf("supported operations not sorted: %v", ops)
	}

	// cash receipts cannot be edited
	if _, _, err := Resolve("recibos_caja", "editar"); err == nil {
		t.Fatal("expected capability error for recibos_caja/editar")
	}
}

func TestResolveUnknownResource(t *testing.T) {
	_, _, err := Resolve("nomina", "listar")
	if err == nil || err.Kind != KindUnsupported {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestMirrorDateFiltersDocumentResource(t *testing.T) {
	q := url.Values{}
	q.Set("created_start", "2026-01-01")
	q.Set("created_end", "2026-01-31")
	MirrorDateFilters("facturas_venta", "listar", q)
	if q.Get("date_start") != "2026-01-01" || q.Get("date_end") != "2026-01-31" {
		t.Fatalf("created_* not mirrored into date_*: %v", q)
	}

	q = url.Values{}
	q.Set("date_start", "2026-02-01")
	MirrorDateFilters("facturas_compra", "listar", q)
	if q.Get("created_start") != "2026-02-01" {
		t.Fatalf("date_* not mirrored into created_*: %v", q)
	}
}

func TestMirrorDateFiltersDueDateResource(t *testing.T) {
	q := url.Values{}
	q.Set("created_start", "2026-03-01")
	MirrorDateFilters("cuentas_por_pagar", "listar", q)
	if q.Get("due_date_start") != "2026-03-01" {
		t.Fatalf("created_* not mirrored into due_date_*: %v", q)
	}
}

func TestMirrorDateFiltersOnlyForListing(t *testing.T) {
	q := url.Values{}
	q.Set("created_start", "2026-01-01")
	MirrorDateFilters("facturas_venta", "consultar_por_id", q)
	if q.Get("date_start") != "" {
		t.Fatalf("non-listing op must not mirror filters: %v", q)
	}
}

func TestMirrorDateFiltersDoesNotOverwrite(t *testing.T) {
	q := url.Values{}
	q.Set("created_start", "2026-01-01")
	q.Set("date_start", "2026-06-01")
	MirrorDateFilters("facturas_venta", "listar", q)
	if q.Get("date_start") != "2026-06-01" {
		t.Fatalf("explicit native key was overwritten: %v", q)
	}
}
