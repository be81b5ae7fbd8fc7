package erp

// DateFilterFamily names the date-range query keys a resource's list
// operation expects. The backend is inconsistent here: document-dated
// resources filter on date_start/date_end, the rest on created_start/
// created_end, and accounts payable on due_date_start/due_date_end.
type DateFilterFamily int

const (
	FilterCreated DateFilterFamily = iota
	FilterDocumentDate
	FilterDueDate
)

// Resource describes one backend document family: its endpoint path, the
// enumerated set of operations the backend implements for it, the alias
// table for caller-facing operation names, and its date-filter family.
type Resource struct {
	Path       string
	Operations map[string]bool
	Aliases    map[string]string
	DateFilter DateFilterFamily
	// ListingOps are operations whose empty-object responses are ambiguous
	// (zero results vs. silent failure) and whose filters get mirrored.
	ListingOps map[string]bool
}

// commonAliases translate operation names from older tool-prompt versions to
// the names the backend actually expects. Unmapped names pass through.
var commonAliases = map[string]string{
	"list":       "listar",
	"create":     "crear",
	"edit":       "editar",
	"update":     "editar",
	"delete":     "eliminar",
	"void":       "anular",
	"get_by_id":  "consultar_por_id",
	"send_email": "enviar_mail",
}

func ops(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func withCommonAliases(extra map[string]string) map[string]string {
	m := make(map[string]string, len(commonAliases)+len(extra))
	for k, v := range commonAliases {
		m[k] = v
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

var resources = map[string]*Resource{
	"catalogos": {
		Path: "catalogos",
		Operations: ops("impuestos", "listas_precio", "bodegas", "usuarios",
			"tipos_comprobante", "formas_pago", "centros_costo"),
		Aliases: map[string]string{
			"taxes":          "impuestos",
			"price_lists":    "listas_precio",
			"warehouses":     "bodegas",
			"users":          "usuarios",
			"document_types": "tipos_comprobante",
			"payment_types":  "formas_pago",
			"cost_centers":   "centros_costo",
		},
		DateFilter: FilterCreated,
		ListingOps: ops("impuestos", "listas_precio", "bodegas", "usuarios",
			"tipos_comprobante", "formas_pago", "centros_costo"),
	},
	"clientes": {
		Path: "clientes",
		Operations: ops("listar", "consultar_por_id", "consultar_por_identificacion",
			"tipos_documento", "responsabilidades_fiscales", "usuarios", "crear", "editar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_identification": "consultar_por_identificacion"}),
		DateFilter: FilterCreated,
		ListingOps: ops("listar"),
	},
	"productos": {
		Path: "productos",
		Operations: ops("listar", "consultar_por_id", "consultar_por_codigo",
			"grupos_inventario", "impuestos", "bodegas", "crear", "editar", "eliminar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_code": "consultar_por_codigo"}),
		DateFilter: FilterCreated,
		ListingOps: ops("listar"),
	},
	"facturas_venta": {
		Path: "facturas_venta",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_factura_venta", "vendedores", "formas_pago", "impuestos",
			"pdf", "xml", "errores_dian", "crear", "enviar_mail", "editar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre"}),
		DateFilter: FilterDocumentDate,
		ListingOps: ops("listar"),
	},
	"facturas_compra": {
		Path: "facturas_compra",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_factura_compra", "formas_pago", "impuestos", "crear", "editar", "eliminar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre"}),
		DateFilter: FilterDocumentDate,
		ListingOps: ops("listar"),
	},
	"notas_credito": {
		Path: "notas_credito",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_nota_credito", "vendedores", "formas_pago", "impuestos",
			"facturas", "buscar_factura", "pdf", "crear", "editar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre", "find_invoice": "buscar_factura"}),
		DateFilter: FilterDocumentDate,
		ListingOps: ops("listar"),
	},
	"cotizaciones": {
		Path: "cotizaciones",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_cotizacion", "vendedores", "impuestos", "crear", "editar", "eliminar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre"}),
		DateFilter: FilterCreated,
		ListingOps: ops("listar"),
	},
	"recibos_caja": {
		Path: "recibos_caja",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_recibos", "formas_pago", "crear"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre"}),
		DateFilter: FilterCreated,
		ListingOps: ops("listar"),
	},
	"recibos_pago": {
		Path: "recibos_pago",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_recibos", "formas_pago", "crear", "eliminar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre"}),
		DateFilter: FilterCreated,
		ListingOps: ops("listar"),
	},
	"comprobantes_contables": {
		Path: "comprobantes_contables",
		Operations: ops("listar", "consultar_por_id", "consultar_por_nombre",
			"tipos_comprobantes", "cuentas_contables", "impuestos", "centros_costo", "crear"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre"}),
		DateFilter: FilterDocumentDate,
		ListingOps: ops("listar"),
	},
	"cuentas_por_pagar": {
		Path: "cuentas_por_pagar",
		Operations: ops("listar", "consultar_por_proveedor", "consultar_por_fecha",
			"vencidas", "resumen"),
		Aliases: withCommonAliases(map[string]string{
			"by_supplier": "consultar_por_proveedor",
			"by_date":     "consultar_por_fecha",
			"overdue":     "vencidas",
			"summary":     "resumen",
		}),
		DateFilter: FilterDueDate,
		ListingOps: ops("listar"),
	},
	"categorias_inventario": {
		Path: "categorias_inventario",
		Operations: ops("listar", "consultar_por_nombre", "consultar_por_codigo",
			"crear", "editar"),
		Aliases:    withCommonAliases(map[string]string{"get_by_name": "consultar_por_nombre", "get_by_code": "consultar_por_codigo"}),
		DateFilter: FilterCreated,
		ListingOps: ops("listar"),
	},
}

// Lookup returns the registry entry for a resource path.
func Lookup(resource string) (*Resource, bool) {
	r, ok := resources[resource]
	return r, ok
}

// ResourceNames returns the registered resource paths.
func ResourceNames() []string {
	out := make([]string, 0, len(resources))
	for name := range resources {
		out = append(out, name)
	}
	return out
}

// QueryPromotionKeys are body keys the backend expects on the query string
// for POST/PUT operations.
var QueryPromotionKeys = []string{"id", "nombre", "identificacion", "codigo", "nombre_factura"}
