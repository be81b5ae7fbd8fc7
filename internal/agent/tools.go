package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Oscar8918/agente-maf/internal/erp"
	"github.com/Oscar8918/agente-maf/internal/llm"
	"github.com/Oscar8918/agente-maf/internal/telemetry"
)

// toolResources maps the English tool names the model sees to the backend
// resource each one drives.
var toolResources = []struct {
	Tool        string
	Resource    string
	Description string
}{
	{"erp_catalogs", "catalogos", "Consulta catálogos de referencia del ERP (impuestos, listas_precio, bodegas, usuarios, tipos_comprobante, formas_pago, centros_costo). Solo lectura."},
	{"erp_customers", "clientes", "Operaciones sobre clientes del ERP: listar, consultar, crear y editar. No soporta eliminación."},
	{"erp_products", "productos", "CRUD completo de productos del ERP."},
	{"erp_sales_invoices", "facturas_venta", "Facturas de venta: listar, consultar, crear, editar, enviar por correo y consultas auxiliares. Sin eliminación directa."},
	{"erp_purchase_invoices", "facturas_compra", "CRUD completo de facturas de compra (usa supplier, no customer)."},
	{"erp_credit_notes", "notas_credito", "Notas crédito: listar, consultar y crear con motivo DIAN obligatorio."},
	{"erp_quotes", "cotizaciones", "CRUD completo de cotizaciones. No llevan pagos ni van a la DIAN."},
	{"erp_cash_receipts", "recibos_caja", "Recibos de caja: listar, consultar y crear. No se editan ni eliminan por API."},
	{"erp_payment_receipts", "recibos_pago", "Recibos de pago: listar, consultar, crear y eliminar. No se editan."},
	{"erp_journal_vouchers", "comprobantes_contables", "Comprobantes contables: listar, consultar y crear. Débitos y créditos deben estar balanceados."},
	{"erp_accounts_payable", "cuentas_por_pagar", "Cuentas por pagar: solo lectura (listar, por proveedor, por fecha, vencidas, resumen)."},
	{"erp_inventory_categories", "categorias_inventario", "Categorías de inventario: listar, consultar, crear y editar. El id se usa como account_group al crear productos."},
}

// toolParameters is the JSON schema shared by every ERP tool: an operation
// name plus a free-form parameter object.
var toolParameters = json.RawMessage(`{
	"type": "object",
	"properties": {
		"operation": {"type": "string", "description": "Operación a ejecutar, por ejemplo listar, crear, consultar_por_id."},
		"parameters": {"type": "object", "description": "Parámetros de la operación. Directivas: _fields (lista de campos a devolver), _fetch_all (true para traer todas las páginas)."}
	},
	"required": ["operation"]
}`)

// ERPToolset builds the callable tool surface over the remote CRUD client.
type ERPToolset struct {
	client   erp.Fetcher
	cache    Cache
	cacheTTL time.Duration
	budget   int
	pageSize int
	maxPages int
	logger   *log.Logger
}

// ToolsetOptions tunes the pipeline knobs. Zero values fall back to the
// backend defaults.
type ToolsetOptions struct {
	Cache          Cache
	CacheTTL       time.Duration
	ResponseBudget int
	PageSize       int
	MaxPages       int
	Logger         *log.Logger
}

func NewERPToolset(client erp.Fetcher, opts ToolsetOptions) *ERPToolset {
	if opts.ResponseBudget <= 0 {
		opts.ResponseBudget = erp.DefaultResponseBudget
	}
	if opts.PageSize <= 0 {
		opts.PageSize = erp.DefaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = erp.DefaultPageCeiling
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &ERPToolset{
		client:   client,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		budget:   opts.ResponseBudget,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		logger:   opts.Logger,
	}
}

// Tools returns the twelve resource tools in declaration order.
func (ts *ERPToolset) Tools() []Tool {
	out := make([]Tool, 0, len(toolResources))
	for _, tr := range toolResources {
		out = append(out, &erpTool{ts: ts, name: tr.Tool, resource: tr.Resource, description: tr.Description})
	}
	return out
}

type erpTool struct {
	ts          *ERPToolset
	name        string
	resource    string
	description string
}

func (t *erpTool) Spec() llm.ToolDef {
	return llm.ToolDef{Name: t.name, Description: t.description, Parameters: toolParameters}
}

// toolArgs is the envelope every ERP tool receives from the model.
type toolArgs struct {
	Operation  string          `json:"operation"`
	Parameters json.RawMessage `json:"parameters"`
}

func (t *erpTool) Invoke(ctx context.Context, tc TurnContext, args string) string {
	out, outcome := t.ts.execute(ctx, tc, t.name, t.resource, args)
	telemetry.ToolCalls.WithLabelValues(t.name, string(outcome)).Inc()
	return out
}

// execute runs the full pipeline for one tool call: parse, directives,
// validate, resolve, fetch, project, bound. Every failure comes back as
// structured JSON text.
func (ts *ERPToolset) execute(ctx context.Context, tc TurnContext, tool, resource, args string) (string, erp.Outcome) {
	var parsed toolArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return errorText(erp.KindInput, fmt.Sprintf("arguments are not valid JSON: %v", err)), erp.OutcomeError
	}
	if strings.TrimSpace(parsed.Operation) == "" {
		return errorText(erp.KindInput, "operation is required"), erp.OutcomeError
	}

	params, err := decodeParameters(parsed.Parameters)
	if err != nil {
		return errorText(erp.KindInput, err.Error()), erp.OutcomeError
	}

	fields := extractFields(params)
	fetchAll := extractFetchAll(params)

	method, operation, rerr := erp.Resolve(resource, parsed.Operation)
	if rerr != nil {
		return errorJSON(rerr), erp.OutcomeError
	}

	if method == "POST" || method == "PUT" {
		if verr := erp.ValidateBeforeWrite(resource, operation, params); verr != nil {
			body, _ := json.MarshalIndent(map[string]interface{}{"error": map[string]interface{}{
				"kind":       string(erp.KindInput),
				"message":    "validation failed before contacting the backend",
				"validation": verr,
			}}, "", "  ")
			return string(body), erp.OutcomeError
		}
	}

	query, body := partitionParams(method, params)
	erp.MirrorDateFilters(resource, operation, query)

	meta := erp.CallMeta{ThreadID: tc.ThreadID, UserID: tc.UserID, Tool: tool}

	cacheKey := ""
	if ts.cache != nil && resource == "catalogos" && method == "GET" {
		cacheKey = catalogCacheKey(operation, query)
		if cached, ok := ts.cache.Get(ctx, cacheKey); ok {
			return cached, erp.OutcomeSuccess
		}
	}

	var res erp.Result
	r, _ := erp.Lookup(resource)
	if fetchAll && r != nil && r.ListingOps[operation] {
		pageSize := ts.pageSize
		if v := query.Get("page_size"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				pageSize = n
			}
		}
		res = erp.FetchAll(ctx, ts.client, meta, resource, operation, query, pageSize, ts.maxPages)
	} else {
		res = ts.client.Call(ctx, meta, resource, operation, method, query, body)
	}
	if res.Outcome != erp.OutcomeSuccess {
		return errorJSON(res.Err), erp.OutcomeError
	}

	payload := res.Payload
	if len(fields) > 0 {
		payload = erp.Project(payload, fields)
	}
	out := erp.Bound(payload, ts.budget)

	if cacheKey != "" {
		ts.cache.Set(ctx, cacheKey, out, ts.cacheTTL)
	}
	return out, erp.OutcomeSuccess
}

// decodeParameters accepts the parameter payload either as a JSON object or
// as a string holding one, which is how older prompts passed it.
func decodeParameters(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return map[string]interface{}{}, nil
		}
		if err := json.Unmarshal([]byte(s), &obj); err != nil {
			return nil, fmt.Errorf("parameters string is not valid JSON: %v", err)
		}
		return obj, nil
	}
	return nil, fmt.Errorf("parameters must be a JSON object")
}

// extractFields pops the _fields directive (legacy alias _campos). Accepts
// a list of strings or a comma-separated string.
func extractFields(params map[string]interface{}) []string {
	for _, key := range []string{"_fields", "_campos"} {
		v, ok := params[key]
		if !ok {
			continue
		}
		delete(params, key)
		switch val := v.(type) {
		case []interface{}:
			var out []string
			for _, f := range val {
				if s, ok := f.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			return out
		case string:
			var out []string
			for _, f := range strings.Split(val, ",") {
				if f = strings.TrimSpace(f); f != "" {
					out = append(out, f)
				}
			}
			return out
		}
	}
	return nil
}

// extractFetchAll pops the _fetch_all directive (legacy alias _todos).
func extractFetchAll(params map[string]interface{}) bool {
	for _, key := range []string{"_fetch_all", "_todos"} {
		v, ok := params[key]
		if !ok {
			continue
		}
		delete(params, key)
		switch val := v.(type) {
		case bool:
			return val
		case string:
			return strings.EqualFold(val, "true")
		}
	}
	return false
}

// partitionParams splits tool parameters between the query string and the
// request body. Reads and deletes send everything as query parameters;
// writes move the well-known lookup keys out of the body and onto the query
// so the backend can route the write.
func partitionParams(method string, params map[string]interface{}) (url.Values, map[string]interface{}) {
	query := url.Values{}
	if method == "GET" || method == "DELETE" {
		for k, v := range params {
			query.Set(k, paramString(v))
		}
		return query, nil
	}

	body := make(map[string]interface{}, len(params))
	for k, v := range params {
		body[k] = v
	}
	for _, key := range erp.QueryPromotionKeys {
		if v, ok := body[key]; ok {
			query.Set(key, paramString(v))
			delete(body, key)
		}
	}
	return query, body
}

func paramString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// integral floats print without a decimal point
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case bool:
		return fmt.Sprintf("%v", val)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

func catalogCacheKey(operation string, query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("maf:catalog:")
	b.WriteString(operation)
	for _, k := range keys {
		b.WriteString(":")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(query.Get(k))
	}
	return b.String()
}

func errorJSON(e *erp.Error) string {
	return errorText(e.Kind, e.Message)
}

func errorText(kind erp.ErrorKind, message string) string {
	body, _ := json.MarshalIndent(map[string]interface{}{"error": map[string]string{
		"kind":    string(kind),
		"message": message,
	}}, "", "  ")
	return string(body)
}
