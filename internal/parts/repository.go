package parts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID                string      `json:"id"`
	TenantID          string      `json:"tenantId"`
	ServiceID         string      `json:"serviceId"`
	Status            OrderStatus `json:"status"`
	PartName          string      `json:"partName"`
	PartNumber        string      `json:"partNumber,omitempty"`
	Quantity          int         `json:"quantity"`
	Urgency           string      `json:"urgency"`
	Description       string      `json:"description,omitempty"`
	ActualCost        *string     `json:"actualCost,omitempty"`
	SupplierName      string      `json:"supplierName,omitempty"`
	WarehouseLocation string      `json:"warehouseLocation,omitempty"`
	TechnicianID      *string     `json:"technicianId,omitempty"`
	AdminNotes        string      `json:"adminNotes,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

const orderColumns = `
id, tenant_id, service_id, status, part_name, COALESCE(part_number,''), quantity, urgency,
COALESCE(description,''), actual_cost::text, COALESCE(supplier_name,''),
COALESCE(warehouse_location,''), technician_id, COALESCE(admin_notes,''), created_at, updated_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func Insert(ctx context.Context, tx pgx.Tx, tenantID, serviceID, partName, partNumber string, quantity int, urgency, description string) (*Order, error) {
	const q = `
INSERT INTO spare_part_orders (tenant_id, service_id, status, part_name, part_number, quantity, urgency, description)
VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7)
RETURNING ` + orderColumns + `
`
	return scanOrder(tx.QueryRow(ctx, q, tenantID, serviceID, partName, partNumber, quantity, urgency, description))
}

func (r *Repository) GetByID(ctx context.Context, tenantID, orderID string) (*Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM spare_part_orders
WHERE tenant_id = $1 AND id = $2
`
	return scanOrder(r.db.QueryRow(ctx, q, tenantID, orderID))
}

func GetTx(ctx context.Context, tx pgx.Tx, tenantID, orderID string) (*Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM spare_part_orders
WHERE tenant_id = $1 AND id = $2
`
	return scanOrder(tx.QueryRow(ctx, q, tenantID, orderID))
}

// GetForUpdate locks the order row. Callers must already hold the parent
// service row lock; every mutation takes locks in that order.
func GetForUpdate(ctx context.Context, tx pgx.Tx, tenantID, orderID string) (*Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM spare_part_orders
WHERE tenant_id = $1 AND id = $2
FOR UPDATE
`
	return scanOrder(tx.QueryRow(ctx, q, tenantID, orderID))
}

func UpdateStatus(ctx context.Context, tx pgx.Tx, tenantID, orderID string, next OrderStatus) error {
	const q = `
UPDATE spare_part_orders
SET status = $1, updated_at = NOW()
WHERE tenant_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, string(next), tenantID, orderID)
	return err
}

func SetReceiveMeta(ctx context.Context, tx pgx.Tx, tenantID, orderID string, cost *decimal.Decimal, supplier, location string) error {
	var costStr *string
	if cost != nil {
		s := cost.String()
		costStr = &s
	}
	const q = `
UPDATE spare_part_orders
SET actual_cost = COALESCE(CAST($1 AS numeric), actual_cost),
    supplier_name = COALESCE(NULLIF($2, ''), supplier_name),
    warehouse_location = COALESCE(NULLIF($3, ''), warehouse_location),
    updated_at = NOW()
WHERE tenant_id = $4 AND id = $5
`
	_, err := tx.Exec(ctx, q, costStr, supplier, location, tenantID, orderID)
	return err
}

func SetTechnician(ctx context.Context, tx pgx.Tx, tenantID, orderID, technicianID string) error {
	const q = `
UPDATE spare_part_orders
SET technician_id = $1, updated_at = NOW()
WHERE tenant_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, technicianID, tenantID, orderID)
	return err
}

func AppendAdminNotes(ctx context.Context, tx pgx.Tx, tenantID, orderID, notes string) error {
	if notes == "" {
		return nil
	}
	const q = `
UPDATE spare_part_orders
SET admin_notes = CASE WHEN COALESCE(admin_notes,'') = '' THEN $1
                       ELSE admin_notes || E'\n' || $1 END,
    updated_at = NOW()
WHERE tenant_id = $2 AND id = $3
`
	_, err := tx.Exec(ctx, q, notes, tenantID, orderID)
	return err
}

// StatusesByService feeds NextServiceStatus inside the mutation transaction.
func StatusesByService(ctx context.Context, tx pgx.Tx, serviceID string) ([]OrderStatus, error) {
	const q = `
SELECT status
FROM spare_part_orders
WHERE service_id = $1
`
	rows, err := tx.Query(ctx, q, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderStatus
	for rows.Next() {
		var s OrderStatus
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) ListByService(ctx context.Context, tenantID, serviceID string) ([]Order, error) {
	const q = `
SELECT ` + orderColumns + `
FROM spare_part_orders
WHERE tenant_id = $1 AND service_id = $2
ORDER BY created_at ASC
`
	return r.list(ctx, q, tenantID, serviceID)
}

// PendingItem is a pending order joined with what the admin needs to act on
// it without another lookup.
type PendingItem struct {
	Order
	ServiceDescription string `json:"serviceDescription"`
	ClientName         string `json:"clientName"`
	ApplianceLabel     string `json:"applianceLabel"`
}

func (r *Repository) ListPending(ctx context.Context, tenantID string) ([]PendingItem, error) {
	const q = `
SELECT o.id, o.tenant_id, o.service_id, o.status, o.part_name, COALESCE(o.part_number,''), o.quantity, o.urgency,
       COALESCE(o.description,''), o.actual_cost::text, COALESCE(o.supplier_name,''),
       COALESCE(o.warehouse_location,''), o.technician_id, COALESCE(o.admin_notes,''), o.created_at, o.updated_at,
       COALESCE(s.description,''), c.name, a.brand || ' ' || a.model
FROM spare_part_orders o
JOIN services s ON s.id = o.service_id
JOIN clients c ON c.id = s.client_id
JOIN appliances a ON a.id = s.appliance_id
WHERE o.tenant_id = $1 AND o.status = 'pending'
ORDER BY
  CASE o.urgency WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END,
  o.created_at ASC
`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingItem
	for rows.Next() {
		var it PendingItem
		if err := rows.Scan(
			&it.ID, &it.TenantID, &it.ServiceID, &it.Status, &it.PartName, &it.PartNumber, &it.Quantity, &it.Urgency,
			&it.Description, &it.ActualCost, &it.SupplierName,
			&it.WarehouseLocation, &it.TechnicianID, &it.AdminNotes, &it.CreatedAt, &it.UpdatedAt,
			&it.ServiceDescription, &it.ClientName, &it.ApplianceLabel,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CostLine is one order's share of the parts bill for a service.
type CostLine struct {
	OrderID  string `json:"orderId"`
	PartName string `json:"partName"`
	Quantity int    `json:"quantity"`
	Cost     string `json:"cost"`
}

// CostSummary totals the recorded costs of a service's orders. Orders not
// yet costed (still pending) are listed with a zero line.
func (r *Repository) CostSummary(ctx context.Context, tenantID, serviceID string) ([]CostLine, decimal.Decimal, error) {
	orders, err := r.ListByService(ctx, tenantID, serviceID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]CostLine, 0, len(orders))
	total := decimal.Zero
	for _, o := range orders {
		cost := decimal.Zero
		if o.ActualCost != nil {
			c, err := decimal.NewFromString(*o.ActualCost)
			if err == nil {
				cost = c
			}
		}
		total = total.Add(cost)
		lines = append(lines, CostLine{OrderID: o.ID, PartName: o.PartName, Quantity: o.Quantity, Cost: cost.StringFixed(2)})
	}
	return lines, total, nil
}

// StaleOrder is a pending order that has sat past the reminder threshold.
type StaleOrder struct {
	OrderID    string
	TenantID   string
	TenantName string
	ServiceID  string
	PartName   string
	Quantity   int
	Urgency    string
	CreatedAt  time.Time
}

func (r *Repository) ListStalePending(ctx context.Context, olderThan time.Duration) ([]StaleOrder, error) {
	const q = `
SELECT o.id, o.tenant_id, t.name, o.service_id, o.part_name, o.quantity, o.urgency, o.created_at
FROM spare_part_orders o
JOIN tenants t ON t.id = o.tenant_id
WHERE o.status = 'pending' AND o.created_at < NOW() - $1::interval
ORDER BY o.created_at ASC
`
	interval := olderThan.String()
	rows, err := r.db.Query(ctx, q, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StaleOrder
	for rows.Next() {
		var s StaleOrder
		if err := rows.Scan(&s.OrderID, &s.TenantID, &s.TenantName, &s.ServiceID, &s.PartName, &s.Quantity, &s.Urgency, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrderRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(
		&o.ID, &o.TenantID, &o.ServiceID, &o.Status, &o.PartName, &o.PartNumber, &o.Quantity, &o.Urgency,
		&o.Description, &o.ActualCost, &o.SupplierName,
		&o.WarehouseLocation, &o.TechnicianID, &o.AdminNotes, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func scanOrderRows(rows pgx.Rows) (*Order, error) {
	var o Order
	if err := rows.Scan(
		&o.ID, &o.TenantID, &o.ServiceID, &o.Status, &o.PartName, &o.PartNumber, &o.Quantity, &o.Urgency,
		&o.Description, &o.ActualCost, &o.SupplierName,
		&o.WarehouseLocation, &o.TechnicianID, &o.AdminNotes, &o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &o, nil
}
