package models

import "time"

// Article represents one physical inventory unit tracked by the warehouse.
// Descriptive fields are all optional free text; NULL means the field was
// never provided, either manually or by import. Dates are stored in the
// canonical sortable form (yyyy-mm-dd) when the boundary input was
// parseable, otherwise the raw text is preserved as entered.
type Article struct {
	ID           int64   `db:"id" json:"id"`
	Code         *string `db:"code" json:"code,omitempty"`
	Description  *string `db:"description" json:"description,omitempty"`
	Customer     *string `db:"customer" json:"customer,omitempty"`
	Commessa     *string `db:"commessa" json:"commessa,omitempty"`
	OrderRef     *string `db:"order_ref" json:"order_ref,omitempty"`
	Supplier     *string `db:"supplier" json:"supplier,omitempty"`
	Zone         *string `db:"zone" json:"zone,omitempty"`
	Position     *string `db:"position" json:"position,omitempty"`
	ArrivalNo    *string `db:"arrival_no" json:"arrival_no,omitempty"`
	DeliveryNo   *string `db:"delivery_no" json:"delivery_no,omitempty"`
	VoucherNo    *string `db:"voucher_no" json:"voucher_no,omitempty"`
	Protocol     *string `db:"protocol" json:"protocol,omitempty"`
	Status       *string `db:"status" json:"status,omitempty"`
	Notes        *string `db:"notes" json:"notes,omitempty"`
	SerialNo     *string `db:"serial_no" json:"serial_no,omitempty"`
	Weight       *string `db:"weight" json:"weight,omitempty"`
	Pieces       int     `db:"pieces" json:"pieces"`
	Width        float64 `db:"width_m" json:"width_m"`
	Length       float64 `db:"length_m" json:"length_m"`
	Height       float64 `db:"height_m" json:"height_m"`
	Area         float64 `db:"area_sqm" json:"area_sqm"`
	Volume       float64 `db:"volume_cbm" json:"volume_cbm"`
	IntakeDate   *string `db:"intake_date" json:"intake_date,omitempty"`
	OutboundDate *string `db:"outbound_date" json:"outbound_date,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ArticleFilter encapsulates the allowed search parameters for listing
// articles. All filters are AND-combined; an empty value is a no-op.
type ArticleFilter struct {
	ID          *int64
	Code        string
	Description string
	Customer    string
	Commessa    string
	OrderRef    string
	ArrivalNo   string
	Status      string
	Position    string
	VoucherNo   string
	IntakeFrom  string
	IntakeTo    string
	Page        int
	PageSize    int
}

// Empty reports whether no filter is set (ignoring pagination).
func (f ArticleFilter) Empty() bool {
	return f.ID == nil && f.Code == "" && f.Description == "" && f.Customer == "" &&
		f.Commessa == "" && f.OrderRef == "" && f.ArrivalNo == "" && f.Status == "" &&
		f.Position == "" && f.VoucherNo == "" && f.IntakeFrom == "" && f.IntakeTo == ""
}
