package model

// Partner types
const (
	PartnerCustomer = "Customer"
	PartnerVendor   = "Vendor"
)

// Partner is a customer or vendor
type Partner struct {
	Base
	Name    string `json:"name" validate:"required,max=100"`
	Type    string `json:"type" validate:"required,oneof=Customer Vendor"`
	Phone   string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address"`
}
