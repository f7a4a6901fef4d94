// Package merchant normalizes the heterogeneous merchant shapes of a
// product's embedded state into canonical offer records.
package merchant

// Unknown is the sentinel substituted for any absent field so every emitted
// record has a uniform, fully populated shape.
const Unknown = "N/A"

// Type distinguishes the listing's primary seller from the other sellers
// offering the same product.
type Type string

const (
	TypePrimary Type = "Primary"
	TypeOther   Type = "Other"
)

// Record is one canonical merchant offer. Every field is always populated:
// a real value or Unknown, never empty. Records missing a merchant id or
// name are discarded before they ever exist.
type Record struct {
	Type            Type
	MerchantID      string
	Name            string
	OfficialName    string
	City            string
	RegisteredEmail string
	TaxNumber       string
	SellerLink      string
	PriceText       string
	PriceValue      string
	Currency        string
	ListingID       string
	Stock           string
	FulfilmentType  string
	TyPlusEligible  string
}
