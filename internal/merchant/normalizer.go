package merchant

import (
	"github.com/tidwall/gjson"

	"github.com/ckaraca/tyharvest/internal/site"
)

// FromListing converts a product's merchantListing substructure into the
// ordered record list: the primary merchant first, then the other merchants
// in source order. Entries without both a merchant id and name are dropped.
func FromListing(listing gjson.Result) []Record {
	var records []Record
	if primary, ok := primaryRecord(listing); ok {
		records = append(records, primary)
	}
	listing.Get("otherMerchants").ForEach(func(_, other gjson.Result) bool {
		if rec, ok := otherRecord(other); ok {
			records = append(records, rec)
		}
		return true
	})
	return records
}

// primaryRecord builds the record for the listing's own merchant. Listing
// fields resolve winner-variant first, then the first variant, with the
// listing-level price as the final price fallback.
func primaryRecord(listing gjson.Result) (Record, bool) {
	m := listing.Get("merchant")
	winner := listing.Get("winnerVariant")
	variant := listing.Get("variants.0")

	id := field(m, "id")
	name := field(m, "name")
	price := firstExisting(winner.Get("price"), variant.Get("price"), listing.Get("price"))

	return newRecord(recordInput{
		merchantType: TypePrimary,
		id:           id,
		name:         name,
		officialName: field(m, "officialName"),
		city:         field(m, "cityName"),
		email:        field(m, "registeredEmailAddress"),
		tax:          field(m, "taxNumber"),
		sellerLink:   site.SellerURL(name, id),
		price:        price,
		listingID:    coalesce(field(winner, "listingId"), field(variant, "listingId")),
		stock:        coalesce(field(winner, "quantity"), field(variant, "quantity")),
		fulfilment:   coalesce(field(winner, "fulfilmentType"), field(variant, "fulfilmentType")),
		tyPlus:       coalesce(field(winner, "isTyPlusEligible"), field(variant, "isTyPlusEligible")),
	})
}

// otherRecord builds a record for one otherMerchants entry. The entry's own
// first variant supplies the listing fields; the price is the entry's own,
// else its first variant's.
func otherRecord(other gjson.Result) (Record, bool) {
	variant := other.Get("variants.0")
	price := firstExisting(other.Get("price"), variant.Get("price"))

	return newRecord(recordInput{
		merchantType: TypeOther,
		id:           field(other, "id"),
		name:         field(other, "name"),
		officialName: field(other, "officialName"),
		city:         field(other, "cityName"),
		email:        field(other, "registeredEmailAddress"),
		tax:          field(other, "taxNumber"),
		sellerLink:   site.AbsoluteURL(field(other, "url")),
		price:        price,
		listingID:    field(variant, "listingId"),
		stock:        field(variant, "quantity"),
		fulfilment:   field(variant, "fulfilmentType"),
		tyPlus:       field(variant, "isTyPlusEligible"),
	})
}

type recordInput struct {
	merchantType Type
	id           string
	name         string
	officialName string
	city         string
	email        string
	tax          string
	sellerLink   string
	price        gjson.Result
	listingID    string
	stock        string
	fulfilment   string
	tyPlus       string
}

// newRecord assembles a fully populated record. A missing merchant id or
// name invalidates the record.
func newRecord(in recordInput) (Record, bool) {
	if in.id == "" || in.name == "" {
		return Record{}, false
	}

	text, value, currency := resolvePrice(in.price)

	link := site.AbsoluteURL(in.sellerLink)
	if link == "" {
		link = site.SellerURL(in.name, in.id)
	}

	return Record{
		Type:            in.merchantType,
		MerchantID:      in.id,
		Name:            in.name,
		OfficialName:    orUnknown(in.officialName),
		City:            orUnknown(in.city),
		RegisteredEmail: orUnknown(in.email),
		TaxNumber:       orUnknown(in.tax),
		SellerLink:      orUnknown(link),
		PriceText:       text,
		PriceValue:      value,
		Currency:        currency,
		ListingID:       orUnknown(in.listingID),
		Stock:           orUnknown(in.stock),
		FulfilmentType:  orUnknown(in.fulfilment),
		TyPlusEligible:  orUnknown(in.tyPlus),
	}, true
}

// resolvePrice resolves the display text, numeric value and currency of a
// price object, preferring the discounted sub-object at every step. An
// absent price yields the sentinel for all three.
func resolvePrice(price gjson.Result) (text, value, currency string) {
	if !price.Exists() || !price.IsObject() {
		return Unknown, Unknown, Unknown
	}
	discounted := price.Get("discountedPrice")

	text = coalesce(field(discounted, "text"), field(price, "text"), field(discounted, "value"))
	value = coalesce(field(discounted, "value"), field(price, "value"))
	currency = coalesce(field(discounted, "currency"), field(price, "currency"))

	return orUnknown(text), orUnknown(value), orUnknown(currency)
}

// field reads an optional scalar as text; "" signals absence. Numbers and
// booleans keep their raw JSON rendering.
func field(r gjson.Result, path string) string {
	v := r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// firstExisting returns the first result that is present and non-null.
func firstExisting(results ...gjson.Result) gjson.Result {
	for _, r := range results {
		if r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func orUnknown(v string) string {
	if v == "" {
		return Unknown
	}
	return v
}
