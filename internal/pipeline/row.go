package pipeline

import (
	"strings"

	"github.com/ckaraca/tyharvest/internal/catalog"
	"github.com/ckaraca/tyharvest/internal/merchant"
)

// Row is one merchant record joined with its parent product's general
// fields. The field set and order form the stable schema consumed by the
// export and notification collaborators.
type Row struct {
	ProductID         string `json:"Product ID" yaml:"Product ID"`
	ProductName       string `json:"Product Name" yaml:"Product Name"`
	ProductCode       string `json:"Product Code" yaml:"Product Code"`
	CategoryName      string `json:"Category Name" yaml:"Category Name"`
	CategoryHierarchy string `json:"Category Hierarchy" yaml:"Category Hierarchy"`
	CategoryID        string `json:"Category ID" yaml:"Category ID"`
	Brand             string `json:"Brand" yaml:"Brand"`
	ProductURL        string `json:"Product URL" yaml:"Product URL"`
	ImageURLs         string `json:"Image URLs" yaml:"Image URLs"`
	MerchantType      string `json:"Merchant Type" yaml:"Merchant Type"`
	MerchantID        string `json:"Merchant ID" yaml:"Merchant ID"`
	MerchantName      string `json:"Merchant Name" yaml:"Merchant Name"`
	OfficialName      string `json:"officialName" yaml:"officialName"`
	CityName          string `json:"cityName" yaml:"cityName"`
	RegisteredEmail   string `json:"registeredEmailAddress" yaml:"registeredEmailAddress"`
	TaxNumber         string `json:"taxNumber" yaml:"taxNumber"`
	SellerLink        string `json:"sellerLink" yaml:"sellerLink"`
	PriceText         string `json:"Price Text" yaml:"Price Text"`
	PriceValue        string `json:"Price Value" yaml:"Price Value"`
	Currency          string `json:"Currency" yaml:"Currency"`
	ListingID         string `json:"Listing ID" yaml:"Listing ID"`
	Stock             string `json:"Stock" yaml:"Stock"`
	FulfilmentType    string `json:"Fulfilment Type" yaml:"Fulfilment Type"`
	IsTyPlusEligible  string `json:"isTyPlusEligible" yaml:"isTyPlusEligible"`
}

// Headers returns the stable column order.
func Headers() []string {
	return []string{
		"Product ID", "Product Name", "Product Code", "Category Name",
		"Category Hierarchy", "Category ID", "Brand", "Product URL",
		"Image URLs", "Merchant Type", "Merchant ID", "Merchant Name",
		"officialName", "cityName", "registeredEmailAddress", "taxNumber",
		"sellerLink", "Price Text", "Price Value", "Currency", "Listing ID",
		"Stock", "Fulfilment Type", "isTyPlusEligible",
	}
}

// Values returns the row's cells in Headers order.
func (r Row) Values() []string {
	return []string{
		r.ProductID, r.ProductName, r.ProductCode, r.CategoryName,
		r.CategoryHierarchy, r.CategoryID, r.Brand, r.ProductURL,
		r.ImageURLs, r.MerchantType, r.MerchantID, r.MerchantName,
		r.OfficialName, r.CityName, r.RegisteredEmail, r.TaxNumber,
		r.SellerLink, r.PriceText, r.PriceValue, r.Currency, r.ListingID,
		r.Stock, r.FulfilmentType, r.IsTyPlusEligible,
	}
}

// buildRow joins one merchant record with its product's general fields.
func buildRow(product catalog.Product, detail Detail, rec merchant.Record) Row {
	return Row{
		ProductID:         product.ID,
		ProductName:       product.Name,
		ProductCode:       orUnknown(detail.ProductCode),
		CategoryName:      orUnknown(detail.CategoryName),
		CategoryHierarchy: orUnknown(detail.CategoryHierarchy),
		CategoryID:        orUnknown(product.CategoryID),
		Brand:             orUnknown(detail.Brand),
		ProductURL:        product.URL,
		ImageURLs:         imageList(detail, product),
		MerchantType:      string(rec.Type),
		MerchantID:        rec.MerchantID,
		MerchantName:      rec.Name,
		OfficialName:      rec.OfficialName,
		CityName:          rec.City,
		RegisteredEmail:   rec.RegisteredEmail,
		TaxNumber:         rec.TaxNumber,
		SellerLink:        rec.SellerLink,
		PriceText:         rec.PriceText,
		PriceValue:        rec.PriceValue,
		Currency:          rec.Currency,
		ListingID:         rec.ListingID,
		Stock:             rec.Stock,
		FulfilmentType:    rec.FulfilmentType,
		IsTyPlusEligible:  rec.TyPlusEligible,
	}
}

// placeholderRow represents a product whose detail page produced no
// merchant records; every merchant field carries the sentinel.
func placeholderRow(product catalog.Product, detail Detail) Row {
	return buildRow(product, detail, merchant.Record{
		Type:            merchant.Type(merchant.Unknown),
		MerchantID:      merchant.Unknown,
		Name:            merchant.Unknown,
		OfficialName:    merchant.Unknown,
		City:            merchant.Unknown,
		RegisteredEmail: merchant.Unknown,
		TaxNumber:       merchant.Unknown,
		SellerLink:      merchant.Unknown,
		PriceText:       merchant.Unknown,
		PriceValue:      merchant.Unknown,
		Currency:        merchant.Unknown,
		ListingID:       merchant.Unknown,
		Stock:           merchant.Unknown,
		FulfilmentType:  merchant.Unknown,
		TyPlusEligible:  merchant.Unknown,
	})
}

// imageList flattens the detail page's images, falling back to the search
// card's thumbnail, into the pipe-delimited export form.
func imageList(detail Detail, product catalog.Product) string {
	images := detail.Images
	if len(images) == 0 && product.ImageURL != "" {
		images = []string{product.ImageURL}
	}
	if len(images) == 0 {
		return merchant.Unknown
	}
	return strings.Join(images, " | ")
}

func orUnknown(v string) string {
	if v == "" {
		return merchant.Unknown
	}
	return v
}
