package awspricing

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ItemAttributes is the subset of product attributes the simplified view keeps.
type ItemAttributes struct {
	ServiceCode     string `json:"servicecode,omitempty"`
	Location        string `json:"location,omitempty"`
	InstanceType    string `json:"instanceType,omitempty"`
	OperatingSystem string `json:"operatingSystem,omitempty"`
	Tenancy         string `json:"tenancy,omitempty"`
	PreInstalledSw  string `json:"preInstalledSw,omitempty"`
	CapacityStatus  string `json:"capacitystatus,omitempty"`
	VCPU            string `json:"vcpu,omitempty"`
	Memory          string `json:"memory,omitempty"`
}

// Item is the simplified product view returned by /aws/prices.
type Item struct {
	SKU                  string         `json:"sku"`
	Attributes           ItemAttributes `json:"attributes"`
	OnDemandPriceHourUSD *float64       `json:"ondemand_price_hour_usd"`
}

func attrString(attrs map[string]interface{}, key string) string {
	if attrs == nil {
		return ""
	}
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return ""
}

// ParseOnDemand turns raw PriceList JSON strings into simplified items. Each
// item carries the first hourly OnDemand USD price dimension found, if any.
func ParseOnDemand(raw []string) []Item {
	out := make([]Item, 0, len(raw))
	for _, r := range raw {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(r), &obj); err != nil {
			continue
		}
		product, _ := obj["product"].(map[string]interface{})
		attrs, _ := product["attributes"].(map[string]interface{})
		terms, _ := obj["terms"].(map[string]interface{})

		var priceHr *float64
		walkOnDemandDimensions(terms, func(dim map[string]interface{}) bool {
			unit, _ := dim["unit"].(string)
			if !strings.HasPrefix(strings.ToLower(unit), "hr") {
				return false
			}
			if usd, ok := priceUSD(dim); ok {
				priceHr = &usd
				return true
			}
			return false
		})

		sku, _ := product["sku"].(string)
		out = append(out, Item{
			SKU: sku,
			Attributes: ItemAttributes{
				ServiceCode:     attrString(attrs, "servicecode"),
				Location:        attrString(attrs, "location"),
				InstanceType:    attrString(attrs, "instanceType"),
				OperatingSystem: attrString(attrs, "operatingSystem"),
				Tenancy:         attrString(attrs, "tenancy"),
				PreInstalledSw:  attrString(attrs, "preInstalledSw"),
				CapacityStatus:  attrString(attrs, "capacitystatus"),
				VCPU:            attrString(attrs, "vcpu"),
				Memory:          attrString(attrs, "memory"),
			},
			OnDemandPriceHourUSD: priceHr,
		})
	}
	return out
}

// DecodeRaw unmarshals raw PriceList strings into generic JSON objects for
// the raw=true response. Entries that fail to parse are skipped.
func DecodeRaw(raw []string) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(r), &obj); err != nil {
			continue
		}
		out = append(out, obj)
	}
	return out
}

// minOnDemandUSD collects every OnDemand USD price across all dimensions
// (any unit) and returns the smallest positive one. The pricing feeds
// sometimes carry zeros, so positive values win; if none exist the plain
// minimum is returned.
func minOnDemandUSD(raw []string) *float64 {
	var prices []float64
	for _, r := range raw {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(r), &obj); err != nil {
			continue
		}
		terms, _ := obj["terms"].(map[string]interface{})
		walkOnDemandDimensions(terms, func(dim map[string]interface{}) bool {
			if usd, ok := priceUSD(dim); ok {
				prices = append(prices, usd)
			}
			return false
		})
	}
	return MinNonzeroOrMin(prices)
}

// walkOnDemandDimensions visits every OnDemand price dimension until the
// visitor returns true.
func walkOnDemandDimensions(terms map[string]interface{}, visit func(dim map[string]interface{}) bool) {
	if terms == nil {
		return
	}
	ondemand, _ := terms["OnDemand"].(map[string]interface{})
	for _, term := range ondemand {
		termMap, ok := term.(map[string]interface{})
		if !ok {
			continue
		}
		dims, _ := termMap["priceDimensions"].(map[string]interface{})
		for _, d := range dims {
			dim, ok := d.(map[string]interface{})
			if !ok {
				continue
			}
			if visit(dim) {
				return
			}
		}
	}
}

func priceUSD(dim map[string]interface{}) (float64, bool) {
	ppu, _ := dim["pricePerUnit"].(map[string]interface{})
	switch v := ppu["USD"].(type) {
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	case float64:
		return v, true
	}
	return 0, false
}

// MinNonzeroOrMin picks the smallest positive value, falling back to the
// plain minimum when nothing is positive. Returns nil for an empty slice.
func MinNonzeroOrMin(vals []float64) *float64 {
	var minPos *float64
	var minAll *float64
	for i := range vals {
		v := vals[i]
		if minAll == nil || v < *minAll {
			minAll = &vals[i]
		}
		if v > 0 && (minPos == nil || v < *minPos) {
			minPos = &vals[i]
		}
	}
	if minPos != nil {
		return minPos
	}
	return minAll
}
