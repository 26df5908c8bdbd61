package awspricing

import "strings"

// regionCodeToLocation maps region codes to the AWS "location" (marketing)
// names the Pricing API filters on.
var regionCodeToLocation = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"ca-central-1":   "Canada (Central)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-north-1":     "EU (Stockholm)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-east-1":      "Asia Pacific (Hong Kong)",
	"sa-east-1":      "South America (São Paulo)",
}

// ToLocation converts a region code to its marketing name. Values that are
// already marketing names (or unknown codes) pass through unchanged.
func ToLocation(val string) string {
	v := strings.TrimSpace(val)
	if v == "" {
		return ""
	}
	if loc, ok := regionCodeToLocation[v]; ok {
		return loc
	}
	return v
}
