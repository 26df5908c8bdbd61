package compare

import "strings"

// awsToAzureRegion maps AWS region codes to Azure armRegionName values.
var awsToAzureRegion = map[string]string{
	"us-east-1":      "eastus",
	"us-east-2":      "eastus2",
	"us-west-1":      "westus",
	"us-west-2":      "westus2",
	"ca-central-1":   "canadacentral",
	"eu-west-1":      "westeurope",
	"eu-west-2":      "uksouth",
	"eu-west-3":      "francecentral",
	"eu-north-1":     "northeurope",
	"eu-central-1":   "germanywestcentral",
	"ap-south-1":     "centralindia",
	"ap-southeast-1": "southeastasia",
	"ap-southeast-2": "australiaeast",
	"ap-northeast-1": "japaneast",
	"ap-northeast-2": "koreacentral",
	"ap-east-1":      "eastasia",
	"sa-east-1":      "brazilsouth",
}

// MapAzureRegion resolves the Azure region for a comparison. An explicit
// override wins; otherwise the AWS region code is mapped, and unknown codes
// pass through unchanged.
func MapAzureRegion(awsRegion, azureRegion string) string {
	if v := strings.TrimSpace(azureRegion); v != "" {
		return v
	}
	code := strings.TrimSpace(awsRegion)
	if mapped, ok := awsToAzureRegion[code]; ok {
		return mapped
	}
	return code
}
