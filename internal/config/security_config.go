// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityRead                        // Any valid access token
	SecurityWrite                       // Access token carrying PermissionLedgerWrite
)

// PermissionLedgerWrite must be present in a token's permissions claim to
// mutate allocations or acknowledge alerts.
const PermissionLedgerWrite = "ledger:write"

// EndpointSecurityConfig maps methods to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Health - Public
	"/grpc.health.v1.Health/Check": SecurityPublic,
	"/grpc.health.v1.Health/Watch": SecurityPublic,
	"GET /healthz":                 SecurityPublic,

	// AllocationService - Read
	"/stockledger.v1.AllocationService/Get":  SecurityRead,
	"/stockledger.v1.AllocationService/List": SecurityRead,
	"GET /api/v1/allocations":                SecurityRead,
	"GET /api/v1/allocations/{id}":           SecurityRead,
	"GET /api/v1/alerts":                     SecurityRead,

	// AllocationService - Write
	"/stockledger.v1.AllocationService/Issue":         SecurityWrite,
	"/stockledger.v1.AllocationService/Amend":         SecurityWrite,
	"/stockledger.v1.AllocationService/Delete":        SecurityWrite,
	"/stockledger.v1.AllocationService/MarkExhausted": SecurityWrite,
	"POST /api/v1/allocations":                        SecurityWrite,
	"PATCH /api/v1/allocations/{id}":                  SecurityWrite,
	"DELETE /api/v1/allocations/{id}":                 SecurityWrite,
	"POST /api/v1/allocations/{id}/exhaust":           SecurityWrite,
	"POST /api/v1/alerts/{id}/ack":                    SecurityWrite,
}

// GetSecurityLevel returns the security level for a given method
func GetSecurityLevel(method string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[method]; exists {
		return level
	}
	// Default to highest security for unknown endpoints
	return SecurityWrite
}
