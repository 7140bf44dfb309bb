package constants

// Department codes used to scope stored records.
const (
	DeptCCS     = "CCS"
	DeptCHTM    = "CHTM"
	DeptCBA     = "CBA"
	DeptCTE     = "CTE"
	DeptCOE     = "COE"
	DeptCON     = "CON"
	DeptCAS     = "CAS"
	DeptAdmin   = "ADMIN"
	DeptUnknown = "UNKNOWN"
)
