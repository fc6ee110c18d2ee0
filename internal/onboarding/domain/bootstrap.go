package domain

// BootstrapData seeds the first fund and its operator.
type BootstrapData struct {
	FundName         string
	OperatorEmail    string
	OperatorPassword string
}
