package dto

// ProductFailureResponse producto que no pudo procesarse en la corrida.
type ProductFailureResponse struct {
	CompanyID string `json:"company_id"`
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

// SnapshotRunResponse resumen de una corrida del job de snapshots.
type SnapshotRunResponse struct {
	Date      string                   `json:"date"`
	Processed int                      `json:"processed"`
	Succeeded int                      `json:"succeeded"`
	Partial   bool                     `json:"partial"`
	Failures  []ProductFailureResponse `json:"failures,omitempty"`
}
