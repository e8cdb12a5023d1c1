package types

// ProductTrace is the assembled read-side view of one product lineage: the
// product, its event sequences in creation order, and its chain transactions
// in sequence order. It carries no state of its own.
type ProductTrace struct {
	Product            *Product             `json:"product"`
	CollectionEvents   []*CollectionEvent   `json:"collection_events"`
	ProcessingSteps    []*ProcessingStep    `json:"processing_steps"`
	QualityTests       []*QualityTest       `json:"quality_tests"`
	LedgerTransactions []*LedgerTransaction `json:"ledger_transactions"`
}

type DashboardStats struct {
	TotalProducts           int64 `json:"total_products"`
	TotalCollections        int64 `json:"total_collections"`
	TotalProcessing         int64 `json:"total_processing"`
	TotalQualityTests       int64 `json:"total_quality_tests"`
	TotalLedgerTransactions int64 `json:"total_ledger_transactions"`
}

type Dashboard struct {
	Statistics        DashboardStats     `json:"statistics"`
	RecentCollections []*CollectionEvent `json:"recent_collections"`
	RecentProducts    []*Product         `json:"recent_products"`
}
