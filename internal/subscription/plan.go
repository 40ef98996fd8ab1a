package subscription

// FeatureSchemaVersion tags stored feature sets, same contract as the order
// ledger's line-item snapshots.
const FeatureSchemaVersion = 1

// FeatureSet is the schema-versioned feature list attached to a plan.
type FeatureSet struct {
	SchemaVersion int      `json:"schema_version"`
	Codes         []string `json:"codes"`
}

func (f FeatureSet) Has(code string) bool {
	for _, c := range f.Codes {
		if c == code {
			return true
		}
	}
	return false
}

type Plan struct {
	ID         string
	Name       string
	PriceCents int
	Currency   string
	Interval   string // month | year

	// ProviderPriceRef is the processor-side price this plan maps to, used
	// when building subscription checkout sessions.
	ProviderPriceRef string

	Features FeatureSet
}
