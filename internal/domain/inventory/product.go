package inventory

// Nutrition holds per-serving macro data as returned by phase 1 of the
// ingestion protocol. Schema details beyond these fields are the backend's
// concern.
type Nutrition struct {
	ServingSize float64 `json:"serving_size"`
	ServingUnit string  `json:"serving_unit"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
}

// ProductSnapshot is the product data captured when phase 1 succeeds. It is
// a point-in-time copy; post-phase-1 the backend record is the source of truth.
type ProductSnapshot struct {
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Nutrition Nutrition `json:"nutrition"`
}
