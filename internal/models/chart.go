package models

// ChartOverlay is one line series drawn over the price chart
type ChartOverlay struct {
	Name   string           `json:"name"` // e.g. "SMA 20"
	Points []IndicatorPoint `json:"points"`
}

// ChartSpec is the serializable chart description handed to the renderer.
// The core never draws; it only produces this structure.
type ChartSpec struct {
	Ticker   string         `json:"ticker"`
	Title    string         `json:"title"`
	Bars     []PriceBar     `json:"bars"`
	Overlays []ChartOverlay `json:"overlays,omitempty"`
	Levels   []FibLevel     `json:"levels,omitempty"` // horizontal retracement lines
}
