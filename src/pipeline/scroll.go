package pipeline

// ScrollThreshold is the scrolled fraction past which the next page is requested
const ScrollThreshold = 0.8

// ScrollPosition is the scroll state reported by the history viewport
type ScrollPosition struct {
	Offset   float64 `json:"scroll_top"`
	Viewport float64 `json:"client_height"`
	Height   float64 `json:"scroll_height"`
}

// Ratio returns (Offset + Viewport) / Height, or 0 when nothing can scroll
func (p ScrollPosition) Ratio() float64 {
	if p.Height <= p.Viewport || p.Height <= 0 {
		return 0
	}
	return (p.Offset + p.Viewport) / p.Height
}

// ShouldLoad reports whether the position asks for another fetch cycle
func ShouldLoad(p ScrollPosition, hasMore, fetching bool) bool {
	return p.Ratio() > ScrollThreshold && hasMore && !fetching
}
