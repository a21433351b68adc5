package models

import "time"

// View is the dashboard tab a session has selected.
type View string

const (
	ViewVisualization View = "visualization"
	ViewInsights      View = "insights"
	ViewProfile       View = "profile"
	ViewAnimation     View = "animation"
	ViewPresentation  View = "presentation"
)

// Views lists every view in tab order.
func Views() []View {
	return []View{ViewVisualization, ViewInsights, ViewProfile, ViewAnimation, ViewPresentation}
}

// Valid reports whether v is a known view.
func (v View) Valid() bool {
	for _, known := range Views() {
		if v == known {
			return true
		}
	}
	return false
}

// DatasetSummary is the sidebar summary of the loaded dataset.
type DatasetSummary struct {
	FileID             string   `json:"fileId,omitempty"`
	Name               string   `json:"name"`
	Rows               int      `json:"rows"`
	Columns            []string `json:"columns"`
	NumericColumns     []string `json:"numericColumns"`
	CategoricalColumns []string `json:"categoricalColumns"`
	DateColumns        []string `json:"dateColumns"`
}

// SessionSummary describes a session to the frontend.
type SessionSummary struct {
	ID             string          `json:"id"`
	ActiveView     View            `json:"activeView"`
	Dataset        *DatasetSummary `json:"dataset,omitempty"`
	HasInsights    bool            `json:"hasInsights"`
	InsightsError  string          `json:"insightsError,omitempty"`
	Visualizations int             `json:"visualizations"`
	LastAccessed   time.Time       `json:"lastAccessed"`
}
