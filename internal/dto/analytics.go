package dto

import "time"

// AnalyticsOverview summarizes one event's sales and engagement.
type AnalyticsOverview struct {
	TotalTickets  int     `json:"totalTickets"`
	SoldTickets   int     `json:"soldTickets"`
	TotalRevenue  float64 `json:"totalRevenue"`
	AveragePrice  float64 `json:"averagePrice"`
	Views         int64   `json:"views"`
	Favorites     int64   `json:"favorites"`
	ConversionPct float64 `json:"conversionPct"`
}

// TypeSales is sales aggregated for one ticket tier.
type TypeSales struct {
	Name     string  `json:"name"`
	Sold     int     `json:"sold"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

// DailySales is one day's bucket in the sales timeline.
type DailySales struct {
	Date    time.Time `json:"date"`
	Tickets int       `json:"tickets"`
	Revenue float64   `json:"revenue"`
}

// EventAnalyticsResponse is the full analytics payload for one event.
type EventAnalyticsResponse struct {
	Overview      AnalyticsOverview `json:"overview"`
	SalesByType   []TypeSales       `json:"salesByType"`
	SalesOverTime []DailySales      `json:"salesOverTime"`
}

// HostOverview rolls sales and engagement up across all of a host's events.
type HostOverview struct {
	Events       int     `json:"events"`
	TotalTickets int     `json:"totalTickets"`
	SoldTickets  int     `json:"soldTickets"`
	TotalRevenue float64 `json:"totalRevenue"`
	Views        int64   `json:"views"`
	Favorites    int64   `json:"favorites"`
}
