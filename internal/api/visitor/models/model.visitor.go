// Package models chứa model cho domain Visitor (khách ghé chat-bot, lưu MySQL).
package models

import "time"

// Visitor là một khách đã ghé chat-bot, định danh bằng stable id do
// chat-bot cấp. Đây là nguồn thứ hai để đối soát với sổ tư vấn.
type Visitor struct {
	StableID      string    `json:"stableId"`
	CustomerName  string    `json:"customerName"`
	CustomerPhone string    `json:"customerPhone"`
	Destination   string    `json:"destination"`
	ProductName   string    `json:"productName"`
	DepartureDate string    `json:"departureDate"`
	URL           string    `json:"url"`
	Status        string    `json:"status"`
	Summary       string    `json:"summary"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
