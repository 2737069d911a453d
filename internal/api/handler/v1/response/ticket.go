package response

import (
	"github.com/shopspring/decimal"

	"github.com/scratchpool/ticket-api/internal/domain"
	"github.com/scratchpool/ticket-api/internal/service"
)

type PurchaseCreatedResponse struct {
	Success    bool `json:"success"`
	PurchaseID uint `json:"purchase_id"`
}

type TicketLineResponse struct {
	Code     string          `json:"code"`
	PrizeWon decimal.Decimal `json:"prize_won"`
	IsWinner bool            `json:"is_winner"`
}

type PurchaseStatusResponse struct {
	Status       string               `json:"status"`
	Results      []TicketLineResponse `json:"results"`
	TotalResults int                  `json:"total_results"`
	CurrentPage  int                  `json:"current_page"`
	PerPage      int                  `json:"per_page"`
}

type LatestPurchaseResponse struct {
	PurchaseID uint `json:"purchase_id"`
}

type PurchaseTicketsResponse struct {
	Tickets []TicketLineResponse `json:"tickets"`
}

type OwnedTicketResponse struct {
	Code         string          `json:"code"`
	PrizeWon     decimal.Decimal `json:"prize_won"`
	IsWinner     bool            `json:"is_winner"`
	PurchaseDate string          `json:"purchase_date"`
	PurchaseID   uint            `json:"purchase_id"`
}

type OwnedTicketsResponse struct {
	Tickets       []OwnedTicketResponse `json:"tickets"`
	TotalWinnings decimal.Decimal       `json:"total_winnings"`
}

func NewTicketLines(lines []domain.TicketLine) []TicketLineResponse {
	resp := make([]TicketLineResponse, len(lines))
	for i, line := range lines {
		resp[i] = TicketLineResponse{
			Code:     line.Code,
			PrizeWon: line.PrizeValue,
			IsWinner: line.IsWinner,
		}
	}

	return resp
}

func NewPurchaseStatus(page service.StatusPage) PurchaseStatusResponse {
	return PurchaseStatusResponse{
		Status:       string(page.Status),
		Results:      NewTicketLines(page.Results),
		TotalResults: page.TotalResults,
		CurrentPage:  page.Page,
		PerPage:      page.PageSize,
	}
}

func NewOwnedTickets(tickets []domain.OwnedTicket, totalWinnings decimal.Decimal) OwnedTicketsResponse {
	resp := OwnedTicketsResponse{
		Tickets:       make([]OwnedTicketResponse, len(tickets)),
		TotalWinnings: totalWinnings,
	}
	for i, t := range tickets {
		resp.Tickets[i] = OwnedTicketResponse{
			Code:         t.Code,
			PrizeWon:     t.PrizeValue,
			IsWinner:     t.IsWinner,
			PurchaseDate: t.PurchaseDate.Format("2006-01-02"),
			PurchaseID:   t.PurchaseID,
		}
	}

	return resp
}
