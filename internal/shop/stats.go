package shop

import (
	"context"
	"sort"
	"time"

	"tempora_back_end/internal/models"
)

type SalesStats struct {
	OrderCount   int     `json:"order_count"`
	TotalRevenue float64 `json:"total_revenue"`
	Period       string  `json:"period"`
}

type ProductSales struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	TotalSold   int    `json:"total_sold"`
}

// StatsService agrège les ventes sur les commandes PAID uniquement.
type StatsService struct {
	orders OrderStore
}

func NewStatsService(orders OrderStore) *StatsService {
	return &StatsService{orders: orders}
}

func (s *StatsService) DailySales(ctx context.Context) (SalesStats, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.salesSince(ctx, startOfDay, "Aujourd'hui")
}

func (s *StatsService) WeeklySales(ctx context.Context) (SalesStats, error) {
	return s.salesSince(ctx, time.Now().AddDate(0, 0, -7), "7 derniers jours")
}

func (s *StatsService) MonthlySales(ctx context.Context) (SalesStats, error) {
	return s.salesSince(ctx, time.Now().AddDate(0, 0, -30), "30 derniers jours")
}

func (s *StatsService) salesSince(ctx context.Context, since time.Time, period string) (SalesStats, error) {
	orders, err := s.orders.ListSince(ctx, since)
	if err != nil {
		return SalesStats{}, err
	}

	stats := SalesStats{Period: period}
	for _, o := range orders {
		if o.Status != models.OrderPaid {
			continue
		}
		stats.OrderCount++
		stats.TotalRevenue += o.TotalAmount
	}
	return stats, nil
}

// TopProducts renvoie les meilleurs vendeurs (commandes PAID) sur la fenêtre
// donnée, classés par quantité vendue.
func (s *StatsService) TopProducts(ctx context.Context, days, limit int) ([]ProductSales, error) {
	orders, err := s.orders.ListSince(ctx, time.Now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]*ProductSales)
	for _, o := range orders {
		if o.Status != models.OrderPaid {
			continue
		}
		for _, item := range o.Items {
			ps, ok := byProduct[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID, ProductName: item.ProductName}
				byProduct[item.ProductID] = ps
			}
			ps.TotalSold += item.Quantity
		}
	}

	ranked := make([]ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		ranked = append(ranked, *ps)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalSold != ranked[j].TotalSold {
			return ranked[i].TotalSold > ranked[j].TotalSold
		}
		return ranked[i].ProductName < ranked[j].ProductName
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// StatusDistribution compte les commandes par statut.
func (s *StatsService) StatusDistribution(ctx context.Context) (map[models.OrderStatus]int, error) {
	distribution := make(map[models.OrderStatus]int)
	for _, status := range []models.OrderStatus{
		models.OrderPending, models.OrderAwaitingVerification,
		models.OrderPaid, models.OrderRejected, models.OrderCancelled,
	} {
		orders, err := s.orders.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		distribution[status] = len(orders)
	}
	return distribution, nil
}
