// internal/services/admin_service.go
package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/auroraatelier/aurora-backend/internal/models"
)

type AdminService struct {
	db *gorm.DB
}

type DashboardStats struct {
	PendingOrders    int64   `json:"pending_orders"`
	AwaitingPayment  int64   `json:"awaiting_payment"`
	InProduction     int64   `json:"in_production"`
	ShippedOrders    int64   `json:"shipped_orders"`
	TotalOrders      int64   `json:"total_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	MonthlyRevenue   float64 `json:"monthly_revenue"`
	RevenueGrowth    float64 `json:"revenue_growth"`
	OrdersThisMonth  int64   `json:"orders_this_month"`
	TotalCustomers   int64   `json:"total_customers"`
	TotalProducts    int64   `json:"total_products"`
	LowStockProducts int64   `json:"low_stock_products"`
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// GetDashboardStats aggregates the queue sizes and revenue figures shown on
// the back-office landing page. Revenue counts captured payments only.
func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	// Order queues
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPendingApproval).Count(&stats.PendingOrders)
	s.db.Model(&models.Order{}).
		Where("status IN ?", []models.OrderStatus{models.OrderStatusPendingPayment, models.OrderStatusPendingPaymentAdjustment}).
		Count(&stats.AwaitingPayment)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusProcessing).Count(&stats.InProduction)
	s.db.Model(&models.Order{}).Where("status = ?", models.OrderStatusShipped).Count(&stats.ShippedOrders)
	s.db.Model(&models.Order{}).Count(&stats.TotalOrders)
	s.db.Model(&models.Order{}).Where("created_at >= ?", monthStart).Count(&stats.OrdersThisMonth)

	// Revenue
	s.db.Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusCaptured).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.TotalRevenue)

	s.db.Model(&models.Order{}).
		Where("payment_status = ? AND created_at >= ?", models.PaymentStatusCaptured, monthStart).
		Select("COALESCE(SUM(total), 0)").Scan(&stats.MonthlyRevenue)

	var lastMonthRevenue float64
	s.db.Model(&models.Order{}).
		Where("payment_status = ? AND created_at >= ? AND created_at < ?",
			models.PaymentStatusCaptured, lastMonthStart, monthStart).
		Select("COALESCE(SUM(total), 0)").Scan(&lastMonthRevenue)

	if lastMonthRevenue > 0 {
		stats.RevenueGrowth = (stats.MonthlyRevenue - lastMonthRevenue) / lastMonthRevenue * 100
	}

	// Catalog and customers
	s.db.Model(&models.User{}).Where("user_type = ?", models.UserTypeCustomer).Count(&stats.TotalCustomers)
	s.db.Model(&models.Product{}).Count(&stats.TotalProducts)
	s.db.Model(&models.Product{}).
		Where("stock <= 2 AND NOT EXISTS (SELECT 1 FROM product_units WHERE product_units.product_id = products.id AND product_units.deleted_at IS NULL)").
		Count(&stats.LowStockProducts)

	return stats, nil
}
